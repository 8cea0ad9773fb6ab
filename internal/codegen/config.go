package codegen

import (
	"fmt"

	"github.com/pkg/errors"

	"corescript/internal/ast"
	"corescript/internal/binding"
	"corescript/internal/ir"
	"corescript/internal/symbol"
	"corescript/internal/types"
)

// IDProvider resolves a config reference to its numeric id, per §6.2. The
// interface is declared on the consumer side (codegen) rather than the
// implementer side (driver) to avoid a codegen→driver import.
type IDProvider interface {
	FindOrCreate(groupType, name string) int
}

// ConfigGenerator lowers a type-checked config record to a BinaryConfig,
// per §4.5.
type ConfigGenerator struct {
	symbols  *symbol.Table
	ids      IDProvider
	typeReg  *types.Registry
}

func NewConfigGenerator(symbols *symbol.Table, ids IDProvider, typeReg *types.Registry) *ConfigGenerator {
	return &ConfigGenerator{symbols: symbols, ids: ids, typeReg: typeReg}
}

// Generate produces the BinaryConfig for one config record, under b's
// schema.
func (g *ConfigGenerator) Generate(cfg *ast.Config, b *binding.Binding) (bc *ir.BinaryConfig, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(fmt.Errorf("%v", r), "code generation for config [%s]", cfg.Name.Name)
		}
	}()

	bc = ir.NewBinaryConfig(b.GroupType, cfg.Name.Name)
	for _, prop := range cfg.Properties {
		desc, ok := b.Lookup(prop.Key.Name)
		if !ok {
			continue // unbound keys are reported by the semantic checker, not here
		}
		g.genProperty(cfg, prop, desc, b, bc)
	}
	return bc, nil
}

func (g *ConfigGenerator) genProperty(cfg *ast.Config, prop *ast.Property, desc *binding.Descriptor, b *binding.Binding, bc *ir.BinaryConfig) {
	switch desc.Kind {
	case binding.KindBasic:
		g.genBasic(prop, desc, b, bc)
	case binding.KindTypeDispatchedBasic:
		g.genTypeDispatched(cfg, prop, desc, b, bc)
	case binding.KindSplitArray:
		g.genSplitArray(prop, desc, b, bc)
	case binding.KindParameter:
		g.genParameter(prop, desc, b, bc)
	case binding.KindMap:
		g.genMap(cfg, prop, desc, b, bc)
	}
}

// genBasic emits (or suppresses) a fixed-opcode property, applying
// EMIT_EMPTY_IF_TRUE/FALSE on a single boolean value per §4.5.
func (g *ConfigGenerator) genBasic(prop *ast.Property, desc *binding.Descriptor, b *binding.Binding, bc *ir.BinaryConfig) {
	if len(prop.Values) == 1 {
		if boolVal, ok := prop.Values[0].(*ast.BoolValue); ok {
			if _, has := desc.HasRule(binding.RuleEmitEmptyIfTrue); has {
				if boolVal.Value {
					bc.AddProperty(&ir.Property{Opcode: desc.Opcode, Empty: true})
				}
				return
			}
			if _, has := desc.HasRule(binding.RuleEmitEmptyIfFalse); has {
				if !boolVal.Value {
					bc.AddProperty(&ir.Property{Opcode: desc.Opcode, Empty: true})
				}
				return
			}
		}
	}
	values := make([]ir.PropertyValue, len(prop.Values))
	for i, v := range prop.Values {
		values[i] = g.lowerValue(v, b)
	}
	bc.AddProperty(&ir.Property{Opcode: desc.Opcode, Values: values})
}

// genTypeDispatched resolves the companion type property to choose the
// int-stack or long/string-stack opcode, then emits (opcode, [type],
// [value]) per §4.5.
func (g *ConfigGenerator) genTypeDispatched(cfg *ast.Config, prop *ast.Property, desc *binding.Descriptor, b *binding.Binding, bc *ir.BinaryConfig) {
	companionProp := findProperty(cfg, desc.CompanionType)
	if companionProp == nil || len(companionProp.Values) == 0 {
		panic("unreachable: missing companion type property " + desc.CompanionType)
	}
	typeName := companionTypeName(companionProp.Values[0])
	stack := g.typeReg.StackOf(typeName)

	opcode := desc.IntOpcode
	if stack != types.StackInt {
		opcode = desc.LongOpcode
	}

	payload := []ir.PropertyValue{ir.StringValue(typeName)}
	for _, v := range prop.Values {
		payload = append(payload, g.lowerValue(v, b))
	}
	bc.AddProperty(&ir.Property{Opcode: opcode, Values: payload})
}

func companionTypeName(v ast.Value) string {
	switch val := v.(type) {
	case *ast.TypeValue:
		return val.Name
	case *ast.RefValue:
		return val.Name.Name
	default:
		return ""
	}
}

// genSplitArray finds-or-creates the aggregate property at the
// descriptor's opcode and writes this property's component at its fixed
// index, per §4.5 and §9's split-array ordering decision.
func (g *ConfigGenerator) genSplitArray(prop *ast.Property, desc *binding.Descriptor, b *binding.Binding, bc *ir.BinaryConfig) {
	agg := bc.FindOrCreateAggregate(desc.AggregateOpcode)
	for len(agg.Values) <= desc.ComponentIndex {
		agg.Values = append(agg.Values, ir.PropertyValue{})
	}
	if len(prop.Values) > 0 {
		agg.Values[desc.ComponentIndex] = g.lowerValue(prop.Values[0], b)
	}
}

// genParameter finds-or-creates the parameter aggregate keyed by the
// descriptor's opcode, with entries indexed by the resolved parameter id.
func (g *ConfigGenerator) genParameter(prop *ast.Property, desc *binding.Descriptor, b *binding.Binding, bc *ir.BinaryConfig) {
	agg := bc.FindOrCreateAggregate(desc.ParamOpcode)
	paramID := g.ids.FindOrCreate("parameter", prop.Key.Name)
	for _, v := range prop.Values {
		agg.Entries = append(agg.Entries, ir.PropertyEntry{
			Key:   ir.IntValue(int32(paramID)),
			Value: g.lowerValue(v, b),
		})
	}
}

// genMap finds-or-creates the map aggregate, resolving the companion
// value-type property the same way genTypeDispatched does.
func (g *ConfigGenerator) genMap(cfg *ast.Config, prop *ast.Property, desc *binding.Descriptor, b *binding.Binding, bc *ir.BinaryConfig) {
	opcode := desc.MapIntOpcode
	if desc.CompanionType != "" {
		if companionProp := findProperty(cfg, desc.CompanionType); companionProp != nil && len(companionProp.Values) > 0 {
			if g.typeReg.StackOf(companionTypeName(companionProp.Values[0])) != types.StackInt {
				opcode = desc.MapLongOpcode
			}
		}
	}
	if len(prop.Values) < 2 {
		return
	}
	agg := bc.FindOrCreateAggregate(opcode)
	agg.Entries = append(agg.Entries, ir.PropertyEntry{
		Key:   g.lowerValue(prop.Values[0], b),
		Value: g.lowerValue(prop.Values[1], b),
	})
}

// lowerValue lowers one parsed config value to its binary payload, per
// §4.5: a string matching a registered graphic emits the graphic's id;
// identifiers resolve via the symbol table (config reference → id
// provider lookup, constant reference → the constant's value). b is the
// config record's own binding, needed to resolve a reference against the
// namespaced key a sibling config entry was declared under.
func (g *ConfigGenerator) lowerValue(v ast.Value, b *binding.Binding) ir.PropertyValue {
	switch val := v.(type) {
	case *ast.IntValue:
		return ir.IntValue(val.Value)
	case *ast.LongValue:
		return ir.LongValue(val.Value)
	case *ast.BoolValue:
		n := int32(0)
		if val.Value {
			n = 1
		}
		return ir.IntValue(n)
	case *ast.CoordGridValue:
		return ir.IntValue(val.Value)
	case *ast.TypeValue:
		return ir.StringValue(val.Name)
	case *ast.StringValue:
		if sym, ok := g.symbols.Lookup(graphicKey(val.Value)); ok && sym.Kind == symbol.KindGraphic {
			return ir.IntValue(int32(sym.Graphic.ID))
		}
		return ir.StringValue(val.Value)
	case *ast.RefValue:
		return g.lowerRef(val, b)
	default:
		panic(fmt.Sprintf("unhandled config value type %T", v))
	}
}

// lookupRef resolves ref the same way semantic.resolveValue does: the
// namespaced config-entry key in b's group first (a property value's
// reference is to a sibling entry in its own group), then the bare name
// constants are declared under.
func (g *ConfigGenerator) lookupRef(ref *ast.RefValue, b *binding.Binding) (*symbol.Symbol, bool) {
	if b != nil {
		if sym, ok := g.symbols.Lookup(configKey(b.GroupType, ref.Name.Name)); ok {
			return sym, true
		}
	}
	return g.symbols.Lookup(ref.Name.Name)
}

func (g *ConfigGenerator) lowerRef(ref *ast.RefValue, b *binding.Binding) ir.PropertyValue {
	sym, ok := g.lookupRef(ref, b)
	if !ok {
		panic("unreachable: unresolved config reference " + ref.Name.Name)
	}
	switch sym.Kind {
	case symbol.KindConstant:
		switch v := sym.Constant.Value.(type) {
		case int32:
			return ir.IntValue(v)
		case int64:
			return ir.LongValue(v)
		case string:
			return ir.StringValue(v)
		}
	case symbol.KindConfigEntry:
		return ir.IntValue(int32(g.ids.FindOrCreate(sym.ConfigEntry.GroupType, sym.ConfigEntry.Name)))
	}
	panic("unreachable: unresolved config reference " + ref.Name.Name)
}

func graphicKey(name string) string { return "graphic:" + name }

// configKey must match semantic.configKey's namespacing exactly - both
// packages declare/resolve config-entry symbols against the same batch
// symbol table, but neither imports the other (codegen is a semantic
// consumer, not a dependency), so the key format is duplicated here.
func configKey(groupType, name string) string {
	if groupType == "" {
		return "config:" + name
	}
	return "config:" + groupType + ":" + name
}

func findProperty(cfg *ast.Config, key string) *ast.Property {
	for _, p := range cfg.Properties {
		if p.Key.Name == key {
			return p
		}
	}
	return nil
}
