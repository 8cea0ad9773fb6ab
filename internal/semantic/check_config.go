package semantic

import (
	"corescript/internal/ast"
	"corescript/internal/binding"
	"corescript/internal/errors"
	"corescript/internal/types"
)

// CheckConfigs runs the main pass over every config record in tree:
// resolving each property against b's descriptors, type-checking values,
// and evaluating RANGE/REQUIRE rules. b is nil when no binding is
// registered for the file's extension.
func (c *Checker) CheckConfigs(file string, tree *ast.ConfigFile, b *binding.Binding, collectors map[string]*errors.Collector) {
	col := collectorFor(collectors, file)
	if b == nil {
		if len(tree.Configs) > 0 {
			col.Add(errors.Semantic, errors.ErrMissingBinding, tree.Range(),
				"no binding registered for this configuration file's extension")
		}
		return
	}
	for _, cfg := range tree.Configs {
		c.checkConfig(cfg, b, col)
	}
}

func (c *Checker) checkConfig(cfg *ast.Config, b *binding.Binding, col *errors.Collector) {
	for _, prop := range cfg.Properties {
		desc, ok := b.Lookup(prop.Key.Name)
		if !ok {
			col.Add(errors.Semantic, errors.ErrUnresolvedName, prop.Range(),
				"unknown property %q for group %q", prop.Key.Name, b.GroupType)
			continue
		}
		c.checkProperty(cfg, prop, desc, b, col)
	}
}

func (c *Checker) checkProperty(cfg *ast.Config, prop *ast.Property, desc *binding.Descriptor, b *binding.Binding, col *errors.Collector) {
	switch desc.Kind {
	case binding.KindBasic:
		c.checkComponents(prop, desc.Components, col)
	case binding.KindTypeDispatchedBasic:
		c.checkTypeDispatched(cfg, prop, desc, b, col)
	case binding.KindSplitArray:
		c.checkValues(prop, b, col)
	case binding.KindParameter:
		c.checkValues(prop, b, col)
	case binding.KindMap:
		c.checkMapEntry(prop, desc, b, col)
	}

	if rule, ok := desc.HasRule(binding.RuleRange); ok {
		c.checkRange(prop, rule, col)
	}
	if rule, ok := desc.HasRule(binding.RuleRequire); ok {
		c.checkRequire(cfg, prop, rule, col)
	}
}

// checkComponents verifies a Basic property's value count and primitive
// kind against the descriptor's stack-type components, one value per
// component in order.
func (c *Checker) checkComponents(prop *ast.Property, components []types.StackType, col *errors.Collector) {
	if len(prop.Values) != len(components) {
		col.Add(errors.Semantic, errors.ErrArityMismatch, prop.Range(),
			"property %q expects %d value(s), found %d", prop.Key.Name, len(components), len(prop.Values))
		return
	}
	for i, v := range prop.Values {
		if !stackMatches(v, components[i]) {
			col.Add(errors.Semantic, errors.ErrTypeMismatch, v.Range(),
				"property %q value %d does not match its declared type", prop.Key.Name, i+1)
		}
	}
}

func (c *Checker) checkValues(prop *ast.Property, b *binding.Binding, col *errors.Collector) {
	for _, v := range prop.Values {
		c.resolveValue(v, b, col)
	}
}

// checkTypeDispatched requires the companion "type" property to be present
// somewhere in the same config record (the code generator reads it to pick
// the int or long opcode) and resolves any references among the values.
// The values are not checked against the companion's stack type.
func (c *Checker) checkTypeDispatched(cfg *ast.Config, prop *ast.Property, desc *binding.Descriptor, b *binding.Binding, col *errors.Collector) {
	companion := findProperty(cfg, desc.CompanionType)
	if companion == nil {
		col.Add(errors.Semantic, errors.ErrMalformedBindingRef, prop.Range(),
			"property %q requires companion property %q to be set", prop.Key.Name, desc.CompanionType)
		return
	}
	c.checkValues(prop, b, col)
}

func (c *Checker) checkMapEntry(prop *ast.Property, desc *binding.Descriptor, b *binding.Binding, col *errors.Collector) {
	if len(prop.Values) < 2 {
		col.Add(errors.Semantic, errors.ErrArityMismatch, prop.Range(),
			"map property %q requires a key and a value", prop.Key.Name)
		return
	}
	c.resolveValue(prop.Values[0], b, col)
	c.resolveValue(prop.Values[1], b, col)
}

func (c *Checker) checkRange(prop *ast.Property, rule binding.Rule, col *errors.Collector) {
	for _, v := range prop.Values {
		n, ok := intValueOf(v)
		if !ok {
			continue
		}
		if n < rule.Lo || n > rule.Hi {
			col.Add(errors.Semantic, errors.ErrRuleViolation, v.Range(),
				"property %q value %d out of range [%d, %d]", prop.Key.Name, n, rule.Lo, rule.Hi)
		}
	}
}

func (c *Checker) checkRequire(cfg *ast.Config, prop *ast.Property, rule binding.Rule, col *errors.Collector) {
	if findProperty(cfg, rule.Companion) == nil {
		col.Add(errors.Semantic, errors.ErrRuleViolation, prop.Range(),
			"property %q requires companion property %q to also be set", prop.Key.Name, rule.Companion)
	}
}

// resolveValue resolves a RefValue against the batch symbol table. A config
// reference names a sibling entry in b's own group, declared under the
// configKey namespace (see DeclareConfigs); a constant is declared under
// its bare name. Try the namespaced form first, since that's what a config
// property value's reference actually means (spec §4.5), then fall back to
// the bare name for constants.
func (c *Checker) resolveValue(v ast.Value, b *binding.Binding, col *errors.Collector) {
	ref, ok := v.(*ast.RefValue)
	if !ok {
		return
	}
	if b != nil {
		if _, ok := c.ctx.Symbols.Lookup(configKey(b.GroupType, ref.Name.Name)); ok {
			return
		}
	}
	if _, ok := c.ctx.Symbols.Lookup(ref.Name.Name); !ok {
		col.Add(errors.Semantic, errors.ErrUnresolvedName, ref.Range(),
			"unresolved reference %q", ref.Name.Name)
	}
}

func findProperty(cfg *ast.Config, key string) *ast.Property {
	for _, p := range cfg.Properties {
		if p.Key.Name == key {
			return p
		}
	}
	return nil
}

// stackMatches reports whether a parsed value's natural stack type agrees
// with a descriptor component's declared stack type. RefValue is assumed
// to match - its real type is checked once resolved against the symbol
// table, separately.
func stackMatches(v ast.Value, want types.StackType) bool {
	switch v.(type) {
	case *ast.IntValue, *ast.BoolValue, *ast.CoordGridValue, *ast.TypeValue:
		return want == types.StackInt
	case *ast.LongValue:
		return want == types.StackLong
	case *ast.StringValue:
		return want == types.StackString
	case *ast.RefValue:
		return true
	default:
		return true
	}
}

func intValueOf(v ast.Value) (int64, bool) {
	switch val := v.(type) {
	case *ast.IntValue:
		return int64(val.Value), true
	case *ast.LongValue:
		return val.Value, true
	default:
		return 0, false
	}
}
