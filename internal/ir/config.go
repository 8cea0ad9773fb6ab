package ir

import "corescript/internal/types"

// PropertyValue is a single typed payload value within a binary property.
type PropertyValue struct {
	Kind types.StackType
	Int  int32
	Long int64
	Str  string
}

func IntValue(v int32) PropertyValue    { return PropertyValue{Kind: types.StackInt, Int: v} }
func LongValue(v int64) PropertyValue   { return PropertyValue{Kind: types.StackLong, Long: v} }
func StringValue(v string) PropertyValue { return PropertyValue{Kind: types.StackString, Str: v} }

// Property is one binary configuration property: an opcode plus its typed
// payload, or an empty payload when an EMIT_EMPTY_IF_* rule fires. For
// aggregate descriptor kinds (split-array, parameter, map) a single
// Property accumulates entries from multiple source properties, found or
// created by opcode (§4.5).
type Property struct {
	Opcode  int
	Empty   bool
	Values  []PropertyValue
	Entries []PropertyEntry // non-nil only for aggregate (map-shaped) properties
}

// PropertyEntry is one key/value pair of an aggregate map-shaped property.
type PropertyEntry struct {
	Key   PropertyValue
	Value PropertyValue
}

// BinaryConfig is the config dialect's target IR: a named record under a
// group, holding its properties in source-order-of-first-component (the
// Open Question decision recorded in DESIGN.md).
type BinaryConfig struct {
	Group      string
	Name       string
	Properties []*Property
	byOpcode   map[int]*Property
}

func NewBinaryConfig(group, name string) *BinaryConfig {
	return &BinaryConfig{Group: group, Name: name, byOpcode: make(map[int]*Property)}
}

// AddProperty appends a new simple (non-aggregate) property.
func (c *BinaryConfig) AddProperty(p *Property) {
	c.Properties = append(c.Properties, p)
	c.byOpcode[p.Opcode] = p
}

// FindOrCreateAggregate returns the existing property for opcode, or
// creates and appends a fresh one at the position of its first occurrence,
// per §4.5's "finds-or-creates a single aggregate property" rule.
func (c *BinaryConfig) FindOrCreateAggregate(opcode int) *Property {
	if p, ok := c.byOpcode[opcode]; ok {
		return p
	}
	p := &Property{Opcode: opcode}
	c.Properties = append(c.Properties, p)
	c.byOpcode[opcode] = p
	return p
}
