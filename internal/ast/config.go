package ast

import "corescript/internal/token"

// ConfigFile is the top-level configuration-dialect syntax tree.
type ConfigFile struct {
	Configs []*Config
	Rng     token.Range
}

func (f *ConfigFile) Range() token.Range { return f.Rng }

// Config is `[name] property*`.
type Config struct {
	Name       Ident
	Properties []*Property
	Rng        token.Range
}

func (c *Config) Range() token.Range { return c.Rng }

// Property is `key = value (',' value)*`.
type Property struct {
	Key    Ident
	Values []Value
	Rng    token.Range
}

func (p *Property) Range() token.Range { return p.Rng }

// Value is any config-dialect value.
type Value interface {
	Node
	valueNode()
}

type StringValue struct {
	Value string
	Rng   token.Range
}

func (v *StringValue) Range() token.Range { return v.Rng }
func (*StringValue) valueNode()           {}

type IntValue struct {
	Value int32
	Rng   token.Range
}

func (v *IntValue) Range() token.Range { return v.Rng }
func (*IntValue) valueNode()           {}

type LongValue struct {
	Value int64
	Rng   token.Range
}

func (v *LongValue) Range() token.Range { return v.Rng }
func (*LongValue) valueNode()           {}

type BoolValue struct {
	Value bool
	Rng   token.Range
}

func (v *BoolValue) Range() token.Range { return v.Rng }
func (*BoolValue) valueNode()           {}

// TypeValue is a type-literal value (a primitive/game type used as data,
// e.g. a parameter's value type).
type TypeValue struct {
	Name string
	Rng  token.Range
}

func (v *TypeValue) Range() token.Range { return v.Rng }
func (*TypeValue) valueNode()           {}

type CoordGridValue struct {
	Value int32
	Rng   token.Range
}

func (v *CoordGridValue) Range() token.Range { return v.Rng }
func (*CoordGridValue) valueNode()           {}

// RefValue is an unresolved identifier value: either a constant reference
// or a config reference, disambiguated during the semantic pass.
type RefValue struct {
	Name Ident
	Rng  token.Range
}

func (v *RefValue) Range() token.Range { return v.Rng }
func (*RefValue) valueNode()           {}

type BadValue struct {
	Rng token.Range
}

func (v *BadValue) Range() token.Range { return v.Rng }
func (*BadValue) valueNode()           {}
