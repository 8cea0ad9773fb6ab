// Package ast defines the typed syntax tree shared by the scripting and
// configuration dialects. Per the sum-type redesign note, there is no
// per-node visitor interface: every node exposes Range() and callers use a
// plain type switch per pass.
package ast

import "corescript/internal/token"

// Node is the minimal capability every tree node has: its source range.
// Every node's range covers the ranges of all its children (an invariant
// enforced by the parser, which always builds ranges bottom-up).
type Node interface {
	Range() token.Range
}

// Ident is a bare identifier, kept unresolved until the semantic pass binds
// it to a symbol.
type Ident struct {
	Name string
	Rng  token.Range
}

func (i Ident) Range() token.Range { return i.Rng }

// TypeName is a type expression, possibly a tuple. Tuples canonicalize by
// flattening nested tuples: a tuple of one element equals that element.
type TypeName struct {
	Name  string   // primitive or named type; empty if Tuple is set
	Tuple []TypeName
	Rng   token.Range
}

func (t TypeName) Range() token.Range { return t.Rng }

// Flatten returns the canonical element list: a single non-tuple type
// becomes a one-element list, and nested tuples are flattened.
func (t TypeName) Flatten() []TypeName {
	if t.Tuple == nil {
		return []TypeName{t}
	}
	var out []TypeName
	for _, elem := range t.Tuple {
		out = append(out, elem.Flatten()...)
	}
	return out
}

// Equal compares two type expressions by their canonical flattened form.
func (t TypeName) Equal(other TypeName) bool {
	a, b := t.Flatten(), other.Flatten()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

func (t TypeName) String() string {
	flat := t.Flatten()
	if len(flat) == 1 {
		return flat[0].Name
	}
	s := "("
	for i, e := range flat {
		if i > 0 {
			s += ", "
		}
		s += e.Name
	}
	return s + ")"
}
