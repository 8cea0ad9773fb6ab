// Package codegen lowers the type-checked syntax tree to the IR's target
// forms: BinaryScript (via the block-structured generator) and
// BinaryConfig (via the property generator), grounded on the teacher's
// ir.Builder (internal/ir/builder.go) generalized from SSA construction to
// symbolic-label block construction.
package codegen

import "corescript/internal/ir"

// InstructionMapEntry is one CoreOpcode's concrete binding: its on-disk
// opcode number and whether its operand uses the wide (32-bit) encoding.
type InstructionMapEntry struct {
	Opcode int
	Large  bool
}

// InstructionMap resolves abstract CoreOpcodes to concrete opcodes, loaded
// by the driver from a YAML instruction catalog (§6.3). Must be Ready
// before the driver accepts code-generation work.
type InstructionMap struct {
	entries map[ir.CoreOpcode]InstructionMapEntry
	total   int
}

// NewInstructionMap creates an empty map. total is the number of distinct
// CoreOpcode values the map must bind before it is Ready.
func NewInstructionMap(total int) *InstructionMap {
	return &InstructionMap{entries: make(map[ir.CoreOpcode]InstructionMapEntry), total: total}
}

// Set binds a CoreOpcode to its concrete encoding.
func (m *InstructionMap) Set(op ir.CoreOpcode, entry InstructionMapEntry) {
	m.entries[op] = entry
}

// Lookup returns the concrete encoding for op.
func (m *InstructionMap) Lookup(op ir.CoreOpcode) (InstructionMapEntry, bool) {
	e, ok := m.entries[op]
	return e, ok
}

// Ready reports whether every CoreOpcode the generator can emit has been
// bound to a concrete encoding.
func (m *InstructionMap) Ready() bool {
	return len(m.entries) >= m.total
}

// Missing returns the CoreOpcodes that remain unbound, for diagnostics.
func (m *InstructionMap) Missing(all []ir.CoreOpcode) []ir.CoreOpcode {
	var out []ir.CoreOpcode
	for _, op := range all {
		if _, ok := m.entries[op]; !ok {
			out = append(out, op)
		}
	}
	return out
}
