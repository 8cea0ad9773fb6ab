// Package bytecode serializes an optimized BinaryScript to the on-disk
// script layout (§6.5) and a BinaryConfig to the on-disk config layout
// (§6.6). It is the single authority for on-disk layout, grounded on the
// teacher's ir printer (internal/ir/printer.go) generalized from a debug
// text format to a binary one, and on the core instruction-width handling
// every bytecode-targeting compiler in the pack performs.
package bytecode

// SymbolResolver resolves the symbol-carrying operands a script emits
// (gosub targets, command names, and host-defined variable names) to
// their concrete numeric encoding. Implemented by the driver, which has
// access to the id provider and the loaded catalogs; declared here on the
// consumer side to avoid a bytecode→driver import.
type SymbolResolver interface {
	ResolveScript(fullName string) (id int, ok bool)
	ResolveCommand(name string) (opcode int, large bool, ok bool)
	ResolveVar(name string) (id int, ok bool)
}
