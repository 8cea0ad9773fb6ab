package driver

import "corescript/internal/symbol"

// idProviderAdapter satisfies codegen.IDProvider over any IdProvider,
// since the config code generator only ever needs find-or-create
// semantics.
type idProviderAdapter struct{ ids IdProvider }

func (a idProviderAdapter) FindOrCreate(groupType, name string) int {
	return a.ids.FindOrCreateConfig(groupType, name)
}

// scriptResolver satisfies bytecode.SymbolResolver using the batch symbol
// table and id provider. Variable names (varp/varc) are not backed by a
// catalog this core loads (§1 scopes host variable definitions out) - they
// are allocated deterministically through the same id provider under a
// reserved group, which is sufficient for producing a stable wire encoding
// without pretending to know the host's real variable ids.
type scriptResolver struct {
	symbols *symbol.Table
	ids     IdProvider
}

func (r *scriptResolver) ResolveScript(fullName string) (int, bool) {
	sym, ok := r.symbols.Lookup(fullName)
	if !ok || sym.Kind != symbol.KindScript {
		return 0, false
	}
	if sym.Script.PredefinedID != nil {
		return *sym.Script.PredefinedID, true
	}
	return r.ids.FindOrCreateConfig("script", fullName), true
}

func (r *scriptResolver) ResolveCommand(name string) (int, bool, bool) {
	sym, ok := r.symbols.Lookup(name)
	if !ok || sym.Kind != symbol.KindCommand {
		return 0, false, false
	}
	return sym.Command.Opcode, sym.Command.Opcode > 255, true
}

func (r *scriptResolver) ResolveVar(name string) (int, bool) {
	return r.ids.FindOrCreateConfig("var", name), true
}
