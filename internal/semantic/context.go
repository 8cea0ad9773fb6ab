// Package semantic implements the two-phase checker: a pre-pass that
// declares every script/config symbol (enabling forward references), and
// a main pass that infers and checks types bottom-up, grounded on the
// teacher's analyzer.go declare-then-check structure.
package semantic

import (
	"corescript/internal/ast"
	"corescript/internal/binding"
	"corescript/internal/errors"
	"corescript/internal/symbol"
	"corescript/internal/types"
)

// Context bundles the collaborators a Checker needs for one batch: the
// batch's child symbol table, the shared type registry, and the config
// binding registry. Kept as explicit pass arguments rather than fields a
// tree node could reach back through, per spec §9's anti-cyclic-reference
// note.
type Context struct {
	Symbols       *symbol.Table
	Types         *types.Registry
	Bindings      *binding.Registry
	AllowOverride bool
}

// NewContext builds a Context over a fresh child of root for one batch.
func NewContext(root *symbol.Table, typeRegistry *types.Registry, bindings *binding.Registry, allowOverride bool) *Context {
	return &Context{
		Symbols:       root.NewChild(),
		Types:         typeRegistry,
		Bindings:      bindings,
		AllowOverride: allowOverride,
	}
}

// Checker runs the pre-pass and main pass over a batch's files, collecting
// diagnostics into a Collector per file.
type Checker struct {
	ctx *Context
}

func NewChecker(ctx *Context) *Checker { return &Checker{ctx: ctx} }

// localScope layers a script's parameters and locals over the batch's
// symbol table, without polluting it - dropped once the script is checked.
type localScope struct {
	table *symbol.Table
	locals map[string]ast.TypeName
}

func (c *Checker) newLocalScope() *localScope {
	return &localScope{table: c.ctx.Symbols.NewChild(), locals: make(map[string]ast.TypeName)}
}

// lookupVar resolves a $local variable reference against the script's
// parameters and locals held in the localScope only. Player and client
// variables are typed by their scope in varExprType, and bare identifiers
// (constants, config entries) by identExprType.
func (ls *localScope) lookupVar(name string) (ast.TypeName, bool) {
	t, ok := ls.locals[name]
	return t, ok
}

func (ls *localScope) declareLocal(name string, t ast.TypeName) {
	ls.locals[name] = t
}

// collectorFor returns (creating if necessary) the diagnostic collector
// for file, attaching file-scoped diagnostics to it.
func collectorFor(collectors map[string]*errors.Collector, file string) *errors.Collector {
	c, ok := collectors[file]
	if !ok {
		c = errors.NewCollector(file)
		collectors[file] = c
	}
	return c
}
