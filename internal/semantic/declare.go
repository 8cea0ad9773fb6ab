package semantic

import (
	"corescript/internal/ast"
	"corescript/internal/binding"
	"corescript/internal/errors"
	"corescript/internal/symbol"
)

// DeclareScripts walks every script in file and declares its symbol in the
// batch's symbol table, enabling forward references (spec §4.3 pre-pass).
// Collisions produce a diagnostic unless AllowOverride is set, in which
// case the later declaration silently replaces the earlier one.
func (c *Checker) DeclareScripts(file string, tree *ast.File, collectors map[string]*errors.Collector) {
	col := collectorFor(collectors, file)
	for _, s := range tree.Scripts {
		sym := &symbol.Symbol{
			Kind:       symbol.KindScript,
			DeclaredAt: s,
			Script: &symbol.Script{
				Trigger:    s.Trigger.Name,
				Name:       s.Name.Name,
				ParamTypes: paramTypes(s.Params),
				ReturnType: returnTuple(s.ReturnTypes),
			},
		}
		err := c.ctx.Symbols.Define(s.FullName(), sym, c.ctx.AllowOverride)
		if err != nil {
			col.Add(errors.Semantic, errors.ErrDuplicateDeclaration, s.Range(),
				"duplicate declaration of script [%s]", s.FullName())
		}
	}
}

func paramTypes(params []ast.Parameter) []ast.TypeName {
	out := make([]ast.TypeName, len(params))
	for i, p := range params {
		out[i] = p.Type
	}
	return out
}

func returnTuple(returns []ast.TypeName) ast.TypeName {
	if len(returns) == 0 {
		return ast.TypeName{Name: "void"}
	}
	if len(returns) == 1 {
		return returns[0]
	}
	return ast.TypeName{Tuple: returns}
}

// DeclareConfigs walks every config in tree and declares its symbol. b may
// be nil if no binding is registered for the file's extension - the
// diagnostic for that is raised during CheckConfigs, since a missing
// binding doesn't prevent the name itself from being declared.
func (c *Checker) DeclareConfigs(file string, tree *ast.ConfigFile, b *binding.Binding, collectors map[string]*errors.Collector) {
	col := collectorFor(collectors, file)
	groupType := ""
	if b != nil {
		groupType = b.GroupType
	}
	for _, cfg := range tree.Configs {
		sym := &symbol.Symbol{
			Kind:       symbol.KindConfigEntry,
			DeclaredAt: cfg,
			ConfigEntry: &symbol.ConfigEntry{
				GroupType: groupType,
				Name:      cfg.Name.Name,
			},
		}
		err := c.ctx.Symbols.Define(configKey(groupType, cfg.Name.Name), sym, c.ctx.AllowOverride)
		if err != nil {
			col.Add(errors.Semantic, errors.ErrDuplicateDeclaration, cfg.Range(),
				"duplicate declaration of config [%s]", cfg.Name.Name)
		}
	}
}

// configKey namespaces config symbol names by group type so two extensions
// can each declare an entry called e.g. "default" without colliding.
func configKey(groupType, name string) string {
	if groupType == "" {
		return "config:" + name
	}
	return "config:" + groupType + ":" + name
}

// DeclareConstant registers a named literal constant in the root table;
// typically called once at driver construction from a loaded constants
// catalog, not per-batch.
func DeclareConstant(root *symbol.Table, name string, typ ast.TypeName, value any) error {
	return root.Define(name, &symbol.Symbol{
		Kind:     symbol.KindConstant,
		Constant: &symbol.Constant{Name: name, Type: typ, Value: value},
	}, false)
}

// DeclareCommand registers an engine command in the root table; called at
// driver construction from a loaded command catalog.
func DeclareCommand(root *symbol.Table, cmd *symbol.Command) error {
	return root.Define(cmd.Name, &symbol.Symbol{Kind: symbol.KindCommand, Command: cmd}, false)
}
