package semantic

import (
	"corescript/internal/ast"
	"corescript/internal/errors"
	"corescript/internal/symbol"
)

// CheckScripts runs the main pass over every script in tree: bottom-up
// type inference and checking, per spec §4.3.
func (c *Checker) CheckScripts(file string, tree *ast.File, collectors map[string]*errors.Collector) {
	col := collectorFor(collectors, file)
	for _, s := range tree.Scripts {
		c.checkScript(s, col)
	}
}

func (c *Checker) checkScript(s *ast.Script, col *errors.Collector) {
	ls := c.newLocalScope()
	for _, p := range s.Params {
		ls.declareLocal(p.Name.Name, p.Type)
	}
	returnType := returnTuple(s.ReturnTypes)
	c.checkBlock(s.Body, ls, returnType, col)
}

func (c *Checker) checkBlock(b *ast.BlockStmt, ls *localScope, returnType ast.TypeName, col *errors.Collector) {
	for _, stmt := range b.Stmts {
		c.checkStmt(stmt, ls, returnType, col)
	}
}

func (c *Checker) checkStmt(stmt ast.Stmt, ls *localScope, returnType ast.TypeName, col *errors.Collector) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		c.checkBlock(s, ls, returnType, col)
	case *ast.IfStmt:
		c.checkCondition(s.Cond, ls, col)
		c.checkBlock(s.Then, ls, returnType, col)
		if s.Else != nil {
			c.checkStmt(s.Else, ls, returnType, col)
		}
	case *ast.WhileStmt:
		c.checkCondition(s.Cond, ls, col)
		c.checkBlock(s.Body, ls, returnType, col)
	case *ast.ReturnStmt:
		c.checkReturn(s, ls, returnType, col)
	case *ast.VarDeclStmt:
		c.checkVarDecl(s, ls, col)
	case *ast.AssignStmt:
		c.checkAssign(s, ls, col)
	case *ast.ExprStmt:
		c.exprType(s.Expr, ls, col, false)
	case *ast.SwitchStmt:
		c.checkSwitch(s, ls, returnType, col)
	case *ast.BadStmt:
		// already reported during parsing
	}
}

// checkCondition requires a boolean expression or a comparison expression
// (spec: "if/while conditions must be boolean or a comparison expression").
func (c *Checker) checkCondition(cond ast.Expr, ls *localScope, col *errors.Collector) {
	if _, ok := cond.(*ast.BinaryExpr); ok {
		c.exprType(cond, ls, col, false)
		return
	}
	t := c.exprType(cond, ls, col, false)
	if t.Name != "boolean" && t.Name != "int" && t.Name != "" {
		col.Add(errors.Semantic, errors.ErrTypeMismatch, cond.Range(),
			"condition must be boolean or a comparison, found %s", t)
	}
}

func (c *Checker) checkReturn(s *ast.ReturnStmt, ls *localScope, returnType ast.TypeName, col *errors.Collector) {
	var got []ast.TypeName
	for _, v := range s.Values {
		got = append(got, c.exprType(v, ls, col, true))
	}
	want := returnType.Flatten()
	if len(got) == 1 && len(got[0].Flatten()) > 1 {
		got = got[0].Flatten()
	}
	if want[0].Name == "void" {
		if len(s.Values) != 0 {
			col.Add(errors.Semantic, errors.ErrTupleShapeMismatch, s.Range(),
				"script declares no return type but return statement has %d value(s)", len(s.Values))
		}
		return
	}
	if len(got) != len(want) {
		col.Add(errors.Semantic, errors.ErrTupleShapeMismatch, s.Range(),
			"return statement has %d value(s), script declares %d", len(got), len(want))
		return
	}
	for i := range want {
		if got[i].Name != want[i].Name && got[i].Name != "" {
			col.Add(errors.Semantic, errors.ErrTypeMismatch, s.Values[i].Range(),
				"return value %d has type %s, expected %s", i+1, got[i].Name, want[i].Name)
		}
	}
}

func (c *Checker) checkVarDecl(s *ast.VarDeclStmt, ls *localScope, col *errors.Collector) {
	if s.Init != nil {
		t := c.exprType(s.Init, ls, col, true)
		if t.Name != s.Type.Name && t.Name != "" {
			col.Add(errors.Semantic, errors.ErrTypeMismatch, s.Init.Range(),
				"cannot initialize %s variable with %s value", s.Type.Name, t.Name)
		}
	}
	ls.declareLocal(s.Name.Name, s.Type)
}

func (c *Checker) checkAssign(s *ast.AssignStmt, ls *localScope, col *errors.Collector) {
	declType, ok := ls.lookupVar(s.Target.Name.Name)
	if s.Target.Scope == ast.ScopeLocal && !ok {
		col.Add(errors.Semantic, errors.ErrUnresolvedName, s.Target.Range(),
			"unresolved local variable $%s", s.Target.Name.Name)
	}
	valType := c.exprType(s.Value, ls, col, false)
	if ok && declType.Name != valType.Name && valType.Name != "" {
		col.Add(errors.Semantic, errors.ErrTypeMismatch, s.Value.Range(),
			"cannot assign %s value to %s variable $%s", valType.Name, declType.Name, s.Target.Name.Name)
	}
}

func (c *Checker) checkSwitch(s *ast.SwitchStmt, ls *localScope, returnType ast.TypeName, col *errors.Collector) {
	c.exprType(s.Scrutinee, ls, col, false)
	for _, cs := range s.Cases {
		for _, v := range cs.Values {
			c.exprType(v, ls, col, false)
		}
		c.checkBlock(cs.Body, ls, returnType, col)
	}
	if s.Default != nil {
		c.checkBlock(s.Default, ls, returnType, col)
	}
}

// exprType infers an expression's type, reporting diagnostics for
// unresolved names, arity/type mismatches, and tuple-shape violations. A
// tuple-typed result (len(Flatten())>1) is only legal when
// tuplePositionAllowed is set (assignment target or return list).
func (c *Checker) exprType(e ast.Expr, ls *localScope, col *errors.Collector, tuplePositionAllowed bool) ast.TypeName {
	switch expr := e.(type) {
	case *ast.BoolLit:
		return ast.TypeName{Name: "boolean"}
	case *ast.IntLit:
		return ast.TypeName{Name: "int"}
	case *ast.LongLit:
		return ast.TypeName{Name: "long"}
	case *ast.StringLit:
		return ast.TypeName{Name: "string"}
	case *ast.CoordGridLit:
		return ast.TypeName{Name: "coordgrid"}
	case *ast.ConcatExpr:
		for _, p := range expr.Parts {
			if _, isLit := p.(*ast.StringLit); !isLit {
				c.exprType(p, ls, col, false)
			}
		}
		return ast.TypeName{Name: "string"}
	case *ast.CalcExpr:
		return c.exprType(expr.Inner, ls, col, false)
	case *ast.VarExpr:
		return c.varExprType(expr, ls, col)
	case *ast.IdentExpr:
		return c.identExprType(expr, col)
	case *ast.GosubExpr:
		return c.callType(expr.Name, expr.Args, true, ls, col, tuplePositionAllowed)
	case *ast.CommandExpr:
		return c.callType(expr.Name, expr.Args, false, ls, col, tuplePositionAllowed)
	case *ast.BinaryExpr:
		lt := c.exprType(expr.Left, ls, col, false)
		rt := c.exprType(expr.Right, ls, col, false)
		if lt.Name != rt.Name && lt.Name != "" && rt.Name != "" {
			col.Add(errors.Semantic, errors.ErrTypeMismatch, expr.Range(),
				"cannot compare %s to %s", lt.Name, rt.Name)
		}
		return ast.TypeName{Name: "boolean"}
	case *ast.BadExpr:
		return ast.TypeName{}
	default:
		return ast.TypeName{}
	}
}

func (c *Checker) varExprType(expr *ast.VarExpr, ls *localScope, col *errors.Collector) ast.TypeName {
	switch expr.Scope {
	case ast.ScopeLocal:
		t, ok := ls.lookupVar(expr.Name.Name)
		if !ok {
			col.Add(errors.Semantic, errors.ErrUnresolvedName, expr.Range(),
				"unresolved local variable $%s", expr.Name.Name)
			return ast.TypeName{}
		}
		return t
	case ast.ScopePlayer, ast.ScopePlayerBit, ast.ScopeClientInt:
		return ast.TypeName{Name: "int"}
	case ast.ScopeClientString:
		return ast.TypeName{Name: "string"}
	default:
		return ast.TypeName{}
	}
}

// identExprType resolves a bare identifier against parameters/locals
// first is not applicable here (VarExpr covers that); bare identifiers are
// constants or config entries, resolved against the batch symbol table.
func (c *Checker) identExprType(expr *ast.IdentExpr, col *errors.Collector) ast.TypeName {
	sym, ok := c.ctx.Symbols.Lookup(expr.Name.Name)
	if !ok {
		col.Add(errors.Semantic, errors.ErrUnresolvedName, expr.Range(),
			"unresolved name %q", expr.Name.Name)
		return ast.TypeName{}
	}
	switch sym.Kind {
	case symbol.KindConstant:
		return sym.Constant.Type
	case symbol.KindConfigEntry:
		return ast.TypeName{Name: sym.ConfigEntry.GroupType}
	default:
		col.Add(errors.Semantic, errors.ErrTypeMismatch, expr.Range(),
			"%q is not usable as a value", expr.Name.Name)
		return ast.TypeName{}
	}
}

// callType resolves and checks a gosub or command call: argument arity and
// types against the signature, and whether a tuple result appears in a
// legal position.
func (c *Checker) callType(name ast.Ident, args []ast.Expr, isGosub bool, ls *localScope, col *errors.Collector, tuplePositionAllowed bool) ast.TypeName {
	var paramTypes []ast.TypeName
	var retType ast.TypeName
	if isGosub {
		sym, ok := c.ctx.Symbols.Lookup("proc," + name.Name)
		if !ok {
			col.Add(errors.Semantic, errors.ErrUnresolvedName, name.Range(),
				"unresolved script ~%s", name.Name)
			return ast.TypeName{}
		}
		paramTypes = sym.Script.ParamTypes
		retType = sym.Script.ReturnType
	} else {
		sym, ok := c.ctx.Symbols.Lookup(name.Name)
		if !ok || sym.Kind != symbol.KindCommand {
			col.Add(errors.Semantic, errors.ErrUnresolvedName, name.Range(),
				"unresolved command %s", name.Name)
			return ast.TypeName{}
		}
		paramTypes = sym.Command.ArgTypes
		retType = sym.Command.ReturnType
	}

	if len(args) != len(paramTypes) {
		col.Add(errors.Semantic, errors.ErrArityMismatch, name.Range(),
			"%s expects %d argument(s), found %d", name.Name, len(paramTypes), len(args))
	} else {
		for i, a := range args {
			at := c.exprType(a, ls, col, false)
			if at.Name != paramTypes[i].Name && at.Name != "" {
				col.Add(errors.Semantic, errors.ErrTypeMismatch, a.Range(),
					"argument %d to %s has type %s, expected %s", i+1, name.Name, at.Name, paramTypes[i].Name)
			}
		}
	}

	if !tuplePositionAllowed && len(retType.Flatten()) > 1 {
		col.Add(errors.Semantic, errors.ErrTupleShapeMismatch, name.Range(),
			"tuple-returning call to %s may only appear as an assignment target or in a return list", name.Name)
	}
	return retType
}
