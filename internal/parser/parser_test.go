package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescript/internal/ast"
	"corescript/internal/parser"
)

func rangeCoversChildren(t *testing.T, n ast.Node, children ...ast.Node) {
	t.Helper()
	for _, c := range children {
		assert.LessOrEqual(t, n.Range().Start.Offset, c.Range().Start.Offset)
		assert.GreaterOrEqual(t, n.Range().End.Offset, c.Range().End.Offset)
	}
}

func TestParseScriptHelloWorld(t *testing.T) {
	src := `[proc,hello](int $x)(int) {
		if ($x == 1) {
			return(1);
		}
		return(0);
	}`
	file, errs, lexErrs := parser.ParseScript("hello.cs2", src)
	require.Empty(t, lexErrs)
	require.Empty(t, errs)
	require.Len(t, file.Scripts, 1)

	s := file.Scripts[0]
	assert.Equal(t, "proc", s.Trigger.Name)
	assert.Equal(t, "hello", s.Name.Name)
	assert.Equal(t, "proc,hello", s.FullName())
	require.Len(t, s.Params, 1)
	assert.Equal(t, "int", s.Params[0].Type.Name)
	assert.Equal(t, "x", s.Params[0].Name.Name)
	require.Len(t, s.ReturnTypes, 1)
	assert.Equal(t, "int", s.ReturnTypes[0].Name)

	rangeCoversChildren(t, s, s.Body)
	ifStmt, ok := s.Body.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	rangeCoversChildren(t, ifStmt, ifStmt.Cond, ifStmt.Then)
}

func TestParseIfElseChain(t *testing.T) {
	src := `[proc,p]() {
		if (1 == 1) {
		} else if (2 == 2) {
		} else {
		}
	}`
	file, errs, _ := parser.ParseScript("x.cs2", src)
	require.Empty(t, errs)
	ifStmt := file.Scripts[0].Body.Stmts[0].(*ast.IfStmt)
	elseIf, ok := ifStmt.Else.(*ast.IfStmt)
	require.True(t, ok)
	_, ok = elseIf.Else.(*ast.BlockStmt)
	assert.True(t, ok)
}

func TestParseSwitchStatement(t *testing.T) {
	src := `[proc,p](int $x) {
		switch_int ($x) {
			case 1, 2:
				return(1);
			default:
				return(0);
		}
	}`
	file, errs, _ := parser.ParseScript("switch.cs2", src)
	require.Empty(t, errs)
	sw, ok := file.Scripts[0].Body.Stmts[0].(*ast.SwitchStmt)
	require.True(t, ok)
	assert.Equal(t, "int", sw.Type.Name)
	require.Len(t, sw.Cases, 1)
	assert.Len(t, sw.Cases[0].Values, 2)
	require.NotNil(t, sw.Default)
}

func TestParserRecoversFromBadStatement(t *testing.T) {
	src := `[proc,p]() {
		@@@;
		return();
	}`
	file, errs, lexErrs := parser.ParseScript("bad.cs2", src)
	assert.NotEmpty(t, errs)
	// '@' is a registered separator, so the lexer reports no error for
	// '@@@'; the parser reports it and still recovers to yield the
	// trailing return statement.
	_ = lexErrs
	require.Len(t, file.Scripts, 1)
	_, ok := file.Scripts[0].Body.Stmts[len(file.Scripts[0].Body.Stmts)-1].(*ast.ReturnStmt)
	assert.True(t, ok)
}

func TestParseConfig(t *testing.T) {
	src := `[goblin]
	name = "Goblin"
	hitpoints = 5
	combat_level = 2
	`
	file, errs, lexErrs := parser.ParseConfig("npc.cfg", src)
	require.Empty(t, lexErrs)
	require.Empty(t, errs)
	require.Len(t, file.Configs, 1)
	cfg := file.Configs[0]
	assert.Equal(t, "goblin", cfg.Name.Name)
	require.Len(t, cfg.Properties, 3)
	assert.Equal(t, "name", cfg.Properties[0].Key.Name)
	sv, ok := cfg.Properties[0].Values[0].(*ast.StringValue)
	require.True(t, ok)
	assert.Equal(t, "Goblin", sv.Value)

	rangeCoversChildren(t, cfg, cfg.Properties[0], cfg.Properties[1], cfg.Properties[2])
}

func TestParseConfigTypeLiteralValue(t *testing.T) {
	src := "[param_example]\ntype = long\nother = wibble\n"
	file, errs, lexErrs := parser.ParseConfig("params.cfg", src)
	require.Empty(t, lexErrs)
	require.Empty(t, errs)
	cfg := file.Configs[0]

	tv, ok := cfg.Properties[0].Values[0].(*ast.TypeValue)
	require.True(t, ok, "a primitive spelling must parse as a TypeValue")
	assert.Equal(t, "long", tv.Name)

	rv, ok := cfg.Properties[1].Values[0].(*ast.RefValue)
	require.True(t, ok, "a non-primitive spelling must still parse as a RefValue")
	assert.Equal(t, "wibble", rv.Name.Name)
}
