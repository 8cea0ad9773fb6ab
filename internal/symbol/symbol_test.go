package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescript/internal/symbol"
)

func TestChildFallsThroughToParent(t *testing.T) {
	root := symbol.NewRoot()
	require.NoError(t, root.Define("foo", &symbol.Symbol{Kind: symbol.KindConstant,
		Constant: &symbol.Constant{Name: "foo"}}, false))

	child := root.NewChild()
	sym, ok := child.Lookup("foo")
	require.True(t, ok)
	assert.Equal(t, "foo", sym.Name())

	_, ok = child.LookupLocal("foo")
	assert.False(t, ok, "LookupLocal must not see parent-declared symbols")
}

func TestChildShadowsParentWithoutMutatingIt(t *testing.T) {
	root := symbol.NewRoot()
	require.NoError(t, root.Define("n", &symbol.Symbol{Kind: symbol.KindConstant,
		Constant: &symbol.Constant{Name: "n", Value: int32(1)}}, false))

	child := root.NewChild()
	require.NoError(t, child.Define("n", &symbol.Symbol{Kind: symbol.KindConstant,
		Constant: &symbol.Constant{Name: "n", Value: int32(2)}}, false))

	childSym, _ := child.Lookup("n")
	rootSym, _ := root.Lookup("n")
	assert.Equal(t, int32(2), childSym.Constant.Value)
	assert.Equal(t, int32(1), rootSym.Constant.Value)
}

func TestDuplicateDefineFailsWithoutOverride(t *testing.T) {
	table := symbol.NewRoot()
	require.NoError(t, table.Define("s", &symbol.Symbol{Kind: symbol.KindScript}, false))
	err := table.Define("s", &symbol.Symbol{Kind: symbol.KindScript}, false)
	require.Error(t, err)
	var defErr *symbol.DefineError
	assert.ErrorAs(t, err, &defErr)
}

func TestDuplicateDefineSucceedsWithOverride(t *testing.T) {
	table := symbol.NewRoot()
	first := &symbol.Symbol{Kind: symbol.KindScript, Script: &symbol.Script{Name: "a"}}
	second := &symbol.Symbol{Kind: symbol.KindScript, Script: &symbol.Script{Name: "b"}}
	require.NoError(t, table.Define("s", first, false))
	require.NoError(t, table.Define("s", second, true))

	got, _ := table.LookupLocal("s")
	assert.Equal(t, "b", got.Script.Name)
}

func TestAllReturnsOnlyLocalSymbols(t *testing.T) {
	root := symbol.NewRoot()
	require.NoError(t, root.Define("a", &symbol.Symbol{Kind: symbol.KindConstant, Constant: &symbol.Constant{Name: "a"}}, false))
	child := root.NewChild()
	require.NoError(t, child.Define("b", &symbol.Symbol{Kind: symbol.KindConstant, Constant: &symbol.Constant{Name: "b"}}, false))

	all := child.All()
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].Name())
}
