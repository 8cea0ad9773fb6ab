package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescript/internal/binding"
	"corescript/internal/types"
)

func TestLookupReturnsRegisteredDescriptor(t *testing.T) {
	b := binding.New("cfg", "npc")
	b.Add(&binding.Descriptor{Key: "name", Kind: binding.KindBasic, Components: []types.StackType{types.StackString}})

	desc, ok := b.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, binding.KindBasic, desc.Kind)

	_, ok = b.Lookup("missing")
	assert.False(t, ok)
}

func TestAddReturnsBindingForChaining(t *testing.T) {
	b := binding.New("cfg", "npc")
	got := b.Add(&binding.Descriptor{Key: "a"}).Add(&binding.Descriptor{Key: "b"})
	assert.Same(t, b, got)
	_, ok := b.Lookup("a")
	assert.True(t, ok)
	_, ok = b.Lookup("b")
	assert.True(t, ok)
}

func TestHasRuleFindsMatchingRuleKind(t *testing.T) {
	desc := &binding.Descriptor{Rules: []binding.Rule{binding.Range(1, 255), binding.Require("companion")}}

	rule, ok := desc.HasRule(binding.RuleRange)
	require.True(t, ok)
	assert.Equal(t, int64(1), rule.Lo)
	assert.Equal(t, int64(255), rule.Hi)

	rule, ok = desc.HasRule(binding.RuleRequire)
	require.True(t, ok)
	assert.Equal(t, "companion", rule.Companion)

	_, ok = desc.HasRule(binding.RuleEmitEmptyIfTrue)
	assert.False(t, ok)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := binding.NewRegistry()
	npc := binding.New("cfg", "npc")
	require.NoError(t, r.Register(npc))

	got, ok := r.Lookup("cfg")
	require.True(t, ok)
	assert.Same(t, npc, got)

	_, ok = r.Lookup("obj")
	assert.False(t, ok)
}

// Registering the same extension twice is a hard failure (spec §6.1) -
// config dispatch would otherwise be ambiguous.
func TestRegistryRejectsDuplicateExtension(t *testing.T) {
	r := binding.NewRegistry()
	require.NoError(t, r.Register(binding.New("cfg", "npc")))

	err := r.Register(binding.New("cfg", "obj"))
	require.Error(t, err)
	var dup *binding.ErrDuplicateExtension
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "cfg", dup.Extension)
}
