package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescript/internal/driver"
)

func TestDefaultIdProviderAllocatesSequentialIdsPerGroup(t *testing.T) {
	p := driver.NewDefaultIdProvider()
	assert.Equal(t, 0, p.FindOrCreateConfig("npc", "goblin"))
	assert.Equal(t, 1, p.FindOrCreateConfig("npc", "hobgoblin"))
	assert.Equal(t, 0, p.FindOrCreateConfig("obj", "sword"), "a new group type restarts its own counter")
}

func TestDefaultIdProviderFindOrCreateIsIdempotent(t *testing.T) {
	p := driver.NewDefaultIdProvider()
	first := p.FindOrCreateConfig("npc", "goblin")
	second := p.FindOrCreateConfig("npc", "goblin")
	assert.Equal(t, first, second)
}

func TestDefaultIdProviderFindConfigReportsUnknown(t *testing.T) {
	p := driver.NewDefaultIdProvider()
	_, ok := p.FindConfig("npc", "goblin")
	assert.False(t, ok)

	id := p.FindOrCreateConfig("npc", "goblin")
	got, ok := p.FindConfig("npc", "goblin")
	require.True(t, ok)
	assert.Equal(t, id, got)
}
