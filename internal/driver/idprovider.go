package driver

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
)

// IdProvider resolves configuration names to numeric ids, per §6.2. A
// provider shared across batches must be internally synchronized - the
// default implementation below guards its maps with go-deadlock's
// sync.Mutex replacement, matching the rest of the pack's transitive
// dependency on it.
type IdProvider interface {
	FindOrCreateConfig(groupType, name string) int
	FindConfig(groupType, name string) (int, bool)
}

// DefaultIdProvider is the in-memory, deterministic id allocator: the
// first name seen for a group type gets id 0, the next gets 1, and so on.
type DefaultIdProvider struct {
	mu     deadlock.Mutex
	ids    map[string]int
	nextID map[string]int
}

func NewDefaultIdProvider() *DefaultIdProvider {
	return &DefaultIdProvider{ids: make(map[string]int), nextID: make(map[string]int)}
}

func (p *DefaultIdProvider) FindOrCreateConfig(groupType, name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := compositeKey(groupType, name)
	if id, ok := p.ids[key]; ok {
		return id
	}
	id := p.nextID[groupType]
	p.nextID[groupType] = id + 1
	p.ids[key] = id
	return id
}

func (p *DefaultIdProvider) FindConfig(groupType, name string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.ids[compositeKey(groupType, name)]
	return id, ok
}

// FindOrCreate adapts the provider to codegen.IDProvider, which the config
// code generator uses without needing the lookup-only variant.
func (p *DefaultIdProvider) FindOrCreate(groupType, name string) int {
	return p.FindOrCreateConfig(groupType, name)
}

func compositeKey(groupType, name string) string {
	return fmt.Sprintf("%s\x00%s", groupType, name)
}
