// Package optimize implements the three-pass script optimizer (§4.6):
// natural-flow folding, dead-branch elimination, and dead-block
// elimination, run once in that order. Grounded on the teacher's
// OptimizationPass/OptimizationPipeline shape
// (internal/ir/optimizations.go), generalized from its SSA value-numbering
// passes to this IR's block/label model. Each pass is individually
// idempotent; no fixed-point iteration is required (§8).
package optimize

import "corescript/internal/ir"

// Pass is a single optimization transformation over a BinaryScript.
type Pass interface {
	Name() string
	Apply(bs *ir.BinaryScript) bool // reports whether it changed anything
}

// Pipeline runs an ordered sequence of passes once each.
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds the standard pipeline: natural-flow, dead-branch,
// dead-block, in that order.
func NewPipeline() *Pipeline {
	return &Pipeline{passes: []Pass{
		&NaturalFlow{},
		&DeadBranch{},
		&DeadBlock{},
	}}
}

// Run applies every pass once, in order, to bs.
func (p *Pipeline) Run(bs *ir.BinaryScript) {
	for _, pass := range p.passes {
		pass.Apply(bs)
	}
}
