package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescript/internal/ir"
	"corescript/internal/types"
)

func TestAllocLocalParamsOccupyLowIndices(t *testing.T) {
	bs := ir.NewBinaryScript("cs2", "proc,p")
	p0 := bs.AllocLocal(types.StackInt, true)
	p1 := bs.AllocLocal(types.StackInt, true)
	v0 := bs.AllocLocal(types.StackInt, false)

	assert.Equal(t, 0, p0.Index)
	assert.Equal(t, 1, p1.Index)
	assert.Equal(t, 2, v0.Index, "variables must be indexed after all params in the same stack type")
}

func TestAllocLocalIsPartitionedPerStackType(t *testing.T) {
	bs := ir.NewBinaryScript("cs2", "proc,p")
	i0 := bs.AllocLocal(types.StackInt, true)
	s0 := bs.AllocLocal(types.StackString, true)
	assert.Equal(t, 0, i0.Index)
	assert.Equal(t, 0, s0.Index, "int and string locals must not share an index space")
}

func TestNewBlockLabelsAreMonotonic(t *testing.T) {
	bs := ir.NewBinaryScript("cs2", "proc,p")
	b1 := bs.NewBlock()
	b2 := bs.NewBlock()
	assert.Equal(t, ir.Label(1), b1.Label)
	assert.Equal(t, ir.Label(2), b2.Label)

	got, ok := bs.Block(b2.Label)
	require.True(t, ok)
	assert.Same(t, b2, got)
}

func TestRemoveBlocksCompactsButKeepsLabelsLogical(t *testing.T) {
	bs := ir.NewBinaryScript("cs2", "proc,p")
	b1 := bs.NewBlock()
	b2 := bs.NewBlock()
	bs.RemoveBlocks(map[ir.Label]bool{b1.Label: true})

	require.Len(t, bs.Blocks, 2)
	_, ok := bs.Block(b1.Label)
	assert.False(t, ok)
	got, ok := bs.Block(b2.Label)
	require.True(t, ok)
	assert.Same(t, b2, got)
}

func TestBlockTerminatorOfEmptyBlock(t *testing.T) {
	b := &ir.Block{Label: 0}
	_, ok := b.Terminator()
	assert.False(t, ok)

	b.Emit(ir.OpReturn, ir.Operand{})
	term, ok := b.Terminator()
	require.True(t, ok)
	assert.Equal(t, ir.OpReturn, term.Op)
}

func TestBranchOpcodeForSymbol(t *testing.T) {
	op, ok := ir.BranchOpcodeForSymbol("==")
	require.True(t, ok)
	assert.Equal(t, ir.OpBranchEquals, op)

	_, ok = ir.BranchOpcodeForSymbol("unknown")
	assert.False(t, ok)
}
