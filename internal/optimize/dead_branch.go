package optimize

import "corescript/internal/ir"

// DeadBranch constant-folds a comparison whose two operands are both
// constants, replacing the conditional branch pair with a single
// unconditional branch to whichever target the fold resolves to (§4.6).
// Per the recorded Open Question decision (DESIGN.md), this applies to all
// six comparison operators (==, !=, <, >, <=, >=), not just equality.
type DeadBranch struct{}

func (*DeadBranch) Name() string { return "dead-branch" }

var cmpOpcodes = map[ir.CoreOpcode]bool{
	ir.OpBranchEquals: true, ir.OpBranchNotEquals: true,
	ir.OpBranchLessThan: true, ir.OpBranchGreaterThan: true,
	ir.OpBranchLessThanOrEquals: true, ir.OpBranchGreaterThanOrEquals: true,
}

func (*DeadBranch) Apply(bs *ir.BinaryScript) bool {
	changed := false
	for _, b := range bs.Blocks {
		if foldBlock(b) {
			changed = true
		}
	}
	return changed
}

// foldBlock looks for the tail pattern [PUSH const A, PUSH const B,
// BRANCH_cmp trueLabel, BRANCH falseLabel] and, when both pushes are
// constants of a comparable kind, replaces all four instructions with one
// unconditional BRANCH to the resolved target.
func foldBlock(b *ir.Block) bool {
	n := len(b.Instructions)
	if n < 4 {
		return false
	}
	pushA, pushB := b.Instructions[n-4], b.Instructions[n-3]
	cmp, uncond := b.Instructions[n-2], b.Instructions[n-1]

	if !cmpOpcodes[cmp.Op] || uncond.Op != ir.OpBranch {
		return false
	}
	av, aok := constOf(pushA)
	bv, bok := constOf(pushB)
	if !aok || !bok {
		return false
	}

	result, ok := evalComparison(cmp.Op, av, bv)
	if !ok {
		return false
	}

	target := uncond.Operand.Label
	if result {
		target = cmp.Operand.Label
	}
	b.Instructions = append(b.Instructions[:n-4], ir.Instruction{
		Op: ir.OpBranch, Operand: ir.LabelOperand(target),
	})
	return true
}

// constOf extracts a comparable int64 value from a constant-push
// instruction, widening int to long for comparison purposes.
func constOf(inst ir.Instruction) (int64, bool) {
	switch inst.Op {
	case ir.OpPushIntConstant:
		return int64(inst.Operand.Int), true
	case ir.OpPushLongConstant:
		return inst.Operand.Long, true
	default:
		return 0, false
	}
}

func evalComparison(op ir.CoreOpcode, a, b int64) (bool, bool) {
	switch op {
	case ir.OpBranchEquals:
		return a == b, true
	case ir.OpBranchNotEquals:
		return a != b, true
	case ir.OpBranchLessThan:
		return a < b, true
	case ir.OpBranchGreaterThan:
		return a > b, true
	case ir.OpBranchLessThanOrEquals:
		return a <= b, true
	case ir.OpBranchGreaterThanOrEquals:
		return a >= b, true
	default:
		return false, false
	}
}
