package codegen

import (
	"fmt"

	"github.com/pkg/errors"

	"corescript/internal/ast"
	"corescript/internal/ir"
	"corescript/internal/symbol"
	"corescript/internal/token"
	"corescript/internal/types"
)

// ScriptGenerator lowers a type-checked script to a BinaryScript, per
// §4.4. It assumes the tree has already passed the semantic checker: any
// unresolved name encountered here is an internal invariant violation, not
// a user diagnostic.
type ScriptGenerator struct {
	symbols *symbol.Table
	types   *types.Registry

	bs      *ir.BinaryScript
	working *ir.Block
	locals  map[string]ir.LocalRef
	varType map[string]ast.TypeName
}

func NewScriptGenerator(symbols *symbol.Table, typeRegistry *types.Registry) *ScriptGenerator {
	return &ScriptGenerator{symbols: symbols, types: typeRegistry}
}

// Generate produces the BinaryScript for one script, under extension.
func (g *ScriptGenerator) Generate(s *ast.Script, extension string) (bs *ir.BinaryScript, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(fmt.Errorf("%v", r), "code generation for script [%s]", s.FullName())
		}
	}()

	g.bs = ir.NewBinaryScript(extension, s.FullName())
	g.working = g.bs.Blocks[0]
	g.locals = make(map[string]ir.LocalRef)
	g.varType = make(map[string]ast.TypeName)

	for _, p := range s.Params {
		stack := g.stackOf(p.Type)
		ref := g.bs.AllocLocal(stack, true)
		g.locals[p.Name.Name] = ref
		g.varType[p.Name.Name] = p.Type
	}

	g.genBlock(s.Body)
	g.ensureTerminated(g.working)
	return g.bs, nil
}

func (g *ScriptGenerator) stackOf(t ast.TypeName) types.StackType {
	return g.types.StackOf(t.Name)
}

// ensureTerminated appends an implicit RETURN when control falls off the
// end of a block without an explicit return or branch, covering the empty
// script body boundary case (§8).
func (g *ScriptGenerator) ensureTerminated(b *ir.Block) {
	if term, ok := b.Terminator(); ok {
		switch term.Op {
		case ir.OpReturn, ir.OpBranch, ir.OpBranchIfTrue, ir.OpBranchEquals,
			ir.OpBranchNotEquals, ir.OpBranchLessThan, ir.OpBranchGreaterThan,
			ir.OpBranchLessThanOrEquals, ir.OpBranchGreaterThanOrEquals:
			return
		}
	}
	b.Emit(ir.OpReturn, ir.Operand{})
}

func (g *ScriptGenerator) genBlock(block *ast.BlockStmt) {
	for _, stmt := range block.Stmts {
		g.genStmt(stmt)
	}
}

func (g *ScriptGenerator) genStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.BlockStmt:
		g.genBlock(s)
	case *ast.IfStmt:
		g.genIf(s)
	case *ast.WhileStmt:
		g.genWhile(s)
	case *ast.ReturnStmt:
		g.genReturn(s)
	case *ast.VarDeclStmt:
		g.genVarDecl(s)
	case *ast.AssignStmt:
		g.genAssign(s)
	case *ast.ExprStmt:
		g.genExpr(s.Expr)
	case *ast.SwitchStmt:
		g.genSwitch(s)
	case *ast.BadStmt:
		// nothing to generate; the file is erroneous and codegen is
		// skipped for it by the driver - reached only from direct
		// generator tests exercising recovery input.
	default:
		panic(fmt.Sprintf("unhandled statement type %T", stmt))
	}
}

// genCondition generates a condition's branch: for a BinaryExpr it emits
// the two operands then the matching BRANCH_* opcode; any other expression
// is evaluated to int and tested with BRANCH_IF_TRUE, per §4.4.
func (g *ScriptGenerator) genCondition(cond ast.Expr, trueLabel, falseLabel ir.Label) {
	if bin, ok := cond.(*ast.BinaryExpr); ok {
		g.genExpr(bin.Left)
		g.genExpr(bin.Right)
		op, ok := ir.BranchOpcodeForSymbol(symbolOf(bin.Op))
		if !ok {
			panic(fmt.Sprintf("unreachable comparison operator %v", bin.Op))
		}
		g.working.Emit(op, ir.LabelOperand(trueLabel))
		g.working.Emit(ir.OpBranch, ir.LabelOperand(falseLabel))
		return
	}
	g.genExpr(cond)
	g.working.Emit(ir.OpBranchIfTrue, ir.LabelOperand(trueLabel))
	g.working.Emit(ir.OpBranch, ir.LabelOperand(falseLabel))
}

func symbolOf(op token.Kind) string {
	switch op {
	case token.Equals:
		return "=="
	case token.NotEquals:
		return "!="
	case token.Less:
		return "<"
	case token.Greater:
		return ">"
	case token.LessEquals:
		return "<="
	case token.GreaterEquals:
		return ">="
	default:
		return ""
	}
}

// genIf lowers if/else per §4.4: a trueBlock and falseBlock are created,
// the condition branches the source block to one or the other, the
// trueBlock's body is generated and falls through to falseBlock, and
// falseBlock becomes the new working block (holding the else body, if any,
// generated in place before the caller continues).
func (g *ScriptGenerator) genIf(s *ast.IfStmt) {
	source := g.working
	trueBlock := g.bs.NewBlock()
	falseBlock := g.bs.NewBlock()

	g.working = source
	g.genCondition(s.Cond, trueBlock.Label, falseBlock.Label)

	g.working = trueBlock
	g.genBlock(s.Then)
	g.ensureFallthrough(g.working, falseBlock.Label)

	g.working = falseBlock
	if s.Else != nil {
		g.genStmt(s.Else)
	}
}

// genWhile lowers a while loop with a pre-header block holding the
// condition, mirroring if-lowering per §4.4.
func (g *ScriptGenerator) genWhile(s *ast.WhileStmt) {
	source := g.working
	header := g.bs.NewBlock()
	body := g.bs.NewBlock()
	exit := g.bs.NewBlock()

	source.Emit(ir.OpBranch, ir.LabelOperand(header.Label))

	g.working = header
	g.genCondition(s.Cond, body.Label, exit.Label)

	g.working = body
	g.genBlock(s.Body)
	g.ensureFallthrough(g.working, header.Label)

	g.working = exit
}

func (g *ScriptGenerator) ensureFallthrough(b *ir.Block, header ir.Label) {
	if term, ok := b.Terminator(); ok && term.Op == ir.OpReturn {
		return
	}
	b.Emit(ir.OpBranch, ir.LabelOperand(header))
}

func (g *ScriptGenerator) genReturn(s *ast.ReturnStmt) {
	for _, v := range s.Values {
		g.genExpr(v)
	}
	g.working.Emit(ir.OpReturn, ir.Operand{})
}

func (g *ScriptGenerator) genVarDecl(s *ast.VarDeclStmt) {
	stack := g.stackOf(s.Type)
	if s.Init != nil {
		g.genExpr(s.Init)
	} else {
		g.emitDefaultLiteral(s.Type)
	}
	ref := g.bs.AllocLocal(stack, false)
	g.locals[s.Name.Name] = ref
	g.varType[s.Name.Name] = s.Type
	g.working.Emit(popOpcodeFor(stack), ir.LocalOperand(ref))
}

func (g *ScriptGenerator) emitDefaultLiteral(t ast.TypeName) {
	prim, ok := g.types.Lookup(t.Name)
	if !ok {
		g.working.Emit(ir.OpPushIntConstant, ir.IntOperand(0))
		return
	}
	switch v := prim.DefaultLiteral().(type) {
	case int32:
		g.working.Emit(ir.OpPushIntConstant, ir.IntOperand(v))
	case int64:
		g.working.Emit(ir.OpPushLongConstant, ir.LongOperand(v))
	case string:
		g.working.Emit(ir.OpPushStringConstant, ir.StringOperand(v))
	}
}

func (g *ScriptGenerator) genAssign(s *ast.AssignStmt) {
	g.genExpr(s.Value)
	g.emitStore(s.Target)
}

func (g *ScriptGenerator) emitStore(v *ast.VarExpr) {
	switch v.Scope {
	case ast.ScopeLocal:
		ref, ok := g.locals[v.Name.Name]
		if !ok {
			panic("unreachable: unresolved local " + v.Name.Name)
		}
		g.working.Emit(popOpcodeFor(ref.Stack), ir.LocalOperand(ref))
	case ast.ScopePlayer:
		g.working.Emit(ir.OpPopVarp, ir.SymbolOperand(v.Name.Name))
	case ast.ScopePlayerBit:
		g.working.Emit(ir.OpPopVarpBit, ir.SymbolOperand(v.Name.Name))
	case ast.ScopeClientInt:
		g.working.Emit(ir.OpPopVarcInt, ir.SymbolOperand(v.Name.Name))
	case ast.ScopeClientString:
		g.working.Emit(ir.OpPopVarcString, ir.SymbolOperand(v.Name.Name))
	}
}

func popOpcodeFor(stack types.StackType) ir.CoreOpcode {
	switch stack {
	case types.StackInt:
		return ir.OpPopIntLocal
	case types.StackLong:
		return ir.OpPopLongLocal
	default:
		return ir.OpPopStringLocal
	}
}

func pushLocalOpcodeFor(stack types.StackType) ir.CoreOpcode {
	switch stack {
	case types.StackInt:
		return ir.OpPushIntLocal
	case types.StackLong:
		return ir.OpPushLongLocal
	default:
		return ir.OpPushStringLocal
	}
}

// genSwitch lowers the supplemental switch_<type> statement to a SWITCH
// instruction over a jump table (SPEC_FULL.md §9). Cases register
// constant-int-value-to-block mappings into a SwitchTable; default falls
// through to a dedicated block.
func (g *ScriptGenerator) genSwitch(s *ast.SwitchStmt) {
	source := g.working
	exit := g.bs.NewBlock()
	table := &ir.SwitchTable{Label: ir.Label(len(g.bs.SwitchTables)), Cases: make(map[int32]ir.Label)}

	g.genExpr(s.Scrutinee)
	source.Emit(ir.OpSwitch, ir.LabelOperand(table.Label))

	for _, cs := range s.Cases {
		caseBlock := g.bs.NewBlock()
		for _, v := range cs.Values {
			if lit, ok := v.(*ast.IntLit); ok {
				table.Cases[lit.Value] = caseBlock.Label
			}
		}
		g.working = caseBlock
		g.genBlock(cs.Body)
		g.ensureFallthrough(g.working, exit.Label)
	}

	defaultBlock := g.bs.NewBlock()
	table.Default = defaultBlock.Label
	g.working = defaultBlock
	if s.Default != nil {
		g.genBlock(s.Default)
	}
	g.ensureFallthrough(g.working, exit.Label)

	g.bs.SwitchTables = append(g.bs.SwitchTables, table)
	g.working = exit
}

func (g *ScriptGenerator) genExpr(e ast.Expr) {
	switch expr := e.(type) {
	case *ast.BoolLit:
		v := int32(0)
		if expr.Value {
			v = 1
		}
		g.working.Emit(ir.OpPushIntConstant, ir.IntOperand(v))
	case *ast.IntLit:
		g.working.Emit(ir.OpPushIntConstant, ir.IntOperand(expr.Value))
	case *ast.LongLit:
		g.working.Emit(ir.OpPushLongConstant, ir.LongOperand(expr.Value))
	case *ast.StringLit:
		g.working.Emit(ir.OpPushStringConstant, ir.StringOperand(expr.Value))
	case *ast.CoordGridLit:
		g.working.Emit(ir.OpPushIntConstant, ir.IntOperand(expr.Value))
	case *ast.VarExpr:
		g.genVarExpr(expr)
	case *ast.IdentExpr:
		g.genIdent(expr)
	case *ast.GosubExpr:
		g.genGosub(expr)
	case *ast.CommandExpr:
		g.genCommand(expr)
	case *ast.BinaryExpr:
		// Only reached via genCondition's operand evaluation path for
		// nested comparisons; evaluate both sides, no opcode of its own.
		g.genExpr(expr.Left)
		g.genExpr(expr.Right)
	case *ast.CalcExpr:
		g.genExpr(expr.Inner)
	case *ast.ConcatExpr:
		g.genConcat(expr)
	case *ast.BadExpr:
		// erroneous file; codegen is not reached for it in the driver.
	default:
		panic(fmt.Sprintf("unhandled expression type %T", e))
	}
}

func (g *ScriptGenerator) genVarExpr(v *ast.VarExpr) {
	switch v.Scope {
	case ast.ScopeLocal:
		ref, ok := g.locals[v.Name.Name]
		if !ok {
			panic("unreachable: unresolved local " + v.Name.Name)
		}
		g.working.Emit(pushLocalOpcodeFor(ref.Stack), ir.LocalOperand(ref))
	case ast.ScopePlayer:
		g.working.Emit(ir.OpPushVarp, ir.SymbolOperand(v.Name.Name))
	case ast.ScopePlayerBit:
		g.working.Emit(ir.OpPushVarpBit, ir.SymbolOperand(v.Name.Name))
	case ast.ScopeClientInt:
		g.working.Emit(ir.OpPushVarcInt, ir.SymbolOperand(v.Name.Name))
	case ast.ScopeClientString:
		g.working.Emit(ir.OpPushVarcString, ir.SymbolOperand(v.Name.Name))
	}
}

// genIdent lowers a bare identifier: a resolved constant pushes its value;
// a config entry is not a valid value-producing expression in the script
// dialect and cannot reach codegen once the checker has run.
func (g *ScriptGenerator) genIdent(e *ast.IdentExpr) {
	sym, ok := g.symbols.Lookup(e.Name.Name)
	if !ok || sym.Kind != symbol.KindConstant {
		panic("unreachable: unresolved constant " + e.Name.Name)
	}
	switch v := sym.Constant.Value.(type) {
	case int32:
		g.working.Emit(ir.OpPushIntConstant, ir.IntOperand(v))
	case int64:
		g.working.Emit(ir.OpPushLongConstant, ir.LongOperand(v))
	case string:
		g.working.Emit(ir.OpPushStringConstant, ir.StringOperand(v))
	case bool:
		n := int32(0)
		if v {
			n = 1
		}
		g.working.Emit(ir.OpPushIntConstant, ir.IntOperand(n))
	default:
		panic(fmt.Sprintf("unreachable: constant %s has unsupported value type %T", e.Name.Name, v))
	}
}

func (g *ScriptGenerator) genGosub(e *ast.GosubExpr) {
	for _, a := range e.Args {
		g.genExpr(a)
	}
	g.working.Emit(ir.OpGosubWithParams, ir.SymbolOperand("proc,"+e.Name.Name))
}

// genCommand emits a command call. The alternative-call flag rides along
// on the symbol operand's Int field (§4.4: "alternative-call flag passed
// as operand"); the bytecode writer resolves the concrete opcode from the
// command catalog entry and writes the flag as the instruction's operand.
func (g *ScriptGenerator) genCommand(e *ast.CommandExpr) {
	for _, a := range e.Args {
		g.genExpr(a)
	}
	operand := ir.SymbolOperand(e.Name.Name)
	if e.Alternative {
		operand.Int = 1
	}
	g.working.Emit(ir.OpCommand, operand)
}

// genConcat emits each part in source order, then JOIN_STRING with the
// part count as its operand, per §4.4.
func (g *ScriptGenerator) genConcat(e *ast.ConcatExpr) {
	for _, p := range e.Parts {
		g.genExpr(p)
	}
	g.working.Emit(ir.OpJoinString, ir.IntOperand(int32(len(e.Parts))))
}
