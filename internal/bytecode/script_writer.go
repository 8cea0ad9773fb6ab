package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"

	"corescript/internal/codegen"
	"corescript/internal/ir"
	"corescript/internal/types"
)

// flatInstruction is one instruction positioned in the concatenated
// (label-ordered) instruction stream.
type flatInstruction struct {
	inst ir.Instruction
}

// WriteScript serializes bs to the on-disk layout described in §6.5,
// resolving CoreOpcodes through instrMap and symbol-carrying operands
// through resolver. Branch/switch targets are written as instruction-
// relative offsets into the concatenated stream (§4.7).
func WriteScript(bs *ir.BinaryScript, instrMap *codegen.InstructionMap, resolver SymbolResolver) ([]byte, error) {
	flat, blockStart := flattenBlocks(bs)

	var body bytes.Buffer
	for i, fi := range flat {
		if err := writeInstruction(&body, fi.inst, instrMap, resolver, blockStart); err != nil {
			return nil, errors.Wrapf(err, "instruction %d of script [%s]", i, bs.FullName)
		}
	}

	var out bytes.Buffer
	writeString(&out, bs.FullName)
	binary.Write(&out, binary.BigEndian, uint16(len(flat)))
	out.Write(body.Bytes())

	writeLocalCounts(&out, bs, types.StackInt)
	writeLocalCounts(&out, bs, types.StackString)
	writeLocalCounts(&out, bs, types.StackLong)

	binary.Write(&out, binary.BigEndian, uint16(len(bs.SwitchTables)))
	for _, table := range bs.SwitchTables {
		writeSwitchTable(&out, table, blockStart)
	}

	return out.Bytes(), nil
}

func writeLocalCounts(out *bytes.Buffer, bs *ir.BinaryScript, stack types.StackType) {
	counts := bs.Locals[stack]
	out.WriteByte(byte(counts.Variables))
	out.WriteByte(byte(counts.Params))
}

func writeSwitchTable(out *bytes.Buffer, table *ir.SwitchTable, blockStart map[ir.Label]int) {
	binary.Write(out, binary.BigEndian, uint16(len(table.Cases)))
	for value, target := range table.Cases {
		binary.Write(out, binary.BigEndian, value)
		binary.Write(out, binary.BigEndian, uint32(blockStart[target]))
	}
	binary.Write(out, binary.BigEndian, uint32(blockStart[table.Default]))
}

// flattenBlocks concatenates every block's instructions in slice order
// (label order) and records each block's starting instruction index.
func flattenBlocks(bs *ir.BinaryScript) ([]flatInstruction, map[ir.Label]int) {
	var flat []flatInstruction
	blockStart := make(map[ir.Label]int)
	for _, b := range bs.Blocks {
		blockStart[b.Label] = len(flat)
		for _, inst := range b.Instructions {
			flat = append(flat, flatInstruction{inst: inst})
		}
	}
	return flat, blockStart
}

// writeInstruction writes one instruction's opcode and operand. A COMMAND
// instruction's concrete opcode comes from the command catalog (each
// engine command has its own opcode), not the CoreOpcode instruction map,
// which only covers the fixed core opcode space.
func writeInstruction(out *bytes.Buffer, inst ir.Instruction, instrMap *codegen.InstructionMap, resolver SymbolResolver, blockStart map[ir.Label]int) error {
	if inst.Op == ir.OpCommand {
		opcode, large, ok := resolver.ResolveCommand(inst.Operand.Symbol)
		if !ok {
			return fmt.Errorf("unreachable: unresolved command %q", inst.Operand.Symbol)
		}
		entry := codegen.InstructionMapEntry{Opcode: opcode, Large: large}
		writeOpcode(out, entry)
		return writeWidth(out, entry.Large, int64(inst.Operand.Int))
	}

	entry, ok := instrMap.Lookup(inst.Op)
	if !ok {
		return fmt.Errorf("unreachable opcode %s has no instruction map entry", inst.Op)
	}
	writeOpcode(out, entry)
	return writeOperand(out, inst, entry, resolver, blockStart)
}

func writeOpcode(out *bytes.Buffer, entry codegen.InstructionMapEntry) {
	if entry.Large {
		binary.Write(out, binary.BigEndian, uint16(entry.Opcode))
	} else {
		out.WriteByte(byte(entry.Opcode))
	}
}

func writeOperand(out *bytes.Buffer, inst ir.Instruction, entry codegen.InstructionMapEntry, resolver SymbolResolver, blockStart map[ir.Label]int) error {
	op := inst.Operand
	switch op.Kind {
	case ir.OperandNone:
		return nil
	case ir.OperandInt:
		return writeWidth(out, entry.Large, int64(op.Int))
	case ir.OperandLong:
		return binary.Write(out, binary.BigEndian, op.Long)
	case ir.OperandString:
		writeString(out, op.Str)
		return nil
	case ir.OperandLabel:
		if inst.Op == ir.OpSwitch {
			// A SWITCH operand names its switch table by index, not a block.
			return writeWidth(out, entry.Large, int64(op.Label))
		}
		offset, ok := blockStart[op.Label]
		if !ok {
			return fmt.Errorf("branch to unresolved label %d", op.Label)
		}
		return writeWidth(out, entry.Large, int64(offset))
	case ir.OperandLocalRef:
		return writeWidth(out, entry.Large, int64(op.Local.Index))
	case ir.OperandSymbolRef:
		return writeSymbolOperand(out, inst.Op, op, entry, resolver)
	default:
		return fmt.Errorf("unhandled operand kind %d", op.Kind)
	}
}

// writeSymbolOperand resolves a symbol-ref operand for every opcode except
// COMMAND, which writeInstruction handles separately (its opcode byte
// itself comes from the command catalog, not the instruction map).
func writeSymbolOperand(out *bytes.Buffer, op ir.CoreOpcode, operand ir.Operand, entry codegen.InstructionMapEntry, resolver SymbolResolver) error {
	switch op {
	case ir.OpGosubWithParams:
		id, ok := resolver.ResolveScript(operand.Symbol)
		if !ok {
			return fmt.Errorf("unreachable: unresolved script reference %q", operand.Symbol)
		}
		return writeWidth(out, entry.Large, int64(id))
	default: // varp/varp_bit/varc_int/varc_string
		id, ok := resolver.ResolveVar(operand.Symbol)
		if !ok {
			return fmt.Errorf("unreachable: unresolved variable %q", operand.Symbol)
		}
		return writeWidth(out, entry.Large, int64(id))
	}
}

func writeWidth(out *bytes.Buffer, large bool, v int64) error {
	if large {
		return binary.Write(out, binary.BigEndian, int32(v))
	}
	out.WriteByte(byte(v))
	return nil
}

func writeString(out *bytes.Buffer, s string) {
	binary.Write(out, binary.BigEndian, uint16(len(s)))
	out.WriteString(s)
}
