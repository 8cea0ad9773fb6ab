package bytecode_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescript/internal/bytecode"
	"corescript/internal/codegen"
	"corescript/internal/ir"
)

// fakeResolver satisfies bytecode.SymbolResolver with a fixed table, for
// tests that don't need the driver's real id provider.
type fakeResolver struct {
	scripts  map[string]int
	commands map[string]struct {
		opcode int
		large  bool
	}
	vars map[string]int
}

func (r *fakeResolver) ResolveScript(name string) (int, bool) {
	id, ok := r.scripts[name]
	return id, ok
}

func (r *fakeResolver) ResolveCommand(name string) (int, bool, bool) {
	c, ok := r.commands[name]
	return c.opcode, c.large, ok
}

func (r *fakeResolver) ResolveVar(name string) (int, bool) {
	id, ok := r.vars[name]
	return id, ok
}

func newInstrMap(entries map[ir.CoreOpcode]codegen.InstructionMapEntry) *codegen.InstructionMap {
	m := codegen.NewInstructionMap(len(entries))
	for op, e := range entries {
		m.Set(op, e)
	}
	return m
}

// Hello-world bytecode scenario (spec §8): a one-block script pushing a
// constant then returning, verified byte-for-byte against the §6.5 layout.
func TestWriteScriptHelloWorldLayout(t *testing.T) {
	bs := ir.NewBinaryScript("cs2", "proc,hello")
	entry := bs.Blocks[0]
	entry.Emit(ir.OpPushIntConstant, ir.IntOperand(1))
	entry.Emit(ir.OpReturn, ir.Operand{})

	instrMap := newInstrMap(map[ir.CoreOpcode]codegen.InstructionMapEntry{
		ir.OpPushIntConstant: {Opcode: 3, Large: false},
		ir.OpReturn:          {Opcode: 21, Large: false},
	})
	resolver := &fakeResolver{}

	out, err := bytecode.WriteScript(bs, instrMap, resolver)
	require.NoError(t, err)

	var want []byte
	want = appendUint16String(want, "proc,hello")
	want = appendUint16(want, 2) // instruction count
	want = append(want, 3, 1)    // PUSH_INT_CONSTANT 1
	want = append(want, 21)      // RETURN
	want = append(want, 0, 0)    // int locals: variables, params
	want = append(want, 0, 0)    // string locals
	want = append(want, 0, 0)    // long locals
	want = appendUint16(want, 0) // switch table count

	assert.Equal(t, want, out)
}

// A branch target's offset is the target block's starting instruction
// index in the flattened, label-ordered stream (§4.7).
func TestWriteScriptResolvesBranchOffsets(t *testing.T) {
	bs := ir.NewBinaryScript("cs2", "proc,p")
	entry := bs.Blocks[0]
	next := bs.NewBlock()
	entry.Emit(ir.OpPushIntConstant, ir.IntOperand(0))
	entry.Emit(ir.OpBranch, ir.LabelOperand(next.Label))
	next.Emit(ir.OpReturn, ir.Operand{})

	instrMap := newInstrMap(map[ir.CoreOpcode]codegen.InstructionMapEntry{
		ir.OpPushIntConstant: {Opcode: 3, Large: false},
		ir.OpBranch:          {Opcode: 10, Large: false},
		ir.OpReturn:          {Opcode: 21, Large: false},
	})
	out, err := bytecode.WriteScript(bs, instrMap, &fakeResolver{})
	require.NoError(t, err)

	// header(2+6) + count(2) + [PUSH 3,0][BRANCH 10, target=2][RETURN 21]
	prefixLen := 2 + len("proc,p") + 2
	body := out[prefixLen : prefixLen+5]
	assert.Equal(t, []byte{3, 0, 10, 2, 21}, body)
}

// A GOSUB_WITH_PARAMS symbol-ref operand resolves through the resolver to
// the callee's numeric script id.
func TestWriteScriptResolvesGosubTarget(t *testing.T) {
	bs := ir.NewBinaryScript("cs2", "proc,caller")
	entry := bs.Blocks[0]
	entry.Emit(ir.OpGosubWithParams, ir.SymbolOperand("proc,callee"))
	entry.Emit(ir.OpReturn, ir.Operand{})

	instrMap := newInstrMap(map[ir.CoreOpcode]codegen.InstructionMapEntry{
		ir.OpGosubWithParams: {Opcode: 19, Large: true},
		ir.OpReturn:          {Opcode: 21, Large: false},
	})
	resolver := &fakeResolver{scripts: map[string]int{"proc,callee": 42}}

	out, err := bytecode.WriteScript(bs, instrMap, resolver)
	require.NoError(t, err)

	prefixLen := 2 + len("proc,caller") + 2
	body := out[prefixLen:]
	assert.Equal(t, uint16(19), binary.BigEndian.Uint16(body[0:2]))
	assert.Equal(t, int32(42), int32(binary.BigEndian.Uint32(body[2:6])))
}

// An unresolved gosub target is an internal invariant violation - codegen
// and the driver never reach this state for a non-erroneous unit, but the
// writer must still fail loudly rather than emit a garbage offset.
func TestWriteScriptFailsOnUnresolvedGosub(t *testing.T) {
	bs := ir.NewBinaryScript("cs2", "proc,caller")
	bs.Blocks[0].Emit(ir.OpGosubWithParams, ir.SymbolOperand("proc,missing"))
	instrMap := newInstrMap(map[ir.CoreOpcode]codegen.InstructionMapEntry{
		ir.OpGosubWithParams: {Opcode: 19, Large: true},
	})
	_, err := bytecode.WriteScript(bs, instrMap, &fakeResolver{})
	assert.Error(t, err)
}

// A COMMAND instruction's opcode comes from the resolver (the command
// catalog), not the instruction map; the alternative-call flag rides on
// the operand's Int field through to the writer.
func TestWriteScriptResolvesCommandOpcode(t *testing.T) {
	bs := ir.NewBinaryScript("cs2", "proc,p")
	bs.Blocks[0].Emit(ir.OpCommand, ir.SymbolOperand("send_message"))

	resolver := &fakeResolver{commands: map[string]struct {
		opcode int
		large  bool
	}{"send_message": {opcode: 300, large: true}}}

	out, err := bytecode.WriteScript(bs, codegen.NewInstructionMap(0), resolver)
	require.NoError(t, err)

	prefixLen := 2 + len("proc,p") + 2
	body := out[prefixLen:]
	assert.Equal(t, uint16(300), binary.BigEndian.Uint16(body[0:2]))
}

func appendUint16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendUint16String(b []byte, s string) []byte {
	b = appendUint16(b, uint16(len(s)))
	return append(b, s...)
}

// A basic property with no rule: its opcode byte followed directly by its
// typed payload.
func TestWriteConfigBasicProperty(t *testing.T) {
	bc := ir.NewBinaryConfig("npc", "goblin")
	bc.AddProperty(&ir.Property{Opcode: 1, Values: []ir.PropertyValue{ir.IntValue(5)}})

	out := bytecode.WriteConfig(bc)
	var want []byte
	want = append(want, 1)       // opcode
	want = append(want, 0, 0, 0, 5) // int32 big-endian payload
	want = append(want, 0)       // terminator
	assert.Equal(t, want, out)
}

// EMIT_EMPTY_IF_TRUE/FALSE writes the opcode byte alone, with no payload.
func TestWriteConfigEmptyProperty(t *testing.T) {
	bc := ir.NewBinaryConfig("npc", "goblin")
	bc.AddProperty(&ir.Property{Opcode: 9, Empty: true})

	out := bytecode.WriteConfig(bc)
	assert.Equal(t, []byte{9, 0}, out)
}

// An aggregate (parameter/map-shaped) property writes an entry count
// followed by key/value pairs, per §4.5/§6.6.
func TestWriteConfigAggregateProperty(t *testing.T) {
	bc := ir.NewBinaryConfig("npc", "goblin")
	agg := bc.FindOrCreateAggregate(2)
	agg.Entries = append(agg.Entries,
		ir.PropertyEntry{Key: ir.IntValue(0), Value: ir.IntValue(7)},
		ir.PropertyEntry{Key: ir.IntValue(1), Value: ir.StringValue("x")},
	)

	out := bytecode.WriteConfig(bc)
	var want []byte
	want = append(want, 2)          // opcode
	want = appendUint16(want, 2)    // entry count
	want = append(want, 0, 0, 0, 0) // key 0
	want = append(want, 0, 0, 0, 7) // value 7
	want = append(want, 0, 0, 0, 1) // key 1
	want = appendUint16String(want, "x")
	want = append(want, 0) // terminator
	assert.Equal(t, want, out)
}
