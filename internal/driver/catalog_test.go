package driver_test

import (
	"strconv"
	"testing"

	"github.com/iancoleman/strcase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescript/internal/driver"
	"corescript/internal/ir"
	"corescript/internal/symbol"
)

// LoadCatalogs wires every documented command field (§3/GLOSSARY's eight
// Command fields) through from YAML, including hook_transmit and tag.
func TestLoadCatalogsWiresAllCommandFields(t *testing.T) {
	doc := `
triggers:
  proc:
    sigil: "~"
    opcode: 1
    support_arguments: true
    support_returns: true
    argument_types: [int]
    return_types: [int]
commands:
  send_message:
    opcode: 5
    type: void
    arguments: [string]
    alternative: true
    hook: true
    hook_transmit: string
    tag: chat
`
	root := symbol.NewRoot()
	triggers, err := driver.LoadCatalogs([]byte(doc), root)
	require.NoError(t, err)

	trig, ok := triggers["proc"]
	require.True(t, ok)
	assert.Equal(t, "~", trig.Sigil)
	assert.Equal(t, 1, trig.Opcode)
	assert.True(t, trig.SupportArguments)
	assert.True(t, trig.SupportReturns)

	sym, ok := root.Lookup("send_message")
	require.True(t, ok)
	require.Equal(t, symbol.KindCommand, sym.Kind)
	cmd := sym.Command
	assert.Equal(t, 5, cmd.Opcode)
	assert.Equal(t, "void", cmd.ReturnType.Name)
	require.Len(t, cmd.ArgTypes, 1)
	assert.Equal(t, "string", cmd.ArgTypes[0].Name)
	assert.True(t, cmd.Alternative)
	assert.True(t, cmd.IsHook)
	assert.Equal(t, "string", cmd.HookTransmit.Name)
	assert.Equal(t, "chat", cmd.Tag)
}

func TestLoadCatalogsRejectsMalformedYAML(t *testing.T) {
	root := symbol.NewRoot()
	_, err := driver.LoadCatalogs([]byte("not: [valid"), root)
	assert.Error(t, err)
}

// LoadInstructionMap succeeds once every CoreOpcode the generator can
// emit has a bound entry (§6.3).
func TestLoadInstructionMapSucceedsWhenComplete(t *testing.T) {
	all := ir.AllCoreOpcodes()
	doc := "instructions:\n"
	for i, op := range all {
		doc += "  " + strcase.ToSnake(op.String()) + ":\n    opcode: " + strconv.Itoa(i+1) + "\n    large: false\n"
	}
	m, err := driver.LoadInstructionMap([]byte(doc))
	require.NoError(t, err)
	assert.True(t, m.Ready())
}

func TestLoadInstructionMapFailsWhenIncomplete(t *testing.T) {
	doc := `
instructions:
  return:
    opcode: 1
    large: false
`
	_, err := driver.LoadInstructionMap([]byte(doc))
	assert.Error(t, err)
}

func TestLoadInstructionMapRejectsUnknownOpcodeKey(t *testing.T) {
	doc := `
instructions:
  not_a_real_opcode:
    opcode: 1
    large: false
`
	_, err := driver.LoadInstructionMap([]byte(doc))
	assert.Error(t, err)
}
