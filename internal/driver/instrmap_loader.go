package driver

import (
	"fmt"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"corescript/internal/codegen"
	"corescript/internal/ir"
)

// instructionMapDocument is the YAML shape of an instruction map document:
// one entry per opcode key (snake_case of the CoreOpcode name), carrying
// its concrete opcode number and whether it uses the wide encoding.
type instructionMapDocument struct {
	Instructions map[string]instructionMapEntryDoc `yaml:"instructions"`
}

type instructionMapEntryDoc struct {
	Opcode int  `yaml:"opcode"`
	Large  bool `yaml:"large"`
}

// coreOpcodeNames maps the snake_case YAML key for each CoreOpcode back to
// its value, built once from ir.AllCoreOpcodes via strcase so the YAML
// document never needs a hand-maintained string table.
func coreOpcodeNames() map[string]ir.CoreOpcode {
	out := make(map[string]ir.CoreOpcode)
	for _, op := range ir.AllCoreOpcodes() {
		out[strcase.ToSnake(op.String())] = op
	}
	return out
}

// LoadInstructionMap parses a YAML instruction map document into a
// codegen.InstructionMap (§6.3). An unknown key or a document missing an
// entry for some CoreOpcode is an Internal error (wrapped via
// github.com/pkg/errors), since the map not being Ready is a hard
// precondition failure, not a collectable diagnostic.
func LoadInstructionMap(data []byte) (*codegen.InstructionMap, error) {
	var doc instructionMapDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing instruction map document")
	}

	names := coreOpcodeNames()
	all := ir.AllCoreOpcodes()
	m := codegen.NewInstructionMap(len(all))

	for key, entry := range doc.Instructions {
		op, ok := names[key]
		if !ok {
			return nil, errors.Errorf("instruction map: unknown opcode key %q", key)
		}
		m.Set(op, codegen.InstructionMapEntry{Opcode: entry.Opcode, Large: entry.Large})
	}

	if !m.Ready() {
		missing := m.Missing(all)
		names := make([]string, len(missing))
		for i, op := range missing {
			names[i] = op.String()
		}
		return nil, errors.Errorf("instruction map is missing entries for: %v", fmt.Sprint(names))
	}
	return m, nil
}
