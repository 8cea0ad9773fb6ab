package driver

import (
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"corescript/internal/ast"
	"corescript/internal/semantic"
	"corescript/internal/symbol"
)

// Trigger is a script invocation context, per §6.4 and the GLOSSARY: a
// name, optional sigil, its own opcode, whether it supports
// arguments/returns, and the argument/return types it carries when it
// does.
type Trigger struct {
	Name              string
	Sigil             string
	Opcode            int
	SupportArguments  bool
	SupportReturns    bool
	ArgumentTypes     []string
	ReturnTypes       []string
}

type catalogDocument struct {
	Triggers map[string]triggerDoc `yaml:"triggers"`
	Commands map[string]commandDoc `yaml:"commands"`
}

type triggerDoc struct {
	Sigil            string   `yaml:"sigil"`
	Opcode           int      `yaml:"opcode"`
	SupportArguments bool     `yaml:"support_arguments"`
	SupportReturns   bool     `yaml:"support_returns"`
	ArgumentTypes    []string `yaml:"argument_types"`
	ReturnTypes      []string `yaml:"return_types"`
}

type commandDoc struct {
	Opcode       int      `yaml:"opcode"`
	Type         string   `yaml:"type"`
	Arguments    []string `yaml:"arguments"`
	Alternative  bool     `yaml:"alternative"`
	Hook         bool     `yaml:"hook"`
	HookTransmit string   `yaml:"hook_transmit"`
	Tag          string   `yaml:"tag"`
}

// LoadCatalogs parses a YAML document of triggers and commands (§6.4),
// returning the trigger catalog and registering every command as a symbol
// in root. A malformed document is an Internal error.
func LoadCatalogs(data []byte, root *symbol.Table) (map[string]Trigger, error) {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing trigger/command catalog")
	}

	triggers := make(map[string]Trigger, len(doc.Triggers))
	for name, t := range doc.Triggers {
		triggers[name] = Trigger{
			Name: name, Sigil: t.Sigil, Opcode: t.Opcode,
			SupportArguments: t.SupportArguments, SupportReturns: t.SupportReturns,
			ArgumentTypes: t.ArgumentTypes, ReturnTypes: t.ReturnTypes,
		}
	}

	for name, c := range doc.Commands {
		cmd := &symbol.Command{
			Opcode:       c.Opcode,
			Name:         name,
			ReturnType:   ast.TypeName{Name: c.Type},
			ArgTypes:     typeNames(c.Arguments),
			Alternative:  c.Alternative,
			IsHook:       c.Hook,
			HookTransmit: ast.TypeName{Name: c.HookTransmit},
			Tag:          c.Tag,
		}
		if err := semantic.DeclareCommand(root, cmd); err != nil {
			return nil, errors.Wrapf(err, "registering command %q", name)
		}
	}
	return triggers, nil
}

func typeNames(names []string) []ast.TypeName {
	out := make([]ast.TypeName, len(names))
	for i, n := range names {
		out[i] = ast.TypeName{Name: n}
	}
	return out
}
