package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"corescript/internal/binding"
	"corescript/internal/codegen"
	"corescript/internal/driver"
	"corescript/internal/errors"
	"corescript/internal/ir"
	"corescript/internal/types"
)

// fullInstructionMap binds every CoreOpcode to a distinct, narrow opcode
// number so EnableCodeGeneration's readiness check succeeds; the exact
// numbers don't matter to these tests, only that every script's
// instructions resolve to something.
func fullInstructionMap() *codegen.InstructionMap {
	all := ir.AllCoreOpcodes()
	m := codegen.NewInstructionMap(len(all))
	for i, op := range all {
		m.Set(op, codegen.InstructionMapEntry{Opcode: i + 1, Large: false})
	}
	return m
}

func newTestDriver(t *testing.T) *driver.Driver {
	t.Helper()
	d := driver.New(driver.NewDefaultIdProvider(), "cs2")
	require.NoError(t, d.EnableCodeGeneration(fullInstructionMap()))
	return d
}

func sourceFile(name, ext, src string) driver.SourceFile {
	return driver.SourceFile{Path: name, Extension: ext, Bytes: []byte(src)}
}

// Hello-world scenario (spec §8): a single script compiles, generates ids,
// and produces non-empty bytecode.
func TestCompileHelloWorldEndToEnd(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Compile(driver.Input{
		SourceFiles: []driver.SourceFile{
			sourceFile("hello.cs2", "cs2", `
				[proc,hello](int $x)(int) {
					if ($x == 1) {
						return(1);
					}
					return(0);
				}
			`),
		},
		RunIdGeneration:   true,
		RunCodeGeneration: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.BatchID)

	cf := out.CompiledFiles["hello.cs2"]
	require.NotNil(t, cf)
	assert.False(t, cf.Erroneous)
	assert.Empty(t, cf.Errors)
	require.Len(t, cf.Units, 1)
	assert.Equal(t, "proc,hello", cf.Units[0].Name)
	assert.NotEmpty(t, cf.Units[0].ScriptBytes)
}

func TestCompileDuplicateScriptDeclarationIsErroneous(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Compile(driver.Input{
		SourceFiles: []driver.SourceFile{
			sourceFile("dup.cs2", "cs2", `
				[proc,dup]() { }
				[proc,dup]() { }
			`),
		},
	})
	require.NoError(t, err)
	cf := out.CompiledFiles["dup.cs2"]
	require.NotNil(t, cf)
	assert.True(t, cf.Erroneous)
	require.Len(t, cf.Errors, 1)
	assert.Equal(t, errors.ErrDuplicateDeclaration, cf.Errors[0].Code)
}

// A script calling a sibling declared in a later file of the same batch must resolve,
// since DeclareScripts runs for every file before CheckScripts runs for
// any of them (spec §4.3 pre-pass, batch-wide).
func TestCompileForwardReferenceAcrossFiles(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Compile(driver.Input{
		SourceFiles: []driver.SourceFile{
			sourceFile("a.cs2", "cs2", `
				[proc,first](int $x)(int) {
					return(~second(1));
				}
			`),
			sourceFile("b.cs2", "cs2", `
				[proc,second](int $y)(int) {
					return(1);
				}
			`),
		},
		RunCodeGeneration: true,
	})
	require.NoError(t, err)
	assert.False(t, out.CompiledFiles["a.cs2"].Erroneous)
	assert.False(t, out.CompiledFiles["b.cs2"].Erroneous)
}

// A config file whose extension has no registered binding is reported as
// erroneous with a single missing-binding diagnostic.
func TestCompileConfigMissingBinding(t *testing.T) {
	d := newTestDriver(t)
	out, err := d.Compile(driver.Input{
		SourceFiles: []driver.SourceFile{
			sourceFile("npc.cfg", "cfg", "[goblin]\nname = \"Goblin\"\n"),
		},
	})
	require.NoError(t, err)
	cf := out.CompiledFiles["npc.cfg"]
	require.NotNil(t, cf)
	assert.True(t, cf.Erroneous)
	require.Len(t, cf.Errors, 1)
	assert.Equal(t, errors.ErrMissingBinding, cf.Errors[0].Code)
}

// Config-basic-with-rule scenario (spec §8): a registered binding lets a
// config compile and generate bytecode end to end.
func TestCompileConfigBasicWithRule(t *testing.T) {
	d := newTestDriver(t)
	b := binding.New("cfg", "npc")
	b.Add(&binding.Descriptor{
		Key:        "hitpoints",
		Kind:       binding.KindBasic,
		Opcode:     1,
		Components: []types.StackType{types.StackInt},
		Rules:      []binding.Rule{binding.Range(1, 255)},
	})
	require.NoError(t, d.RegisterBinding(b))

	out, err := d.Compile(driver.Input{
		SourceFiles: []driver.SourceFile{
			sourceFile("npc.cfg", "cfg", "[goblin]\nhitpoints = 5\n"),
		},
		RunIdGeneration:   true,
		RunCodeGeneration: true,
	})
	require.NoError(t, err)
	cf := out.CompiledFiles["npc.cfg"]
	require.NotNil(t, cf)
	assert.False(t, cf.Erroneous)
	require.Len(t, cf.Units, 1)
	assert.Equal(t, "goblin", cf.Units[0].Name)
	assert.NotEmpty(t, cf.Units[0].ConfigBytes)
}

// Registering the same extension twice is a hard failure (spec §6.1).
func TestRegisterBindingRejectsDuplicateExtension(t *testing.T) {
	d := newTestDriver(t)
	require.NoError(t, d.RegisterBinding(binding.New("cfg", "npc")))
	err := d.RegisterBinding(binding.New("cfg", "obj"))
	require.Error(t, err)
	var dup *binding.ErrDuplicateExtension
	assert.ErrorAs(t, err, &dup)
}

// Code generation refuses to run until EnableCodeGeneration has succeeded.
func TestCompileRefusesCodeGenerationBeforeEnabled(t *testing.T) {
	d := driver.New(driver.NewDefaultIdProvider(), "cs2")
	_, err := d.Compile(driver.Input{
		SourceFiles:       []driver.SourceFile{sourceFile("a.cs2", "cs2", "[proc,p]() { }")},
		RunCodeGeneration: true,
	})
	assert.Error(t, err)
}

func TestEnableCodeGenerationFailsOnIncompleteMap(t *testing.T) {
	d := driver.New(driver.NewDefaultIdProvider(), "cs2")
	partial := codegen.NewInstructionMap(len(ir.AllCoreOpcodes()))
	partial.Set(ir.OpReturn, codegen.InstructionMapEntry{Opcode: 1})
	err := d.EnableCodeGeneration(partial)
	assert.Error(t, err)
}
