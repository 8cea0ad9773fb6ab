// Package driver wires every other package into the batch compilation
// sequence described in §4.8: parse, declare, check, generate, optimize,
// write. It owns the collaborators that persist across batches (the root
// symbol table, the type registry, the binding registry, the instruction
// map, the id provider) and builds a fresh child symbol table per batch so
// a failed batch never corrupts driver state.
package driver

import (
	"sort"

	pkgerrors "github.com/pkg/errors"
	"github.com/segmentio/ksuid"

	"corescript/internal/ast"
	"corescript/internal/binding"
	"corescript/internal/bytecode"
	"corescript/internal/codegen"
	"corescript/internal/errors"
	"corescript/internal/ir"
	"corescript/internal/optimize"
	"corescript/internal/parser"
	"corescript/internal/scanner"
	"corescript/internal/semantic"
	"corescript/internal/symbol"
	"corescript/internal/types"
)

// SourceFile is one ingested file: its path, dialect extension, and raw
// bytes.
type SourceFile struct {
	Path      string
	Extension string
	Bytes     []byte
}

// Input is one batch's worth of work, per §4.8.
type Input struct {
	SourceFiles       []SourceFile
	RunIdGeneration   bool
	RunCodeGeneration bool
}

// Unit is one compiled artifact: a script or a config, never both. Script
// is set (with ScriptBytes populated when code generation ran) for a
// script-dialect unit; Config likewise for a config-dialect unit.
type Unit struct {
	Name         string
	Script       *ir.BinaryScript
	ScriptBytes  []byte
	Config       *ir.BinaryConfig
	ConfigBytes  []byte
}

// CompiledFile is the per-source-file result, per §4.8's Output shape.
type CompiledFile struct {
	Units     []Unit
	Errors    []errors.Diagnostic
	Erroneous bool
	Extension string
}

// Output is the batch result: one CompiledFile per input source file, plus
// the batch correlation id stamped on it.
type Output struct {
	BatchID       string
	CompiledFiles map[string]*CompiledFile
}

// Driver bundles the collaborators that persist across batches.
type Driver struct {
	root      *symbol.Table
	types     *types.Registry
	bindings  *binding.Registry
	ids       IdProvider
	instrMap  *codegen.InstructionMap
	codeGenOK bool

	// scriptExtension is the extension that selects the script dialect's
	// scanner/parser; every other registered extension is a config
	// dialect governed by its binding.
	scriptExtension string
}

// New builds a Driver over a fresh root symbol table and type registry,
// with ids as the id-generation collaborator (§6.2). Pass scriptExtension
// as the extension identifying script-dialect source files; every other
// extension is resolved against RegisterBinding for the config dialect.
func New(ids IdProvider, scriptExtension string) *Driver {
	return &Driver{
		root:            symbol.NewRoot(),
		types:           types.NewRegistry(),
		bindings:        binding.NewRegistry(),
		ids:             ids,
		scriptExtension: scriptExtension,
	}
}

// Root exposes the persistent root symbol table so a host can seed it with
// DeclareConstant/DeclareCommand calls (e.g. from a loaded catalog) before
// the first batch.
func (d *Driver) Root() *symbol.Table { return d.root }

// Types exposes the shared type registry.
func (d *Driver) Types() *types.Registry { return d.types }

// RegisterBinding registers a config dialect's property schema for an
// extension (§6.1). A duplicate extension is a hard failure, since it
// would make config dispatch ambiguous.
func (d *Driver) RegisterBinding(b *binding.Binding) error {
	return d.bindings.Register(b)
}

// EnableCodeGeneration installs the instruction map and checks readiness
// eagerly, at construction time rather than lazily per batch (the
// supplemental "fail fast on misconfiguration" behavior carried from the
// original compiler's precondition check). Code generation is refused
// until this succeeds.
func (d *Driver) EnableCodeGeneration(instrMap *codegen.InstructionMap) error {
	if !instrMap.Ready() {
		missing := instrMap.Missing(ir.AllCoreOpcodes())
		return pkgerrors.Errorf("instruction map is not ready: %s", namesOf(missing))
	}
	d.instrMap = instrMap
	d.codeGenOK = true
	return nil
}

func namesOf(ops []ir.CoreOpcode) string {
	s := ""
	for i, op := range ops {
		if i > 0 {
			s += ", "
		}
		s += op.String()
	}
	return s
}

// parsedFile holds one file's parse result, pending semantic analysis.
type parsedFile struct {
	path      string
	extension string
	isScript  bool
	script    *ast.File
	config    *ast.ConfigFile
	binding   *binding.Binding
}

// Compile runs one batch: tokenize/parse, pre-pass, main pass, optional id
// generation, optional code generation, per §4.8's six-step sequence.
func (d *Driver) Compile(in Input) (*Output, error) {
	batchID := ksuid.New().String()
	ctx := semantic.NewContext(d.root, d.types, d.bindings, false)
	checker := semantic.NewChecker(ctx)

	collectors := make(map[string]*errors.Collector)
	parsed := make([]parsedFile, 0, len(in.SourceFiles))

	// Step 1/2: parse every file in input order, collecting diagnostics.
	for _, sf := range in.SourceFiles {
		col := collectorFor(collectors, sf.Path)
		src := string(sf.Bytes)

		if sf.Extension == d.scriptExtension {
			file, parseErrs, lexErrs := parser.ParseScript(sf.Path, src)
			addLexErrors(col, lexErrs)
			addParseErrors(col, parseErrs)
			parsed = append(parsed, parsedFile{path: sf.Path, extension: sf.Extension, isScript: true, script: file})
			continue
		}

		b, _ := d.bindings.Lookup(sf.Extension)
		file, parseErrs, lexErrs := parser.ParseConfig(sf.Path, src)
		addLexErrors(col, lexErrs)
		addParseErrors(col, parseErrs)
		parsed = append(parsed, parsedFile{path: sf.Path, extension: sf.Extension, isScript: false, config: file, binding: b})
	}

	// Step 3: pre-pass over every file, then the main pass.
	for _, pf := range parsed {
		if pf.isScript {
			checker.DeclareScripts(pf.path, pf.script, collectors)
		} else {
			checker.DeclareConfigs(pf.path, pf.config, pf.binding, collectors)
		}
	}
	for _, pf := range parsed {
		if pf.isScript {
			checker.CheckScripts(pf.path, pf.script, collectors)
		} else {
			checker.CheckConfigs(pf.path, pf.config, pf.binding, collectors)
		}
	}

	out := &Output{BatchID: batchID, CompiledFiles: make(map[string]*CompiledFile, len(parsed))}
	for _, pf := range parsed {
		col := collectorFor(collectors, pf.path)
		out.CompiledFiles[pf.path] = &CompiledFile{
			Errors:    col.Diagnostics(),
			Erroneous: col.HasErrors(),
			Extension: pf.extension,
		}
	}

	// Step 4: id generation, including erroneous units - they may still be
	// referenced by name from non-erroneous ones.
	if in.RunIdGeneration {
		syms := ctx.Symbols.All()
		sort.Slice(syms, func(i, j int) bool { return syms[i].Name() < syms[j].Name() })
		for _, sym := range syms {
			switch sym.Kind {
			case symbol.KindScript:
				if sym.Script.PredefinedID == nil {
					d.ids.FindOrCreateConfig("script", sym.Script.FullName())
				}
			case symbol.KindConfigEntry:
				id := d.ids.FindOrCreateConfig(sym.ConfigEntry.GroupType, sym.ConfigEntry.Name)
				sym.ConfigEntry.ID = id
				sym.ConfigEntry.HasID = true
			}
		}
	}

	// Step 5: code generation for non-erroneous units only.
	if in.RunCodeGeneration {
		if !d.codeGenOK {
			return nil, pkgerrors.New("code generation requested before EnableCodeGeneration succeeded")
		}
		resolver := &scriptResolver{symbols: ctx.Symbols, ids: d.ids}
		idAdapter := idProviderAdapter{ids: d.ids}
		scriptGen := codegen.NewScriptGenerator(ctx.Symbols, d.types)
		configGen := codegen.NewConfigGenerator(ctx.Symbols, idAdapter, d.types)
		pipeline := optimize.NewPipeline()

		for _, pf := range parsed {
			cf := out.CompiledFiles[pf.path]
			if cf.Erroneous {
				continue
			}
			if pf.isScript {
				for _, s := range pf.script.Scripts {
					bs, err := scriptGen.Generate(s, pf.extension)
					if err != nil {
						return nil, pkgerrors.Wrap(err, "generating script "+s.FullName())
					}
					pipeline.Run(bs)
					bytes, err := bytecode.WriteScript(bs, d.instrMap, resolver)
					if err != nil {
						return nil, pkgerrors.Wrap(err, "writing script "+s.FullName())
					}
					cf.Units = append(cf.Units, Unit{Name: s.FullName(), Script: bs, ScriptBytes: bytes})
				}
			} else {
				for _, c := range pf.config.Configs {
					bc, err := configGen.Generate(c, pf.binding)
					if err != nil {
						return nil, pkgerrors.Wrap(err, "generating config "+c.Name.Name)
					}
					cf.Units = append(cf.Units, Unit{Name: c.Name.Name, Config: bc, ConfigBytes: bytecode.WriteConfig(bc)})
				}
			}
		}
	}

	return out, nil
}

// collectorFor returns (creating if necessary) the diagnostic collector for
// file. A local duplicate of semantic's unexported helper of the same
// name, since the two packages don't share one.
func collectorFor(collectors map[string]*errors.Collector, file string) *errors.Collector {
	c, ok := collectors[file]
	if !ok {
		c = errors.NewCollector(file)
		collectors[file] = c
	}
	return c
}

func addLexErrors(col *errors.Collector, errs []scanner.Error) {
	for _, e := range errs {
		col.Add(errors.Lexical, "", e.Range, "%s", e.Message)
	}
}

func addParseErrors(col *errors.Collector, errs []parser.Error) {
	for _, e := range errs {
		col.Add(errors.Syntactic, "", e.Range, "%s", e.Message)
	}
}
