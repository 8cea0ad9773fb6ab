// Command corescriptc compiles scripting- and configuration-dialect
// source files through the core driver and reports diagnostics, grounded
// on the teacher's cmd/kanso-cli entry point.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"corescript/internal/driver"
	"corescript/internal/errors"
)

func main() {
	scriptExt := flag.String("script-ext", "cs2", "extension identifying script-dialect files (without the dot)")
	instrMapPath := flag.String("instructions", "", "path to the instruction map YAML document; enables code generation when set")
	catalogPath := flag.String("catalog", "", "path to the trigger/command catalog YAML document")
	genIDs := flag.Bool("ids", true, "run id generation")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Println("usage: corescriptc [flags] file...")
		os.Exit(1)
	}

	start := time.Now()

	d := driver.New(driver.NewDefaultIdProvider(), *scriptExt)

	if *catalogPath != "" {
		data, err := os.ReadFile(*catalogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read catalog: %v\n", err)
			os.Exit(1)
		}
		if _, err := driver.LoadCatalogs(data, d.Root()); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load catalog: %v\n", err)
			os.Exit(1)
		}
	}

	codeGenEnabled := false
	if *instrMapPath != "" {
		data, err := os.ReadFile(*instrMapPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read instruction map: %v\n", err)
			os.Exit(1)
		}
		instrMap, err := driver.LoadInstructionMap(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load instruction map: %v\n", err)
			os.Exit(1)
		}
		if err := d.EnableCodeGeneration(instrMap); err != nil {
			fmt.Fprintf(os.Stderr, "instruction map not ready: %v\n", err)
			os.Exit(1)
		}
		codeGenEnabled = true
	}

	// Config-dialect bindings are schema-specific (per §3's Binding
	// shape); a host embedding this core registers them via
	// driver.RegisterBinding before compiling. This CLI compiles whatever
	// extensions it's given - a config file with no registered binding
	// surfaces as the usual ErrMissingBinding diagnostic rather than a
	// flag-driven guess at its schema.

	sources := make(map[string]string, len(args))
	var input driver.Input
	input.RunIdGeneration = *genIDs
	input.RunCodeGeneration = codeGenEnabled

	for _, path := range args {
		bytes, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		sources[path] = string(bytes)
		ext := strings.TrimPrefix(filepath.Ext(path), ".")
		input.SourceFiles = append(input.SourceFiles, driver.SourceFile{Path: path, Extension: ext, Bytes: bytes})
	}

	out, err := d.Compile(input)
	if err != nil {
		color.Red("compilation aborted: %v", err)
		os.Exit(1)
	}

	hasErrors := false
	for _, path := range args {
		cf := out.CompiledFiles[path]
		if cf == nil || !cf.Erroneous {
			continue
		}
		hasErrors = true
		reporter := errors.NewReporter(path, sources[path])
		for _, diag := range cf.Errors {
			fmt.Print(reporter.Render(diag))
		}
	}

	elapsed := formatDuration(time.Since(start))
	if hasErrors {
		color.Red("compilation failed after %s", elapsed)
		os.Exit(1)
	}
	color.Green("compiled %d file(s) in %s (batch %s)", len(args), elapsed, out.BatchID)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.1fms", float64(d.Nanoseconds())/1e6)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
