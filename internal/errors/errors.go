// Package errors implements the diagnostic value type and the Rust-style
// colored renderer, grounded on the teacher's ErrorReporter/FormatError.
package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"corescript/internal/token"
)

// Kind is the phase a diagnostic originated from.
type Kind int

const (
	Lexical Kind = iota
	Syntactic
	Semantic
	Internal
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Syntactic:
		return "syntactic"
	case Semantic:
		return "semantic"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error codes, partitioned by phase (E0001-E0099 semantic, E0100-E0199
// syntactic, E0200-E0299 lexical, E0900-E0999 internal), mirroring the
// teacher's codes.go partitioning scheme.
const (
	ErrUnresolvedName          = "E0001"
	ErrTypeMismatch            = "E0002"
	ErrArityMismatch           = "E0003"
	ErrDuplicateDeclaration    = "E0004"
	ErrRuleViolation           = "E0005"
	ErrMalformedBindingRef     = "E0006"
	ErrTupleShapeMismatch      = "E0007"

	ErrUnexpectedToken = "E0100"
	ErrExpectedKind    = "E0101"

	ErrUnterminatedString = "E0200"
	ErrBadEscape          = "E0201"
	ErrNumericOverflow    = "E0202"
	ErrUnknownCharacter   = "E0203"

	ErrUnreachableOpcode   = "E0900"
	ErrMissingBinding      = "E0901"
)

// Diagnostic is the user-visible shape of every collected error:
// {kind, range, message, file}.
type Diagnostic struct {
	Kind    Kind
	Code    string
	Range   token.Range
	Message string
	File    string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Range.Start, d.Message)
}

// Reporter renders diagnostics against a file's source, Rust-compiler
// style, with a location line and a caret-underlined excerpt.
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter builds a Reporter for filename/source.
func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Render formats a single diagnostic.
func (r *Reporter) Render(d Diagnostic) string {
	var b strings.Builder
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if d.Code != "" {
		b.WriteString(fmt.Sprintf("%s[%s]: %s\n", red("error"), d.Code, d.Message))
	} else {
		b.WriteString(fmt.Sprintf("%s: %s\n", red("error"), d.Message))
	}

	lineNoWidth := len(fmt.Sprintf("%d", d.Range.Start.Line))
	if lineNoWidth < 3 {
		lineNoWidth = 3
	}
	indent := strings.Repeat(" ", lineNoWidth)
	b.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("-->"), d.Range.Start))
	b.WriteString(fmt.Sprintf("%s %s\n", indent, dim("|")))

	lineIdx := d.Range.Start.Line - 1
	if lineIdx >= 0 && lineIdx < len(r.lines) {
		content := r.lines[lineIdx]
		b.WriteString(fmt.Sprintf("%*d %s %s\n", lineNoWidth, d.Range.Start.Line, dim("|"), content))
		length := d.Range.End.Offset - d.Range.Start.Offset
		if length < 1 {
			length = 1
		}
		marker := strings.Repeat(" ", max(0, d.Range.Start.Column-1)) + strings.Repeat("^", length)
		b.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("|"), bold(marker)))
	}
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Collector buffers diagnostics for one file. The driver keeps a single
// Collector per file for the parse, pre-pass and main pass and does not
// clear it between them; Clear empties it.
type Collector struct {
	file  string
	diags []Diagnostic
}

func NewCollector(file string) *Collector { return &Collector{file: file} }

func (c *Collector) Add(kind Kind, code string, rng token.Range, format string, args ...any) {
	c.diags = append(c.diags, Diagnostic{
		Kind: kind, Code: code, Range: rng,
		Message: fmt.Sprintf(format, args...), File: c.file,
	})
}

func (c *Collector) Diagnostics() []Diagnostic { return c.diags }
func (c *Collector) HasErrors() bool           { return len(c.diags) > 0 }
func (c *Collector) Clear()                    { c.diags = nil }
