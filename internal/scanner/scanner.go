// Package scanner implements the streaming tokenizer and the look-ahead
// lexer built on top of it, shared by both dialects and driven by a
// lexicon.Table.
package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"corescript/internal/lexicon"
	"corescript/internal/token"
)

// Error is a recoverable lexical diagnostic: unterminated string, bad
// escape, numeric overflow, unknown character. The tokenizer always
// continues after reporting one, yielding a synthetic token.
type Error struct {
	Message string
	Range   token.Range
}

// Tokenizer is a streaming scanner over a buffered character source,
// tracking (line, column, offset) as it goes. It has no look-ahead of its
// own; Lexer provides that.
type Tokenizer struct {
	filename      string
	src           string
	start         int
	current       int
	line, col     int
	startLine     int
	startCol      int
	keepComments  bool
	table         *lexicon.Table
	coordSigil    byte
	errs          []Error
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// KeepComments preserves comment tokens instead of discarding them.
func KeepComments() Option {
	return func(t *Tokenizer) { t.keepComments = true }
}

// CoordSigil sets the character that prefixes a coordinate-grid literal
// (dialect-specific; 0 disables coordinate-grid literals).
func CoordSigil(sigil byte) Option {
	return func(t *Tokenizer) { t.coordSigil = sigil }
}

// New builds a Tokenizer over source for filename, driven by table.
func New(filename, src string, table *lexicon.Table, opts ...Option) *Tokenizer {
	t := &Tokenizer{
		filename: filename,
		src:      src,
		line:     1,
		col:      1,
		table:    table,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Errors returns every lexical diagnostic collected so far.
func (t *Tokenizer) Errors() []Error { return t.errs }

// Next scans and returns the next token, skipping whitespace and (unless
// KeepComments is set) comments. At end of input it returns an EOF token
// forever.
func (t *Tokenizer) Next() token.Token {
	for {
		t.skipWhitespace()
		if t.atEnd() {
			return t.make(token.EOF, "")
		}
		t.start = t.current
		t.startLine, t.startCol = t.line, t.col

		c := t.peekByte()
		switch {
		case c == '/' && t.peekAt(1) == '/':
			tok, ok := t.scanLineComment()
			if ok {
				return tok
			}
			continue
		case c == '/' && t.peekAt(1) == '*':
			tok, ok := t.scanBlockComment()
			if ok {
				return tok
			}
			continue
		case c == '"':
			return t.scanString()
		case c == t.coordSigil && t.coordSigil != 0:
			return t.scanCoordGrid()
		case isDigit(c):
			return t.scanNumber()
		case isIdentStart(rune(c)):
			return t.scanIdentifier()
		}

		if kind, ok := t.table.LookupSeparator(c); ok {
			t.advance()
			return t.make(kind, string(c))
		}
		if kind, lexeme, ok := t.table.MatchOperator(t.src[t.current:]); ok {
			for range lexeme {
				t.advance()
			}
			return t.make(kind, lexeme)
		}

		t.advance()
		t.errorf("unknown character %q", c)
		return t.make(token.Illegal, string(c))
	}
}

func (t *Tokenizer) skipWhitespace() {
	for !t.atEnd() {
		switch t.peekByte() {
		case ' ', '\t', '\r':
			t.advance()
		case '\n':
			t.advance()
		default:
			return
		}
	}
}

func (t *Tokenizer) scanLineComment() (token.Token, bool) {
	t.advance()
	t.advance()
	for !t.atEnd() && t.peekByte() != '\n' {
		t.advance()
	}
	if !t.keepComments {
		return token.Token{}, false
	}
	return t.make(token.Comment, t.src[t.start:t.current]), true
}

func (t *Tokenizer) scanBlockComment() (token.Token, bool) {
	t.advance()
	t.advance()
	for !t.atEnd() {
		if t.peekByte() == '*' && t.peekAt(1) == '/' {
			t.advance()
			t.advance()
			break
		}
		t.advance()
	}
	if !t.keepComments {
		return token.Token{}, false
	}
	return t.make(token.Comment, t.src[t.start:t.current]), true
}

func (t *Tokenizer) scanString() token.Token {
	t.advance() // opening quote
	var decoded strings.Builder
	for {
		if t.atEnd() {
			t.errorf("unterminated string literal")
			return t.make(token.StringLiteral, decoded.String())
		}
		c := t.peekByte()
		if c == '"' {
			t.advance()
			break
		}
		if c == '\n' {
			t.errorf("unterminated string literal")
			break
		}
		if c == '\\' {
			t.advance()
			decoded.WriteByte(t.scanEscape())
			continue
		}
		decoded.WriteByte(c)
		t.advance()
	}
	return t.make(token.StringLiteral, decoded.String())
}

func (t *Tokenizer) scanEscape() byte {
	if t.atEnd() {
		t.errorf("unterminated escape sequence")
		return '\\'
	}
	c := t.peekByte()
	t.advance()
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case '"':
		return '"'
	case '\\':
		return '\\'
	case '<':
		return '<'
	case '>':
		return '>'
	default:
		t.errorf("unknown escape sequence '\\%c'", c)
		return c
	}
}

func (t *Tokenizer) scanNumber() token.Token {
	isHex := false
	if t.peekByte() == '0' && (t.peekAt(1) == 'x' || t.peekAt(1) == 'X') {
		isHex = true
		t.advance()
		t.advance()
		for !t.atEnd() && isHexDigit(t.peekByte()) {
			t.advance()
		}
	} else {
		for !t.atEnd() && isDigit(t.peekByte()) {
			t.advance()
		}
	}

	isLong := false
	if !t.atEnd() && (t.peekByte() == 'L' || t.peekByte() == 'l') {
		isLong = true
		t.advance()
	}

	text := t.src[t.start:t.current]
	digits := text
	if isLong {
		digits = digits[:len(digits)-1]
	}
	base := 10
	if isHex {
		digits = digits[2:]
		base = 16
	}

	if isLong {
		if _, err := strconv.ParseInt(digits, base, 64); err != nil {
			t.errorf("long literal %s overflows 64 bits", text)
		}
		return t.make(token.LongLiteral, text)
	}
	if _, err := strconv.ParseInt(digits, base, 32); err != nil {
		t.errorf("integer literal %s overflows 32 bits", text)
	}
	return t.make(token.IntLiteral, text)
}

// scanCoordGrid parses a comma-or-underscore-separated tuple of integers
// prefixed by the dialect's coordinate sigil, e.g. "#3_50_50_0".
func (t *Tokenizer) scanCoordGrid() token.Token {
	t.advance() // sigil
	for !t.atEnd() && (isDigit(t.peekByte()) || t.peekByte() == '_' || t.peekByte() == ',') {
		t.advance()
	}
	return t.make(token.CoordGridLiteral, t.src[t.start:t.current])
}

func (t *Tokenizer) scanIdentifier() token.Token {
	for !t.atEnd() && isIdentPart(rune(t.peekByte())) {
		t.advance()
	}
	text := t.src[t.start:t.current]
	if kind, ok := t.table.LookupKeyword(text); ok {
		return t.make(kind, text)
	}
	switch text {
	case "true", "false":
		return t.make(token.BoolLiteral, text)
	}
	return t.make(token.Identifier, text)
}

func (t *Tokenizer) make(kind token.Kind, lexeme string) token.Token {
	return token.Token{
		Kind:   kind,
		Lexeme: lexeme,
		Range: token.Range{
			Start: token.Pos{Filename: t.filename, Line: t.startLine, Column: t.startCol, Offset: t.start},
			End:   token.Pos{Filename: t.filename, Line: t.line, Column: t.col, Offset: t.current},
		},
	}
}

func (t *Tokenizer) errorf(format string, args ...any) {
	t.errs = append(t.errs, Error{
		Message: sprintf(format, args...),
		Range: token.Range{
			Start: token.Pos{Filename: t.filename, Line: t.startLine, Column: t.startCol, Offset: t.start},
			End:   token.Pos{Filename: t.filename, Line: t.line, Column: t.col, Offset: t.current},
		},
	})
}

func (t *Tokenizer) atEnd() bool { return t.current >= len(t.src) }

func (t *Tokenizer) peekByte() byte {
	if t.atEnd() {
		return 0
	}
	return t.src[t.current]
}

func (t *Tokenizer) peekAt(offset int) byte {
	idx := t.current + offset
	if idx >= len(t.src) {
		return 0
	}
	return t.src[idx]
}

func (t *Tokenizer) advance() {
	if t.atEnd() {
		return
	}
	if t.src[t.current] == '\n' {
		t.line++
		t.col = 1
	} else {
		t.col++
	}
	t.current++
}

func isDigit(c byte) bool     { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool  { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isIdentStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isIdentPart(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
