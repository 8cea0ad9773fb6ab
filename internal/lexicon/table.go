// Package lexicon builds the configurable lexical tables the tokenizer
// consults: keyword spellings, single-character separators, and
// multi-character operators. One table is built per dialect at driver
// construction and is immutable afterward.
package lexicon

import "corescript/internal/token"

// Table is a dialect's lexical symbol table. Keyword lookup takes priority
// over treating a matching spelling as a plain identifier.
type Table struct {
	keywords  map[string]token.Kind
	operators map[string]token.Kind
	separator map[byte]token.Kind
}

// New builds an empty table; use the Keyword, Separator and Operator
// methods to populate it.
func New() *Table {
	return &Table{
		keywords:  make(map[string]token.Kind),
		operators: make(map[string]token.Kind),
		separator: make(map[byte]token.Kind),
	}
}

// Keyword registers a reserved word. A keyword and an identifier with the
// same spelling may not both match - registering a keyword here is what
// makes that spelling always resolve to the keyword kind.
func (t *Table) Keyword(spelling string, kind token.Kind) *Table {
	t.keywords[spelling] = kind
	return t
}

// Operator registers a (possibly multi-character) operator spelling.
func (t *Table) Operator(spelling string, kind token.Kind) *Table {
	t.operators[spelling] = kind
	return t
}

// Separator registers a single-character separator.
func (t *Table) Separator(ch byte, kind token.Kind) *Table {
	t.separator[ch] = kind
	return t
}

// LookupKeyword returns the keyword kind for spelling, if it is registered.
func (t *Table) LookupKeyword(spelling string) (token.Kind, bool) {
	k, ok := t.keywords[spelling]
	return k, ok
}

// LookupSeparator returns the separator kind for a single character.
func (t *Table) LookupSeparator(ch byte) (token.Kind, bool) {
	k, ok := t.separator[ch]
	return k, ok
}

// MatchOperator performs longest-match lookup of an operator starting at
// the given text, trying progressively shorter prefixes. maxOperatorLen
// bounds the search (the longest registered operator spelling).
func (t *Table) MatchOperator(text string) (token.Kind, string, bool) {
	upper := len(text)
	if upper > t.maxOperatorLen() {
		upper = t.maxOperatorLen()
	}
	for l := upper; l >= 1; l-- {
		if l > len(text) {
			continue
		}
		candidate := text[:l]
		if k, ok := t.operators[candidate]; ok {
			return k, candidate, true
		}
	}
	return token.Illegal, "", false
}

func (t *Table) maxOperatorLen() int {
	max := 0
	for spelling := range t.operators {
		if len(spelling) > max {
			max = len(spelling)
		}
	}
	return max
}

// Script returns the lexical table for the scripting dialect.
func Script() *Table {
	t := New()
	t.Keyword("if", token.KwIf)
	t.Keyword("else", token.KwElse)
	t.Keyword("while", token.KwWhile)
	t.Keyword("return", token.KwReturn)
	t.Keyword("calc", token.KwCalc)
	t.Keyword("def_int", token.KwDefInt)
	t.Keyword("def_long", token.KwDefLong)
	t.Keyword("def_string", token.KwDefString)
	t.Keyword("def_boolean", token.KwDefBool)

	t.Separator('(', token.LParen)
	t.Separator(')', token.RParen)
	t.Separator('{', token.LBrace)
	t.Separator('}', token.RBrace)
	t.Separator('[', token.LBracket)
	t.Separator(']', token.RBracket)
	t.Separator(',', token.Comma)
	t.Separator(';', token.Semicolon)
	t.Separator('$', token.Dollar)
	t.Separator('^', token.Caret)
	t.Separator('~', token.Tilde)
	t.Separator('.', token.Dot)
	t.Separator('@', token.At)
	t.Separator(':', token.Colon)

	t.Operator("%%", token.DoublePercent)
	t.Operator("%", token.Percent)
	t.Operator("+", token.Plus)
	t.Operator("-", token.Minus)
	t.Operator("*", token.Star)
	t.Operator("/", token.Slash)
	t.Operator("==", token.Equals)
	t.Operator("!=", token.NotEquals)
	t.Operator("<=", token.LessEquals)
	t.Operator(">=", token.GreaterEquals)
	t.Operator("<", token.Less)
	t.Operator(">", token.Greater)
	t.Operator("=", token.Assign)
	return t
}

// Config returns the lexical table for the configuration dialect. It
// shares separators and coordinate-grid handling with the script dialect
// but has no statement keywords.
func Config() *Table {
	t := New()
	t.Separator('[', token.LBracket)
	t.Separator(']', token.RBracket)
	t.Separator(',', token.Comma)
	t.Operator("=", token.Assign)
	return t
}
