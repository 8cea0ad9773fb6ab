// Package parser implements the recursive-descent parsers for both
// dialects: explicit expect(kind) guards, panic-mode recovery to a
// synchronization point, re-entrant per file.
package parser

import (
	"corescript/internal/ast"
	"corescript/internal/lexicon"
	"corescript/internal/scanner"
	"corescript/internal/token"
)

// Error is a syntactic diagnostic: unexpected token, or expected kind X
// found Y.
type Error struct {
	Message string
	Range   token.Range
}

// base holds the state shared by both dialect parsers: the look-ahead
// lexer and the collected syntactic diagnostics.
type base struct {
	filename string
	lx       *scanner.Lexer
	errors   []Error
}

func (p *base) peek() token.Token     { return p.lx.Peek(0) }
func (p *base) peekAt(n int) token.Token { return p.lx.Peek(n) }
func (p *base) advance() token.Token  { return p.lx.Take() }
func (p *base) atEnd() bool           { return p.peek().Kind == token.EOF }

func (p *base) check(kinds ...token.Kind) bool {
	cur := p.peek().Kind
	for _, k := range kinds {
		if cur == k {
			return true
		}
	}
	return false
}

func (p *base) match(kinds ...token.Kind) (token.Token, bool) {
	if p.check(kinds...) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect consumes a token of kind k, or emits a diagnostic and yields a
// synthetic Illegal token so parsing can continue. It always advances at
// least one token, to guarantee forward progress.
func (p *base) expect(k token.Kind, message string) token.Token {
	if p.check(k) {
		return p.advance()
	}
	p.errorAtCurrent(message)
	bad := token.Token{Kind: token.Illegal, Range: p.peek().Range}
	p.advance()
	return bad
}

func (p *base) errorAtCurrent(message string) {
	p.errors = append(p.errors, Error{Message: message, Range: p.peek().Range})
}

func (p *base) ident(tok token.Token) ast.Ident {
	return ast.Ident{Name: tok.Lexeme, Rng: tok.Range}
}

func (p *base) consumeIdent(message string) ast.Ident {
	tok := p.expect(token.Identifier, message)
	if tok.Kind == token.Illegal {
		return ast.Ident{Name: "<error>", Rng: tok.Range}
	}
	return p.ident(tok)
}

// scriptStarters are the synchronization tokens panic-mode recovery seeks
// inside a script body: a statement terminator, or a token that begins a
// new statement/script.
var scriptStarters = []token.Kind{
	token.Semicolon, token.KwIf, token.KwWhile, token.KwReturn,
	token.KwDefInt, token.KwDefLong, token.KwDefString, token.KwDefBool,
	token.LBracket, token.RBrace,
}

func (p *base) synchronizeScript() {
	for !p.atEnd() {
		if p.peek().Kind == token.Semicolon {
			p.advance()
			return
		}
		for _, k := range scriptStarters[1:] {
			if p.peek().Kind == k {
				return
			}
		}
		p.advance()
	}
}

// configStarters are the synchronization points for the config dialect:
// the start of the next property or the next config header.
var configStarters = []token.Kind{token.Comma, token.LBracket}

func (p *base) synchronizeConfig() {
	for !p.atEnd() {
		if p.peek().Kind == token.LBracket {
			return
		}
		if p.peek().Kind == token.Identifier && p.peekAt(1).Kind == token.Assign {
			return
		}
		p.advance()
	}
}

func newLexer(filename, src string, table *lexicon.Table, coordSigil byte) *scanner.Lexer {
	tok := scanner.New(filename, src, table, scanner.CoordSigil(coordSigil))
	return scanner.NewLexer(tok)
}
