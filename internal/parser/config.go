package parser

import (
	"strconv"

	"corescript/internal/ast"
	"corescript/internal/lexicon"
	"corescript/internal/scanner"
	"corescript/internal/token"
	"corescript/internal/types"
)

// primitiveTypeNames recognizes a bare identifier spelled like a built-in
// primitive (e.g. "long" in a type-dispatched property's companion "type"
// value) as a type literal rather than a constant/config reference. Only
// the statically-known primitives are checked here - a named (catalog-
// registered) type used as a value still parses as a RefValue and is
// disambiguated during the semantic pass, since the parser has no access
// to the driver's type registry.
var primitiveTypeNames = types.NewRegistry()

// ConfigParser parses the configuration dialect.
type ConfigParser struct {
	base
}

// ParseConfig parses a single source file in the configuration dialect.
func ParseConfig(filename, src string) (*ast.ConfigFile, []Error, []scanner.Error) {
	lx := newLexer(filename, src, lexicon.Config(), '#')
	p := &ConfigParser{base{filename: filename, lx: lx}}
	file := p.parseFile()
	return file, p.errors, lx.Errors()
}

func (p *ConfigParser) parseFile() *ast.ConfigFile {
	start := p.peek().Range
	f := &ast.ConfigFile{}
	for !p.atEnd() {
		f.Configs = append(f.Configs, p.parseConfig())
	}
	end := start
	if len(f.Configs) > 0 {
		end = f.Configs[len(f.Configs)-1].Range()
	}
	f.Rng = start.Cover(end)
	return f
}

func (p *ConfigParser) parseConfig() *ast.Config {
	startTok := p.expect(token.LBracket, "expected '[' to start a config header")
	name := p.consumeIdent("expected a config name")
	endTok := p.expect(token.RBracket, "expected ']' to close the config header")
	cfg := &ast.Config{Name: name}
	end := endTok.Range
	for p.check(token.Identifier) && !p.atEnd() {
		prop := p.parseProperty()
		cfg.Properties = append(cfg.Properties, prop)
		end = prop.Range()
	}
	cfg.Rng = startTok.Range.Cover(end)
	return cfg
}

func (p *ConfigParser) parseProperty() *ast.Property {
	key := p.consumeIdent("expected a property key")
	p.expect(token.Assign, "expected '=' after property key")
	var values []ast.Value
	for {
		v := p.parseValue()
		values = append(values, v)
		if _, ok := p.match(token.Comma); !ok {
			break
		}
	}
	end := values[len(values)-1].Range()
	return &ast.Property{Key: key, Values: values, Rng: key.Range().Cover(end)}
}

func (p *ConfigParser) parseValue() ast.Value {
	tok := p.peek()
	switch tok.Kind {
	case token.IntLiteral:
		p.advance()
		v, _ := strconv.ParseInt(tok.Lexeme, 10, 32)
		return &ast.IntValue{Value: int32(v), Rng: tok.Range}
	case token.LongLiteral:
		p.advance()
		text := tok.Lexeme[:len(tok.Lexeme)-1]
		v, _ := strconv.ParseInt(text, 10, 64)
		return &ast.LongValue{Value: v, Rng: tok.Range}
	case token.BoolLiteral:
		p.advance()
		return &ast.BoolValue{Value: tok.Lexeme == "true", Rng: tok.Range}
	case token.StringLiteral:
		p.advance()
		return &ast.StringValue{Value: tok.Lexeme, Rng: tok.Range}
	case token.CoordGridLiteral:
		p.advance()
		return &ast.CoordGridValue{Value: parseCoordGrid(tok.Lexeme), Rng: tok.Range}
	case token.Identifier:
		// Bare identifiers cover type-literals (e.g. "long"), constant
		// references, and config references alike. A spelling matching a
		// built-in primitive is a type literal; anything else is a
		// constant/config reference, disambiguated against the binding and
		// the symbol table during the semantic pass.
		p.advance()
		if _, ok := primitiveTypeNames.Lookup(tok.Lexeme); ok {
			return &ast.TypeValue{Name: tok.Lexeme, Rng: tok.Range}
		}
		return &ast.RefValue{Name: ast.Ident{Name: tok.Lexeme, Rng: tok.Range}, Rng: tok.Range}
	default:
		p.errorAtCurrent("expected a value")
		p.advance()
		p.synchronizeConfig()
		return &ast.BadValue{Rng: tok.Range}
	}
}
