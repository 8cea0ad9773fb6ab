package parser

import (
	"strconv"
	"strings"

	"corescript/internal/ast"
	"corescript/internal/lexicon"
	"corescript/internal/scanner"
	"corescript/internal/token"
)

// ScriptParser parses the scripting dialect.
type ScriptParser struct {
	base
}

// ParseScript parses a single source file in the scripting dialect. It
// always returns a non-nil *ast.File (possibly containing partially
// recovered scripts) plus the syntactic and lexical diagnostics collected.
func ParseScript(filename, src string) (*ast.File, []Error, []scanner.Error) {
	lx := newLexer(filename, src, lexicon.Script(), '#')
	p := &ScriptParser{base{filename: filename, lx: lx}}
	file := p.parseFile()
	return file, p.errors, lx.Errors()
}

func (p *ScriptParser) parseFile() *ast.File {
	start := p.peek().Range
	f := &ast.File{}
	for !p.atEnd() {
		f.Scripts = append(f.Scripts, p.parseScript())
	}
	end := start
	if len(f.Scripts) > 0 {
		end = f.Scripts[len(f.Scripts)-1].Range()
	}
	f.Rng = start.Cover(end)
	return f
}

func (p *ScriptParser) parseScript() *ast.Script {
	startTok := p.expect(token.LBracket, "expected '[' to start a script header")
	trigger := p.consumeIdent("expected a trigger name")
	p.expect(token.Comma, "expected ',' between trigger and script name")
	name := p.consumeIdent("expected a script name")
	p.expect(token.RBracket, "expected ']' to close the script header")

	var params []ast.Parameter
	var returns []ast.TypeName
	if p.check(token.LParen) {
		if p.startsParamList() {
			params = p.parseParamList()
		} else {
			returns = p.parseTypeList()
		}
	}
	if p.check(token.LParen) {
		returns = p.parseTypeList()
	}

	body := p.parseBlock()
	return &ast.Script{
		Trigger:     trigger,
		Name:        name,
		Params:      params,
		ReturnTypes: returns,
		Body:        body,
		Rng:         startTok.Range.Cover(body.Range()),
	}
}

// startsParamList peeks past the '(' to decide whether this parenthesized
// group is a parameter list (type $name pairs) or a bare return-type list.
// An empty group "()" is treated as an (empty) parameter list, since
// parameters always precede return types in the grammar.
func (p *ScriptParser) startsParamList() bool {
	if p.peekAt(1).Kind == token.RParen {
		return true
	}
	return p.peekAt(1).Kind == token.Identifier && p.peekAt(2).Kind == token.Dollar
}

func (p *ScriptParser) parseParamList() []ast.Parameter {
	p.expect(token.LParen, "expected '('")
	var params []ast.Parameter
	if !p.check(token.RParen) {
		for {
			typ := p.parseTypeName()
			p.expect(token.Dollar, "expected '$' before parameter name")
			name := p.consumeIdent("expected parameter name")
			params = append(params, ast.Parameter{Type: typ, Name: name, Rng: typ.Range().Cover(name.Range())})
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
	}
	p.expect(token.RParen, "expected ')' to close parameter list")
	return params
}

func (p *ScriptParser) parseTypeList() []ast.TypeName {
	p.expect(token.LParen, "expected '('")
	var types []ast.TypeName
	if !p.check(token.RParen) {
		for {
			types = append(types, p.parseTypeName())
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
	}
	p.expect(token.RParen, "expected ')' to close type list")
	return types
}

func (p *ScriptParser) parseTypeName() ast.TypeName {
	tok := p.expect(token.Identifier, "expected a type name")
	return ast.TypeName{Name: tok.Lexeme, Rng: tok.Range}
}

func (p *ScriptParser) parseBlock() *ast.BlockStmt {
	start := p.expect(token.LBrace, "expected '{' to start a block")
	block := &ast.BlockStmt{}
	for !p.check(token.RBrace) && !p.atEnd() {
		block.Stmts = append(block.Stmts, p.parseStmt())
	}
	end := p.expect(token.RBrace, "expected '}' to close a block")
	block.Rng = start.Range.Cover(end.Range)
	return block
}

func (p *ScriptParser) parseStmt() ast.Stmt {
	switch {
	case p.check(token.LBrace):
		return p.parseBlock()
	case p.check(token.KwIf):
		return p.parseIf()
	case p.check(token.KwWhile):
		return p.parseWhile()
	case p.check(token.KwReturn):
		return p.parseReturn()
	case p.check(token.KwDefInt, token.KwDefLong, token.KwDefString, token.KwDefBool):
		return p.parseVarDecl()
	case p.check(token.Identifier) && strings.HasPrefix(p.peek().Lexeme, "switch_"):
		return p.parseSwitch()
	default:
		return p.parseExprStmt()
	}
}

// parseSwitch parses the supplemental `switch_<type> (scrutinee) { case
// v1, v2: ... default: ... }` statement. "case" and "default" are soft
// keywords recognized by spelling, not reserved in the lexical table,
// matching how the rest of the dialect keeps its keyword set minimal.
func (p *ScriptParser) parseSwitch() ast.Stmt {
	typeTok := p.advance()
	typeName := ast.TypeName{Name: strings.TrimPrefix(typeTok.Lexeme, "switch_"), Rng: typeTok.Range}

	p.expect(token.LParen, "expected '(' after switch")
	scrutinee := p.parseExpr()
	p.expect(token.RParen, "expected ')' after switch scrutinee")
	p.expect(token.LBrace, "expected '{' to start switch body")

	var cases []ast.SwitchCase
	var def *ast.BlockStmt
	for !p.check(token.RBrace) && !p.atEnd() {
		switch {
		case p.check(token.Identifier) && p.peek().Lexeme == "default":
			p.advance()
			p.expect(token.Colon, "expected ':' after 'default'")
			def = p.parseSwitchBody()
		case p.check(token.Identifier) && p.peek().Lexeme == "case":
			caseStart := p.advance()
			var values []ast.Expr
			for {
				values = append(values, p.parseExpr())
				if _, ok := p.match(token.Comma); !ok {
					break
				}
			}
			p.expect(token.Colon, "expected ':' after case values")
			body := p.parseSwitchBody()
			cases = append(cases, ast.SwitchCase{Values: values, Body: body, Rng: caseStart.Range.Cover(body.Range())})
		default:
			p.errorAtCurrent("expected 'case' or 'default' in switch body")
			p.synchronizeScript()
		}
	}
	end := p.expect(token.RBrace, "expected '}' to close switch body")
	return &ast.SwitchStmt{
		Type:      typeName,
		Scrutinee: scrutinee,
		Cases:     cases,
		Default:   def,
		Rng:       typeTok.Range.Cover(end.Range),
	}
}

// parseSwitchBody collects statements up to (not including) the next
// case/default arm or the closing brace - a switch arm's body has no
// braces of its own.
func (p *ScriptParser) parseSwitchBody() *ast.BlockStmt {
	start := p.peek().Range
	block := &ast.BlockStmt{}
	for !p.atEnd() && !p.check(token.RBrace) && !p.startsSwitchArm() {
		block.Stmts = append(block.Stmts, p.parseStmt())
	}
	end := start
	if len(block.Stmts) > 0 {
		end = block.Stmts[len(block.Stmts)-1].Range()
	}
	block.Rng = start.Cover(end)
	return block
}

func (p *ScriptParser) startsSwitchArm() bool {
	return p.check(token.Identifier) && (p.peek().Lexeme == "case" || p.peek().Lexeme == "default")
}

func (p *ScriptParser) parseIf() ast.Stmt {
	start := p.expect(token.KwIf, "expected 'if'")
	p.expect(token.LParen, "expected '(' after 'if'")
	cond := p.parseExpr()
	p.expect(token.RParen, "expected ')' after if condition")
	then := p.parseBlock()
	var elseStmt ast.Stmt
	end := then.Range()
	if _, ok := p.match(token.KwElse); ok {
		if p.check(token.KwIf) {
			elseStmt = p.parseIf()
		} else {
			elseStmt = p.parseBlock()
		}
		end = elseStmt.Range()
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: elseStmt, Rng: start.Range.Cover(end)}
}

func (p *ScriptParser) parseWhile() ast.Stmt {
	start := p.expect(token.KwWhile, "expected 'while'")
	p.expect(token.LParen, "expected '(' after 'while'")
	cond := p.parseExpr()
	p.expect(token.RParen, "expected ')' after while condition")
	body := p.parseBlock()
	return &ast.WhileStmt{Cond: cond, Body: body, Rng: start.Range.Cover(body.Range())}
}

func (p *ScriptParser) parseReturn() ast.Stmt {
	start := p.expect(token.KwReturn, "expected 'return'")
	p.expect(token.LParen, "expected '(' after 'return'")
	var values []ast.Expr
	if !p.check(token.RParen) {
		for {
			values = append(values, p.parseExpr())
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
	}
	p.expect(token.RParen, "expected ')' to close return values")
	semi := p.expect(token.Semicolon, "expected ';' after return statement")
	return &ast.ReturnStmt{Values: values, Rng: start.Range.Cover(semi.Range)}
}

func (p *ScriptParser) parseVarDecl() ast.Stmt {
	kw := p.advance()
	var typeName string
	switch kw.Kind {
	case token.KwDefInt:
		typeName = "int"
	case token.KwDefLong:
		typeName = "long"
	case token.KwDefString:
		typeName = "string"
	case token.KwDefBool:
		typeName = "boolean"
	}
	typ := ast.TypeName{Name: typeName, Rng: kw.Range}
	p.expect(token.Dollar, "expected '$' before variable name")
	name := p.consumeIdent("expected variable name")
	var init ast.Expr
	if _, ok := p.match(token.Assign); ok {
		init = p.parseExpr()
	}
	semi := p.expect(token.Semicolon, "expected ';' after variable declaration")
	return &ast.VarDeclStmt{Type: typ, Name: name, Init: init, Rng: kw.Range.Cover(semi.Range)}
}

func (p *ScriptParser) parseExprStmt() ast.Stmt {
	if p.check(token.Dollar, token.Percent, token.DoublePercent, token.At, token.Caret) {
		return p.parseAssignOrExpr()
	}
	if !p.check(token.Identifier, token.Tilde,
		token.StringLiteral, token.IntLiteral, token.LongLiteral, token.BoolLiteral, token.KwCalc) {
		// Nothing recognizable starts a statement: report and recover.
		p.errorAtCurrent("expected a statement")
		start := p.peek().Range
		p.synchronizeScript()
		return &ast.BadStmt{Rng: start}
	}
	expr := p.parseExpr()
	semi := p.expect(token.Semicolon, "expected ';' after expression statement")
	return &ast.ExprStmt{Expr: expr, Rng: expr.Range().Cover(semi.Range)}
}

// parseAssignOrExpr parses a statement led by a scoped variable form,
// which is either an assignment ("$x = expr;") or a bare expression
// statement built around a comparison of that variable.
func (p *ScriptParser) parseAssignOrExpr() ast.Stmt {
	var scope ast.VarScope
	switch p.peek().Kind {
	case token.Dollar:
		scope = ast.ScopeLocal
	case token.DoublePercent:
		scope = ast.ScopePlayerBit
	case token.Percent:
		scope = ast.ScopePlayer
	case token.At:
		scope = ast.ScopeClientInt
	case token.Caret:
		scope = ast.ScopeClientString
	}
	v := p.parseVarExprNode(scope)
	if _, ok := p.match(token.Assign); ok {
		value := p.parseExpr()
		semi := p.expect(token.Semicolon, "expected ';' after assignment")
		return &ast.AssignStmt{Target: v, Value: value, Rng: v.Range().Cover(semi.Range)}
	}
	var expr ast.Expr = v
	if p.check(token.Equals, token.NotEquals, token.Less, token.LessEquals, token.Greater, token.GreaterEquals) {
		opTok := p.advance()
		right := p.parsePrimary()
		expr = &ast.BinaryExpr{Op: opTok.Kind, Left: v, Right: right, Rng: v.Range().Cover(right.Range())}
	}
	semi := p.expect(token.Semicolon, "expected ';' after expression statement")
	return &ast.ExprStmt{Expr: expr, Rng: expr.Range().Cover(semi.Range)}
}

// --- expressions ---

func (p *ScriptParser) parseExpr() ast.Expr {
	left := p.parsePrimary()
	if p.check(token.Equals, token.NotEquals, token.Less, token.LessEquals, token.Greater, token.GreaterEquals) {
		opTok := p.advance()
		right := p.parsePrimary()
		return &ast.BinaryExpr{Op: opTok.Kind, Left: left, Right: right, Rng: left.Range().Cover(right.Range())}
	}
	return left
}

// parseArith parses a left-associative chain of +,-,*,/ for use inside
// calc(...).
func (p *ScriptParser) parseArith() ast.Expr {
	left := p.parseArithTerm()
	for p.check(token.Plus, token.Minus) {
		opTok := p.advance()
		right := p.parseArithTerm()
		left = &ast.BinaryExpr{Op: opTok.Kind, Left: left, Right: right, Rng: left.Range().Cover(right.Range())}
	}
	return left
}

func (p *ScriptParser) parseArithTerm() ast.Expr {
	left := p.parsePrimary()
	for p.check(token.Star, token.Slash) {
		opTok := p.advance()
		right := p.parsePrimary()
		left = &ast.BinaryExpr{Op: opTok.Kind, Left: left, Right: right, Rng: left.Range().Cover(right.Range())}
	}
	return left
}

func (p *ScriptParser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.IntLiteral:
		p.advance()
		return parseIntLit(tok)
	case token.LongLiteral:
		p.advance()
		return parseLongLit(tok)
	case token.BoolLiteral:
		p.advance()
		return &ast.BoolLit{Value: tok.Lexeme == "true", Rng: tok.Range}
	case token.StringLiteral:
		p.advance()
		return p.maybeConcat(tok)
	case token.CoordGridLiteral:
		p.advance()
		return &ast.CoordGridLit{Value: parseCoordGrid(tok.Lexeme), Rng: tok.Range}
	case token.Dollar:
		return p.parseVarExpr(ast.ScopeLocal)
	case token.DoublePercent:
		return p.parseVarExpr(ast.ScopePlayerBit)
	case token.Percent:
		return p.parseVarExpr(ast.ScopePlayer)
	case token.At:
		return p.parseVarExpr(ast.ScopeClientInt)
	case token.Caret:
		return p.parseVarExpr(ast.ScopeClientString)
	case token.Tilde:
		return p.parseGosub()
	case token.KwCalc:
		return p.parseCalc()
	case token.Identifier:
		return p.parseIdentLead()
	default:
		p.errorAtCurrent("expected an expression")
		bad := token.Token{Kind: token.Illegal, Range: tok.Range}
		p.advance()
		return &ast.BadExpr{Rng: bad.Range}
	}
}

func (p *ScriptParser) parseVarExpr(scope ast.VarScope) ast.Expr {
	return p.parseVarExprNode(scope)
}

func (p *ScriptParser) parseVarExprNode(scope ast.VarScope) *ast.VarExpr {
	start := p.advance() // the prefix token
	name := p.consumeIdent("expected a variable name")
	return &ast.VarExpr{Scope: scope, Name: name, Rng: start.Range.Cover(name.Range())}
}

func (p *ScriptParser) parseGosub() ast.Expr {
	start := p.advance() // '~'
	name := p.consumeIdent("expected a script name after '~'")
	p.expect(token.LParen, "expected '(' to begin gosub arguments")
	args := p.parseArgs()
	end := p.expect(token.RParen, "expected ')' to close gosub arguments")
	return &ast.GosubExpr{Name: name, Args: args, Rng: start.Range.Cover(end.Range)}
}

func (p *ScriptParser) parseCalc() ast.Expr {
	start := p.advance() // 'calc'
	p.expect(token.LParen, "expected '(' after 'calc'")
	inner := p.parseArith()
	end := p.expect(token.RParen, "expected ')' to close calc expression")
	return &ast.CalcExpr{Inner: inner, Rng: start.Range.Cover(end.Range)}
}

// parseIdentLead disambiguates identifier-led primaries: a command or
// gosub call (name followed by '('), or a bare constant/config-entry
// reference resolved later during semantic analysis.
func (p *ScriptParser) parseIdentLead() ast.Expr {
	name := p.consumeIdent("expected an identifier")
	if p.check(token.LParen) {
		p.advance()
		args := p.parseArgs()
		end := p.expect(token.RParen, "expected ')' to close call arguments")
		return &ast.CommandExpr{Name: name, Args: args, Rng: name.Range().Cover(end.Range)}
	}
	return &ast.IdentExpr{Name: name, Rng: name.Range()}
}

func (p *ScriptParser) parseArgs() []ast.Expr {
	var args []ast.Expr
	if !p.check(token.RParen) {
		for {
			args = append(args, p.parseExpr())
			if _, ok := p.match(token.Comma); !ok {
				break
			}
		}
	}
	return args
}

// maybeConcat turns a string literal with embedded "<expr>" placeholders
// into a ConcatExpr; a literal with no placeholders stays a plain StringLit.
func (p *ScriptParser) maybeConcat(tok token.Token) ast.Expr {
	parts, hasPlaceholder := splitConcatParts(tok.Lexeme, tok.Range, p)
	if !hasPlaceholder {
		return &ast.StringLit{Value: tok.Lexeme, Rng: tok.Range}
	}
	return &ast.ConcatExpr{Parts: parts, Rng: tok.Range}
}

// splitConcatParts scans the decoded lexeme for "<...>" placeholders and
// recursively parses each one as a nested expression using a fresh
// sub-parser over just that placeholder text.
func splitConcatParts(lexeme string, rng token.Range, p *ScriptParser) ([]ast.Expr, bool) {
	var parts []ast.Expr
	found := false
	i := 0
	var lit []byte
	flush := func() {
		if len(lit) > 0 {
			parts = append(parts, &ast.StringLit{Value: string(lit), Rng: rng})
			lit = nil
		}
	}
	for i < len(lexeme) {
		if lexeme[i] == '<' {
			close := indexByte(lexeme[i+1:], '>')
			if close >= 0 {
				found = true
				flush()
				inner := lexeme[i+1 : i+1+close]
				parts = append(parts, parseEmbeddedExpr(inner, rng))
				i += close + 2
				continue
			}
		}
		lit = append(lit, lexeme[i])
		i++
	}
	flush()
	return parts, found
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

func parseEmbeddedExpr(src string, rng token.Range) ast.Expr {
	lx := newLexer("<concat>", src, lexicon.Script(), '#')
	sub := &ScriptParser{base{filename: "<concat>", lx: lx}}
	expr := sub.parseExpr()
	return expr
}

func parseIntLit(tok token.Token) ast.Expr {
	base := 10
	text := tok.Lexeme
	if len(text) > 1 && (text[1] == 'x' || text[1] == 'X') {
		base = 16
		text = text[2:]
	}
	v, _ := strconv.ParseInt(text, base, 64)
	return &ast.IntLit{Value: int32(v), Rng: tok.Range}
}

func parseLongLit(tok token.Token) ast.Expr {
	text := tok.Lexeme[:len(tok.Lexeme)-1]
	base := 10
	if len(text) > 1 && (text[1] == 'x' || text[1] == 'X') {
		base = 16
		text = text[2:]
	}
	v, _ := strconv.ParseInt(text, base, 64)
	return &ast.LongLit{Value: v, Rng: tok.Range}
}

func parseCoordGrid(lexeme string) int32 {
	// Packed as plane(2 bits) | x(14 bits) | z(14 bits), underscore- or
	// comma-separated components after the sigil.
	var nums []int64
	cur := int64(0)
	has := false
	for i := 1; i < len(lexeme); i++ {
		c := lexeme[i]
		if c == '_' || c == ',' {
			nums = append(nums, cur)
			cur = 0
			has = false
			continue
		}
		cur = cur*10 + int64(c-'0')
		has = true
	}
	if has || len(nums) == 0 {
		nums = append(nums, cur)
	}
	for len(nums) < 4 {
		nums = append(nums, 0)
	}
	plane, x, z := nums[0], nums[1], nums[2]
	return int32((plane&0x3)<<28 | (x&0x3FFF)<<14 | (z & 0x3FFF))
}
