// Package parser implements a recursive-descent + Pratt parser producing
// the untyped ast.File the semantic middle-end consumes. Per spec §1 the
// parser is a collaborator out of the compiler's core scope; it is kept
// deliberately minimal, grounded on the teacher's Pratt-parser structure
// (internal/parser/parser.go) but covering only the surface grammar the
// rest of this spec actually exercises.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sunholo/haira/internal/ast"
	"github.com/sunholo/haira/internal/herrors"
	"github.com/sunholo/haira/internal/lexer"
)

const (
	LOWEST int = iota
	PIPE_PREC
	OR
	AND
	EQUALS
	LESSGREATER
	RANGE
	SUM
	PRODUCT
	PREFIX
	CALL
	FIELD
)

var precedences = map[lexer.Type]int{
	lexer.PIPE:     PIPE_PREC,
	lexer.OR:       OR,
	lexer.AND:      AND,
	lexer.EQ:       EQUALS,
	lexer.NEQ:      EQUALS,
	lexer.LT:       LESSGREATER,
	lexer.LTE:      LESSGREATER,
	lexer.GT:       LESSGREATER,
	lexer.GTE:      LESSGREATER,
	lexer.DOTDOT:   RANGE,
	lexer.DOTDOTEQ: RANGE,
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.PLUSPLUS: SUM,
	lexer.STAR:     PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.PERCENT:  PRODUCT,
	lexer.LPAREN:   CALL,
	lexer.DOT:      FIELD,
	lexer.QUESTION: FIELD,
}

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// Parser turns a token stream into an *ast.File.
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token
	errs      []*herrors.Diagnostic

	prefixParseFns map[lexer.Type]prefixParseFn
	infixParseFns  map[lexer.Type]infixParseFn

	file string
}

func New(l *lexer.Lexer, file string) *Parser {
	p := &Parser{l: l, file: file}

	p.prefixParseFns = map[lexer.Type]prefixParseFn{
		lexer.IDENT:         p.parseIdentifier,
		lexer.INT:           p.parseIntLit,
		lexer.FLOAT:         p.parseFloatLit,
		lexer.STRING:        p.parseStringLit,
		lexer.INTERP_STRING: p.parseInterpString,
		lexer.TRUE:          p.parseBoolLit,
		lexer.FALSE:         p.parseBoolLit,
		lexer.LPAREN:        p.parseGroupedExpr,
		lexer.LBRACKET:      p.parseListLit,
		lexer.MINUS:         p.parsePrefixExpr,
		lexer.NOT:           p.parsePrefixExpr,
		lexer.IF:            p.parseIfExpr,
		lexer.MATCH:         p.parseMatchExpr,
		lexer.UNDERSCORE:    p.parseWildcardAsExpr,
	}

	p.infixParseFns = map[lexer.Type]infixParseFn{
		lexer.PLUS:     p.parseInfixExpr,
		lexer.MINUS:    p.parseInfixExpr,
		lexer.STAR:     p.parseInfixExpr,
		lexer.SLASH:    p.parseInfixExpr,
		lexer.PERCENT:  p.parseInfixExpr,
		lexer.PLUSPLUS: p.parseInfixExpr,
		lexer.EQ:       p.parseInfixExpr,
		lexer.NEQ:      p.parseInfixExpr,
		lexer.LT:       p.parseInfixExpr,
		lexer.LTE:      p.parseInfixExpr,
		lexer.GT:       p.parseInfixExpr,
		lexer.GTE:      p.parseInfixExpr,
		lexer.AND:      p.parseInfixExpr,
		lexer.OR:       p.parseInfixExpr,
		lexer.LPAREN:   p.parseCallExpr,
		lexer.DOT:      p.parseDotExpr,
		lexer.QUESTION: p.parseTryExpr,
		lexer.PIPE:     p.parsePipeExpr,
		lexer.DOTDOT:   p.parseRangeExpr,
		lexer.DOTDOTEQ: p.parseRangeExpr,
	}

	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() []*herrors.Diagnostic { return p.errs }

func (p *Parser) pos() ast.Pos {
	return ast.Pos{File: p.file, Line: p.curToken.Line, Column: p.curToken.Column}
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curIs(t lexer.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekIs(t lexer.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expect(t lexer.Type) bool {
	if p.peekIs(t) {
		p.nextToken()
		return true
	}
	p.errs = append(p.errs, herrors.New(herrors.PAR001,
		fmt.Sprintf("expected next token to be %v, got %v instead", t, p.peekToken.Type)).
		At(herrors.Span{File: p.file, Line: p.peekToken.Line, Column: p.peekToken.Column}))
	return false
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

// ParseFile parses an entire source file into declarations.
func (p *Parser) ParseFile() *ast.File {
	f := &ast.File{Path: p.file}
	for !p.curIs(lexer.EOF) {
		decl := p.parseDecl()
		if decl != nil {
			f.Decls = append(f.Decls, decl)
		}
		p.nextToken()
	}
	return f
}

func (p *Parser) parseDecl() ast.Decl {
	switch p.curToken.Type {
	case lexer.FUNC:
		return p.parseFuncDecl()
	case lexer.AI:
		return p.parseAiDecl()
	case lexer.RECORD:
		return p.parseRecordDecl()
	case lexer.UNION:
		return p.parseUnionDecl()
	default:
		p.errs = append(p.errs, herrors.New(herrors.PAR003,
			fmt.Sprintf("unexpected top-level token %v", p.curToken.Type)))
		return nil
	}
}

func isPrivate(name string) bool { return strings.HasPrefix(name, "_") }

func (p *Parser) parseParamList() []ast.Param {
	var params []ast.Param
	if !p.expect(lexer.LPAREN) {
		return nil
	}
	if p.peekIs(lexer.RPAREN) {
		p.nextToken()
		return params
	}
	p.nextToken()
	for {
		name := p.curToken.Literal
		var typ ast.TypeExpr
		if p.peekIs(lexer.COLON) {
			p.nextToken()
			p.nextToken()
			typ = p.parseTypeExpr()
		}
		params = append(params, ast.Param{Name: name, Type: typ})
		if !p.peekIs(lexer.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseReturnType() ast.TypeExpr {
	if p.peekIs(lexer.ARROW) {
		p.nextToken()
		p.nextToken()
		return p.parseTypeExpr()
	}
	return nil
}

func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	start := p.pos()
	p.nextToken()
	name := p.curToken.Literal
	params := p.parseParamList()
	ret := p.parseReturnType()
	if !p.expect(lexer.LBRACE) {
		return nil
	}
	body := p.parseStmtsUntil(lexer.RBRACE)
	return &ast.FuncDecl{Pos: start, Name: name, Params: params, ReturnType: ret, Body: body, Private: isPrivate(name)}
}

// parseAiDecl parses `ai name(params) -> ret { intent text }` (§4.4). The
// brace-delimited body is treated as opaque intent text, never parsed as
// statements: it is natural-language input to the AI Intent Engine.
func (p *Parser) parseAiDecl() *ast.AiDecl {
	start := p.pos()
	p.nextToken()
	name := p.curToken.Literal
	params := p.parseParamList()
	ret := p.parseReturnType()
	if !p.expect(lexer.LBRACE) {
		return nil
	}
	var sb strings.Builder
	depth := 1
	for depth > 0 && !p.peekIs(lexer.EOF) {
		p.nextToken()
		if p.curIs(lexer.LBRACE) {
			depth++
		}
		if p.curIs(lexer.RBRACE) {
			depth--
			if depth == 0 {
				break
			}
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(p.curToken.Literal)
	}
	return &ast.AiDecl{Pos: start, Name: name, Params: params, ReturnType: ret, IntentText: sb.String(), Private: isPrivate(name)}
}

func (p *Parser) parseFieldDeclList() []ast.FieldDecl {
	var fields []ast.FieldDecl
	if !p.expect(lexer.LBRACE) {
		return nil
	}
	if p.peekIs(lexer.RBRACE) {
		p.nextToken()
		return fields
	}
	p.nextToken()
	for {
		name := p.curToken.Literal
		p.expect(lexer.COLON)
		p.nextToken()
		typ := p.parseTypeExpr()
		fields = append(fields, ast.FieldDecl{Name: name, Type: typ})
		if !p.peekIs(lexer.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	p.expect(lexer.RBRACE)
	return fields
}

func (p *Parser) parseRecordDecl() *ast.RecordDecl {
	start := p.pos()
	p.nextToken()
	name := p.curToken.Literal
	fields := p.parseFieldDeclList()
	return &ast.RecordDecl{Pos: start, Name: name, Fields: fields, Private: isPrivate(name)}
}

func (p *Parser) parseUnionDecl() *ast.UnionDecl {
	start := p.pos()
	p.nextToken()
	name := p.curToken.Literal
	var variants []ast.VariantDecl
	if !p.expect(lexer.LBRACE) {
		return &ast.UnionDecl{Pos: start, Name: name, Private: isPrivate(name)}
	}
	p.nextToken()
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		vname := p.curToken.Literal
		var fields []ast.FieldDecl
		if p.peekIs(lexer.LBRACE) {
			p.nextToken()
			fields = p.parseFieldDeclList()
		}
		variants = append(variants, ast.VariantDecl{Name: vname, Fields: fields})
		if p.peekIs(lexer.COMMA) {
			p.nextToken()
		}
		p.nextToken()
	}
	return &ast.UnionDecl{Pos: start, Name: name, Variants: variants, Private: isPrivate(name)}
}

func (p *Parser) parseTypeExpr() ast.TypeExpr {
	start := p.pos()
	var t ast.TypeExpr
	switch p.curToken.Type {
	case lexer.LBRACKET:
		p.nextToken()
		elem := p.parseTypeExpr()
		p.expect(lexer.RBRACKET)
		t = &ast.ListType{Pos: start, Elem: elem}
	case lexer.LBRACE:
		p.nextToken()
		key := p.parseTypeExpr()
		p.expect(lexer.COLON)
		p.nextToken()
		val := p.parseTypeExpr()
		p.expect(lexer.RBRACE)
		t = &ast.MapType{Pos: start, Key: key, Value: val}
	default:
		t = &ast.NamedType{Pos: start, Name: p.curToken.Literal}
	}
	if p.peekIs(lexer.QUESTION) {
		p.nextToken()
		t = &ast.OptionType{Pos: start, Elem: t}
	}
	return t
}

// ----------------------------------------------------------------------
// Statements
// ----------------------------------------------------------------------

func (p *Parser) parseStmtsUntil(end lexer.Type) []ast.Stmt {
	var stmts []ast.Stmt
	for !p.peekIs(end) && !p.peekIs(lexer.EOF) {
		p.nextToken()
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(end)
	return stmts
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.curToken.Type {
	case lexer.LET:
		return p.parseLetStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.BREAK:
		return &ast.BreakStmt{}
	default:
		start := p.pos()
		e := p.parseExpr(LOWEST)
		if p.peekIs(lexer.ASSIGN) {
			p.nextToken()
			p.nextToken()
			val := p.parseExpr(LOWEST)
			return &ast.AssignStmt{Pos: start, Target: e, Value: val}
		}
		return &ast.ExprStmt{Pos: start, X: e}
	}
}

func (p *Parser) parseLetStmt() ast.Stmt {
	start := p.pos()
	p.nextToken()
	pat := p.parsePattern()
	var typ ast.TypeExpr
	if p.peekIs(lexer.COLON) {
		p.nextToken()
		p.nextToken()
		typ = p.parseTypeExpr()
	}
	p.expect(lexer.ASSIGN)
	p.nextToken()
	val := p.parseExpr(LOWEST)
	return &ast.LetStmt{Pos: start, Pattern: pat, Type: typ, Value: val}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	start := p.pos()
	if p.peekIs(lexer.DOT) || p.peekIs(lexer.RBRACE) {
		return &ast.ReturnStmt{Pos: start}
	}
	p.nextToken()
	val := p.parseExpr(LOWEST)
	return &ast.ReturnStmt{Pos: start, Value: val}
}

func (p *Parser) parseForStmt() ast.Stmt {
	start := p.pos()
	p.nextToken()
	pat := p.parsePattern()
	p.expect(lexer.IN)
	p.nextToken()
	iter := p.parseExpr(LOWEST)
	p.expect(lexer.LBRACE)
	body := p.parseStmtsUntil(lexer.RBRACE)
	return &ast.ForStmt{Pos: start, Pattern: pat, Iter: iter, Body: body}
}

// ----------------------------------------------------------------------
// Patterns
// ----------------------------------------------------------------------

func (p *Parser) parsePattern() ast.Pattern {
	start := p.pos()
	switch p.curToken.Type {
	case lexer.UNDERSCORE:
		return &ast.WildcardPattern{Pos: start}
	case lexer.INT:
		n, _ := strconv.ParseInt(p.curToken.Literal, 10, 64)
		return &ast.LitPattern{Pos: start, Value: n}
	case lexer.STRING:
		return &ast.LitPattern{Pos: start, Value: p.curToken.Literal}
	case lexer.IDENT:
		name := p.curToken.Literal
		if p.peekIs(lexer.DOT) {
			p.nextToken()
			p.nextToken()
			variant := p.curToken.Literal
			var args []ast.Pattern
			if p.peekIs(lexer.LPAREN) {
				p.nextToken()
				p.nextToken()
				for !p.curIs(lexer.RPAREN) {
					args = append(args, p.parsePattern())
					if p.peekIs(lexer.COMMA) {
						p.nextToken()
						p.nextToken()
					} else {
						p.nextToken()
					}
				}
			}
			return &ast.ConstructorPattern{Pos: start, TypeName: name, Variant: variant, Args: args}
		}
		return &ast.VarPattern{Pos: start, Name: name}
	default:
		return &ast.WildcardPattern{Pos: start}
	}
}

// ----------------------------------------------------------------------
// Expressions (Pratt)
// ----------------------------------------------------------------------

func (p *Parser) parseExpr(precedence int) ast.Expr {
	prefix, ok := p.prefixParseFns[p.curToken.Type]
	if !ok {
		p.errs = append(p.errs, herrors.New(herrors.PAR001,
			fmt.Sprintf("no prefix parse function for %v", p.curToken.Type)))
		return nil
	}
	left := prefix()

	for !p.peekIs(lexer.ASSIGN) && precedence < p.peekPrecedence() {
		infix, ok := p.infixParseFns[p.peekToken.Type]
		if !ok {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Expr {
	return &ast.Identifier{Pos: p.pos(), Name: p.curToken.Literal}
}

func (p *Parser) parseWildcardAsExpr() ast.Expr {
	return &ast.Identifier{Pos: p.pos(), Name: "_"}
}

func (p *Parser) parseIntLit() ast.Expr {
	n, _ := strconv.ParseInt(p.curToken.Literal, 10, 64)
	return &ast.IntLit{Pos: p.pos(), Value: n}
}

func (p *Parser) parseFloatLit() ast.Expr {
	f, _ := strconv.ParseFloat(p.curToken.Literal, 64)
	return &ast.FloatLit{Pos: p.pos(), Value: f}
}

func (p *Parser) parseStringLit() ast.Expr {
	return &ast.StringLit{Pos: p.pos(), Value: p.curToken.Literal}
}

// parseInterpString splits the lexer's raw `${...}` literal into literal
// text parts plus parsed sub-expressions.
func (p *Parser) parseInterpString() ast.Expr {
	start := p.pos()
	raw := p.curToken.Literal
	var parts []string
	var exprs []ast.Expr
	var cur strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			depth := 1
			j := i + 2
			for j < len(raw) && depth > 0 {
				if raw[j] == '{' {
					depth++
				}
				if raw[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			inner := raw[i+2 : j]
			sub := New(lexer.New(inner, p.file), p.file)
			exprs = append(exprs, sub.parseExpr(LOWEST))
			parts = append(parts, cur.String())
			cur.Reset()
			i = j + 1
			continue
		}
		cur.WriteByte(raw[i])
		i++
	}
	parts = append(parts, cur.String())
	return &ast.InterpString{Pos: start, Parts: parts, Exprs: exprs}
}

func (p *Parser) parseBoolLit() ast.Expr {
	return &ast.BoolLit{Pos: p.pos(), Value: p.curToken.Type == lexer.TRUE}
}

func (p *Parser) parseGroupedExpr() ast.Expr {
	p.nextToken()
	e := p.parseExpr(LOWEST)
	p.expect(lexer.RPAREN)
	return e
}

func (p *Parser) parseListLit() ast.Expr {
	start := p.pos()
	var elems []ast.Expr
	if p.peekIs(lexer.RBRACKET) {
		p.nextToken()
		return &ast.ListLit{Pos: start}
	}
	p.nextToken()
	elems = append(elems, p.parseExpr(LOWEST))
	for p.peekIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		elems = append(elems, p.parseExpr(LOWEST))
	}
	p.expect(lexer.RBRACKET)
	return &ast.ListLit{Pos: start, Elems: elems}
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	start := p.pos()
	var op ast.UnOp
	if p.curToken.Type == lexer.MINUS {
		op = ast.OpNeg
	} else {
		op = ast.OpNot
	}
	p.nextToken()
	operand := p.parseExpr(PREFIX)
	return &ast.UnaryExpr{Pos: start, Op: op, Operand: operand}
}

var binOps = map[lexer.Type]ast.BinOp{
	lexer.PLUS: ast.OpAdd, lexer.MINUS: ast.OpSub, lexer.STAR: ast.OpMul,
	lexer.SLASH: ast.OpDiv, lexer.PERCENT: ast.OpMod, lexer.EQ: ast.OpEq,
	lexer.NEQ: ast.OpNeq, lexer.LT: ast.OpLt, lexer.LTE: ast.OpLte,
	lexer.GT: ast.OpGt, lexer.GTE: ast.OpGte, lexer.AND: ast.OpAnd,
	lexer.OR: ast.OpOr, lexer.PLUSPLUS: ast.OpConcat,
}

func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	start := p.pos()
	op := binOps[p.curToken.Type]
	prec := p.curPrecedence()
	p.nextToken()
	right := p.parseExpr(prec)
	return &ast.BinaryExpr{Pos: start, Op: op, Left: left, Right: right}
}

func (p *Parser) parseCallExpr(callee ast.Expr) ast.Expr {
	start := p.pos()
	var args []ast.Expr
	if p.peekIs(lexer.RPAREN) {
		p.nextToken()
		return &ast.Call{Pos: start, Callee: callee}
	}
	p.nextToken()
	args = append(args, p.parseExpr(LOWEST))
	for p.peekIs(lexer.COMMA) {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseExpr(LOWEST))
	}
	p.expect(lexer.RPAREN)
	return &ast.Call{Pos: start, Callee: callee, Args: args}
}

// parseDotExpr handles `x.field`, `x.method(args)`, and the
// `T.Variant(args)` pattern via ConstructorPattern elsewhere; here it is
// always a FieldAccess or MethodCall in expression position.
func (p *Parser) parseDotExpr(target ast.Expr) ast.Expr {
	start := p.pos()
	p.nextToken()
	name := p.curToken.Literal
	if p.peekIs(lexer.LPAREN) {
		p.nextToken()
		var args []ast.Expr
		if p.peekIs(lexer.RPAREN) {
			p.nextToken()
			return &ast.MethodCall{Pos: start, Target: target, Method: name}
		}
		p.nextToken()
		args = append(args, p.parseExpr(LOWEST))
		for p.peekIs(lexer.COMMA) {
			p.nextToken()
			p.nextToken()
			args = append(args, p.parseExpr(LOWEST))
		}
		p.expect(lexer.RPAREN)
		return &ast.MethodCall{Pos: start, Target: target, Method: name, Args: args}
	}
	return &ast.FieldAccess{Pos: start, Target: target, Field: name}
}

func (p *Parser) parseTryExpr(operand ast.Expr) ast.Expr {
	return &ast.TryExpr{Pos: p.pos(), Operand: operand}
}

func (p *Parser) parsePipeExpr(source ast.Expr) ast.Expr {
	start := p.pos()
	p.nextToken()
	rhs := p.parseExpr(PIPE_PREC)
	call, ok := rhs.(*ast.Call)
	if !ok {
		call = &ast.Call{Pos: start, Callee: rhs}
	}
	return &ast.PipeExpr{Pos: start, Source: source, Call: call}
}

func (p *Parser) parseRangeExpr(startExpr ast.Expr) ast.Expr {
	pos := p.pos()
	inclusive := p.curToken.Type == lexer.DOTDOTEQ
	p.nextToken()
	end := p.parseExpr(RANGE)
	return &ast.RangeExpr{Pos: pos, Start: startExpr, End: end, Inclusive: inclusive}
}

func (p *Parser) parseIfExpr() ast.Expr {
	start := p.pos()
	p.nextToken()
	cond := p.parseExpr(LOWEST)
	p.expect(lexer.LBRACE)
	then := p.parseStmtsUntil(lexer.RBRACE)
	var els []ast.Stmt
	if p.peekIs(lexer.ELSE) {
		p.nextToken()
		p.nextToken()
		if p.curIs(lexer.IF) {
			els = []ast.Stmt{&ast.ExprStmt{X: p.parseIfExpr()}}
		} else {
			p.expect(lexer.LBRACE)
			els = p.parseStmtsUntil(lexer.RBRACE)
		}
	}
	return &ast.IfExpr{Pos: start, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseMatchExpr() ast.Expr {
	start := p.pos()
	p.nextToken()
	scrutinee := p.parseExpr(LOWEST)
	p.expect(lexer.LBRACE)
	var arms []ast.MatchArm
	p.nextToken()
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		pat := p.parsePattern()
		var guard ast.Expr
		if p.peekIs(lexer.IF) {
			p.nextToken()
			p.nextToken()
			guard = p.parseExpr(LOWEST)
		}
		p.expect(lexer.FARROW)
		p.nextToken()
		var body []ast.Stmt
		if p.curIs(lexer.LBRACE) {
			body = p.parseStmtsUntil(lexer.RBRACE)
		} else {
			body = []ast.Stmt{&ast.ExprStmt{X: p.parseExpr(LOWEST)}}
		}
		arms = append(arms, ast.MatchArm{Pattern: pat, Guard: guard, Body: body})
		if p.peekIs(lexer.COMMA) {
			p.nextToken()
		}
		p.nextToken()
	}
	return &ast.MatchExpr{Pos: start, Scrutinee: scrutinee, Arms: arms}
}
