package parser

import (
	"strconv"

	"github.com/rafibayer/puffin/ast"
	"github.com/rafibayer/puffin/lexer"
	"github.com/rafibayer/puffin/object"
	"github.com/rafibayer/puffin/stack"
	"github.com/rafibayer/puffin/text"
	"github.com/rafibayer/puffin/token"
)

const (
	_ int = iota
	LOWEST
	OR          // ||
	AND         // &&
	EQUALS      // == or !=
	LESSGREATER // < <= > >=
	SUM         // + or -
	PRODUCT     // * / %
	PREFIX      // -x or !x
	POSTFIX     // call, subscript, dot
)

var precedences = map[token.TokenType]int{
	token.OR:       OR,
	token.AND:      AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.LT_EQ:    LESSGREATER,
	token.GT_EQ:    LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.LPAREN:   POSTFIX,
	token.LBRACK:   POSTFIX,
	token.DOT:      POSTFIX,
}

type (
	prefixParseFn func() ast.Node
	infixParseFn  func(ast.Node) ast.Node
)

type Parser struct {
	lexer   *lexer.Lexer
	Errors  object.Errors
	nesting *stack.Stack[token.Token]

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		lexer:   l,
		Errors:  []*object.Error{},
		nesting: stack.NewStack[token.Token](),
	}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.IDENT:  p.parseIdentifier,
		token.NUM:    p.parseNumberLiteral,
		token.STRING: p.parseStringLiteral,
		token.NULL:   p.parseNullLiteral,
		token.BANG:   p.parsePrefixExpression,
		token.MINUS:  p.parsePrefixExpression,
		token.LPAREN: p.parseGroupedExpression,
		token.LBRACK: p.parseArrayLiteral,
		token.LBRACE: p.parseStructureLiteral,
		token.FN:     p.parseFunctionLiteral,
	}

	p.infixParseFns = map[token.TokenType]infixParseFn{
		token.PLUS:     p.parseInfixExpression,
		token.MINUS:    p.parseInfixExpression,
		token.ASTERISK: p.parseInfixExpression,
		token.SLASH:    p.parseInfixExpression,
		token.PERCENT:  p.parseInfixExpression,
		token.LT:       p.parseInfixExpression,
		token.GT:       p.parseInfixExpression,
		token.LT_EQ:    p.parseInfixExpression,
		token.GT_EQ:    p.parseInfixExpression,
		token.EQ:       p.parseInfixExpression,
		token.NOT_EQ:   p.parseInfixExpression,
		token.AND:      p.parseInfixExpression,
		token.OR:       p.parseInfixExpression,
		token.LPAREN:   p.parseCallExpression,
		token.LBRACK:   p.parseIndexExpression,
		token.DOT:      p.parseFieldExpression,
	}

	// Fill curToken and peekToken.
	p.NextToken()
	p.NextToken()
	return p
}

// Parse lexes and parses one source unit, returning the program and any
// front-end errors (the lexer's and the parser's, in that order).
func Parse(source, input string) (*ast.Program, object.Errors) {
	l := lexer.New(source, input)
	p := New(l)
	program := p.ParseProgram()
	errors := append(append(object.Errors{}, l.Ers...), p.Errors...)
	return program, errors
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Node{}}
	for !p.curTokenIs(token.EOF) && len(p.Errors) == 0 {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.NextToken()
	}
	return program
}

func (p *Parser) NextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
	p.checkNesting()
}

// checkNesting keeps a stack of open brackets so that a mismatched
// closer is reported against the bracket it fails to close.
func (p *Parser) checkNesting() {
	switch p.curToken.Type {
	case token.LPAREN, token.LBRACK, token.LBRACE:
		p.nesting.Push(p.curToken)
	case token.RPAREN, token.RBRACK, token.RBRACE:
		open, ok := p.nesting.Pop()
		if !ok {
			p.Throw("ParseError", p.curToken, "unmatched "+text.Emph(p.curToken.Literal))
			return
		}
		if closerFor(open.Type) != p.curToken.Type {
			p.Throw("ParseError", p.curToken,
				text.Emph(open.Literal)+" is closed by "+text.Emph(p.curToken.Literal))
		}
	}
}

func closerFor(t token.TokenType) token.TokenType {
	switch t {
	case token.LPAREN:
		return token.RPAREN
	case token.LBRACK:
		return token.RBRACK
	default:
		return token.RBRACE
	}
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.NextToken()
		return true
	}
	p.Throw("ParseError", p.peekToken,
		"expected "+text.Emph(string(t))+", got "+text.Emph(p.peekToken.Literal))
	return false
}

func (p *Parser) Throw(errorID string, tok token.Token, args ...any) {
	p.Errors = append(p.Errors, object.CreateErr(errorID, tok, args...))
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// Statements

func (p *Parser) parseStatement() ast.Node {
	switch p.curToken.Type {
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.SEMICOLON:
		return nil
	default:
		return p.parseSimpleStatement(true)
	}
}

func (p *Parser) parseReturnStatement() ast.Node {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	p.NextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil || !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

// parseSimpleStatement parses an assignment or a bare expression; these
// are the statement forms allowed in a for header, where no terminating
// semicolon is consumed.
func (p *Parser) parseSimpleStatement(requireSemi bool) ast.Node {
	exprToken := p.curToken
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}

	var stmt ast.Node
	if token.IsAssignment(p.peekToken.Type) {
		p.NextToken()
		assign := &ast.AssignStatement{
			Token:  p.curToken,
			Target: expr,
			Op:     token.AugOps[p.curToken.Type],
		}
		p.NextToken()
		assign.Value = p.parseExpression(LOWEST)
		if assign.Value == nil {
			return nil
		}
		stmt = assign
	} else {
		stmt = &ast.ExpressionStatement{Token: exprToken, Expr: expr}
	}

	if requireSemi && !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

func (p *Parser) parseIfStatement() ast.Node {
	stmt := &ast.IfStatement{Token: p.curToken}
	p.NextToken()
	stmt.Cond = p.parseExpression(LOWEST)
	if stmt.Cond == nil || !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Then = p.parseBlock()
	if p.peekTokenIs(token.ELSE) {
		p.NextToken()
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.Else = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Node {
	stmt := &ast.WhileStatement{Token: p.curToken}
	p.NextToken()
	stmt.Cond = p.parseExpression(LOWEST)
	if stmt.Cond == nil || !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlock()
	return stmt
}

func (p *Parser) parseForStatement() ast.Node {
	forToken := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.NextToken()

	// 'for (name in e)' iterates an array; anything else is the
	// three-part C-style header.
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.IN) {
		stmt := &ast.ForInStatement{Token: forToken, Name: p.curToken.Literal}
		p.NextToken()
		p.NextToken()
		stmt.Iter = p.parseExpression(LOWEST)
		if stmt.Iter == nil || !p.expectPeek(token.RPAREN) || !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.Body = p.parseBlock()
		return stmt
	}

	stmt := &ast.ForStatement{Token: forToken}
	stmt.Init = p.parseSimpleStatement(false)
	if stmt.Init == nil || !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.NextToken()
	stmt.Cond = p.parseExpression(LOWEST)
	if stmt.Cond == nil || !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	p.NextToken()
	stmt.Step = p.parseSimpleStatement(false)
	if stmt.Step == nil || !p.expectPeek(token.RPAREN) || !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlock()
	return stmt
}

func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Token: p.curToken, Statements: []ast.Node{}}
	p.NextToken()
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.Throw("ParseError", p.curToken, "unterminated block")
			return block
		}
		if len(p.Errors) > 0 {
			return block
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.NextToken()
	}
	return block
}

// Expressions

func (p *Parser) parseExpression(precedence int) ast.Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.Throw("ParseError", p.curToken, "unexpected "+text.Emph(p.curToken.Literal))
		return nil
	}
	left := prefix()

	for left != nil && !p.peekTokenIs(token.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.NextToken()
		left = infix(left)
	}
	return left
}

func (p *Parser) parseIdentifier() ast.Node {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() ast.Node {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.Throw("ParseError", p.curToken, "could not parse "+text.Emph(p.curToken.Literal)+" as a number")
		return nil
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Node {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNullLiteral() ast.Node {
	return &ast.NullLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Node {
	expr := &ast.PrefixExpression{Token: p.curToken, Operator: p.curToken.Literal}
	p.NextToken()
	expr.Right = p.parseExpression(PREFIX)
	if expr.Right == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Node) ast.Node {
	expr := &ast.InfixExpression{Token: p.curToken, Operator: p.curToken.Literal, Left: left}
	precedence := p.curPrecedence()
	p.NextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	return expr
}

// Parentheses steer the parser and are erased from the AST.
func (p *Parser) parseGroupedExpression() ast.Node {
	p.NextToken()
	expr := p.parseExpression(LOWEST)
	if expr == nil || !p.expectPeek(token.RPAREN) {
		return nil
	}
	return expr
}

// '[n]' is a sized array of nulls; '[lo:hi]' is a range.
func (p *Parser) parseArrayLiteral() ast.Node {
	tok := p.curToken
	p.NextToken()
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.COLON) {
		p.NextToken()
		p.NextToken()
		to := p.parseExpression(LOWEST)
		if to == nil || !p.expectPeek(token.RBRACK) {
			return nil
		}
		return &ast.ArrayRange{Token: tok, From: first, To: to}
	}
	if !p.expectPeek(token.RBRACK) {
		return nil
	}
	return &ast.ArraySized{Token: tok, Size: first}
}

func (p *Parser) parseStructureLiteral() ast.Node {
	lit := &ast.StructureLiteral{Token: p.curToken, Fields: []ast.StructureField{}}
	if p.peekTokenIs(token.RBRACE) {
		p.NextToken()
		return lit
	}
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		name := p.curToken.Literal
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.NextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		lit.Fields = append(lit.Fields, ast.StructureField{Name: name, Value: value})
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.NextToken()
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return lit
}

// 'fn(a, b) { ... }', or the lambda sugar 'fn(a, b) => e' which parses
// as 'fn(a, b) { return e; }'.
func (p *Parser) parseFunctionLiteral() ast.Node {
	lit := &ast.FunctionLiteral{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	lit.Params = p.parseParams()
	if lit.Params == nil {
		return nil
	}
	switch {
	case p.peekTokenIs(token.LBRACE):
		p.NextToken()
		lit.Body = p.parseBlock()
	case p.peekTokenIs(token.ARROW):
		p.NextToken()
		arrow := p.curToken
		p.NextToken()
		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}
		lit.Body = &ast.Block{
			Token:      arrow,
			Statements: []ast.Node{&ast.ReturnStatement{Token: arrow, Value: value}},
		}
	default:
		p.Throw("ParseError", p.peekToken,
			"expected a function body, got "+text.Emph(p.peekToken.Literal))
		return nil
	}
	return lit
}

func (p *Parser) parseParams() []string {
	params := []string{}
	if p.peekTokenIs(token.RPAREN) {
		p.NextToken()
		return params
	}
	for {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		params = append(params, p.curToken.Literal)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.NextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return params
}

func (p *Parser) parseCallExpression(fn ast.Node) ast.Node {
	call := &ast.CallExpression{Token: p.curToken, Function: fn}
	call.Args = p.parseCallArgs()
	if call.Args == nil {
		return nil
	}
	return call
}

func (p *Parser) parseCallArgs() []ast.Node {
	args := []ast.Node{}
	if p.peekTokenIs(token.RPAREN) {
		p.NextToken()
		return args
	}
	for {
		p.NextToken()
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.NextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return args
}

func (p *Parser) parseIndexExpression(left ast.Node) ast.Node {
	expr := &ast.IndexExpression{Token: p.curToken, Left: left}
	p.NextToken()
	expr.Index = p.parseExpression(LOWEST)
	if expr.Index == nil || !p.expectPeek(token.RBRACK) {
		return nil
	}
	return expr
}

func (p *Parser) parseFieldExpression(left ast.Node) ast.Node {
	expr := &ast.FieldExpression{Token: p.curToken, Left: left}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	expr.Field = p.curToken.Literal
	return expr
}
