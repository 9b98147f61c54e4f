package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/rafibayer/puffin/token"
)

// The base Node interface. Statements and expressions are all Nodes;
// the evaluator dispatches on the concrete type.
type Node interface {
	GetToken() token.Token
	TokenLiteral() string
	String() string
}

type Program struct {
	Statements []Node
}

func (p *Program) GetToken() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].GetToken()
	}
	return token.Token{}
}
func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}
func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Statements

type ReturnStatement struct {
	Token token.Token
	Value Node
}

func (rs *ReturnStatement) GetToken() token.Token { return rs.Token }
func (rs *ReturnStatement) TokenLiteral() string  { return rs.Token.Literal }
func (rs *ReturnStatement) String() string {
	return "return " + rs.Value.String() + ";"
}

// AssignStatement covers plain and augmented assignment. Op is "" for
// plain '=', otherwise the operator applied before rebinding ("+", "-", ...).
type AssignStatement struct {
	Token  token.Token
	Target Node
	Op     string
	Value  Node
}

func (as *AssignStatement) GetToken() token.Token { return as.Token }
func (as *AssignStatement) TokenLiteral() string  { return as.Token.Literal }
func (as *AssignStatement) String() string {
	return as.Target.String() + " " + as.Op + "= " + as.Value.String() + ";"
}

type ExpressionStatement struct {
	Token token.Token
	Expr  Node
}

func (es *ExpressionStatement) GetToken() token.Token { return es.Token }
func (es *ExpressionStatement) TokenLiteral() string  { return es.Token.Literal }
func (es *ExpressionStatement) String() string        { return es.Expr.String() + ";" }

// IfStatement with a nil Else is the plain 'if'; with a non-nil Else it is
// the two-armed form.
type IfStatement struct {
	Token token.Token
	Cond  Node
	Then  *Block
	Else  *Block
}

func (is *IfStatement) GetToken() token.Token { return is.Token }
func (is *IfStatement) TokenLiteral() string  { return is.Token.Literal }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(is.Cond.String())
	out.WriteString(") ")
	out.WriteString(is.Then.String())
	if is.Else != nil {
		out.WriteString(" else ")
		out.WriteString(is.Else.String())
	}
	return out.String()
}

type WhileStatement struct {
	Token token.Token
	Cond  Node
	Body  *Block
}

func (ws *WhileStatement) GetToken() token.Token { return ws.Token }
func (ws *WhileStatement) TokenLiteral() string  { return ws.Token.Literal }
func (ws *WhileStatement) String() string {
	return "while (" + ws.Cond.String() + ") " + ws.Body.String()
}

// ForStatement: Init and Step are statements (assignment or bare
// expression); Cond is an expression.
type ForStatement struct {
	Token token.Token
	Init  Node
	Cond  Node
	Step  Node
	Body  *Block
}

func (fs *ForStatement) GetToken() token.Token { return fs.Token }
func (fs *ForStatement) TokenLiteral() string  { return fs.Token.Literal }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	out.WriteString(strings.TrimSuffix(fs.Init.String(), ";"))
	out.WriteString("; ")
	out.WriteString(fs.Cond.String())
	out.WriteString("; ")
	out.WriteString(strings.TrimSuffix(fs.Step.String(), ";"))
	out.WriteString(") ")
	out.WriteString(fs.Body.String())
	return out.String()
}

type ForInStatement struct {
	Token token.Token
	Name  string
	Iter  Node
	Body  *Block
}

func (fi *ForInStatement) GetToken() token.Token { return fi.Token }
func (fi *ForInStatement) TokenLiteral() string  { return fi.Token.Literal }
func (fi *ForInStatement) String() string {
	return "for (" + fi.Name + " in " + fi.Iter.String() + ") " + fi.Body.String()
}

type Block struct {
	Token      token.Token
	Statements []Node
}

func (b *Block) GetToken() token.Token { return b.Token }
func (b *Block) TokenLiteral() string  { return b.Token.Literal }
func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range b.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

// Expressions

type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (nl *NumberLiteral) GetToken() token.Token { return nl.Token }
func (nl *NumberLiteral) TokenLiteral() string  { return nl.Token.Literal }
func (nl *NumberLiteral) String() string        { return strconv.FormatFloat(nl.Value, 'f', -1, 64) }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) GetToken() token.Token { return sl.Token }
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Literal }
func (sl *StringLiteral) String() string        { return "\"" + sl.Value + "\"" }

type NullLiteral struct {
	Token token.Token
}

func (nl *NullLiteral) GetToken() token.Token { return nl.Token }
func (nl *NullLiteral) TokenLiteral() string  { return nl.Token.Literal }
func (nl *NullLiteral) String() string        { return "null" }

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) GetToken() token.Token { return i.Token }
func (i *Identifier) TokenLiteral() string  { return i.Token.Literal }
func (i *Identifier) String() string        { return i.Value }

// ArraySized is the '[n]' form: a fresh array of n nulls.
type ArraySized struct {
	Token token.Token
	Size  Node
}

func (as *ArraySized) GetToken() token.Token { return as.Token }
func (as *ArraySized) TokenLiteral() string  { return as.Token.Literal }
func (as *ArraySized) String() string        { return "[" + as.Size.String() + "]" }

// ArrayRange is the '[lo:hi]' form: the Nums lo, lo+1, ... hi-1.
type ArrayRange struct {
	Token token.Token
	From  Node
	To    Node
}

func (ar *ArrayRange) GetToken() token.Token { return ar.Token }
func (ar *ArrayRange) TokenLiteral() string  { return ar.Token.Literal }
func (ar *ArrayRange) String() string        { return "[" + ar.From.String() + ":" + ar.To.String() + "]" }

type StructureField struct {
	Name  string
	Value Node
}

type StructureLiteral struct {
	Token  token.Token
	Fields []StructureField
}

func (sl *StructureLiteral) GetToken() token.Token { return sl.Token }
func (sl *StructureLiteral) TokenLiteral() string  { return sl.Token.Literal }
func (sl *StructureLiteral) String() string {
	fields := []string{}
	for _, f := range sl.Fields {
		fields = append(fields, f.Name+": "+f.Value.String())
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

type FunctionLiteral struct {
	Token  token.Token
	Params []string
	Body   *Block
}

func (fl *FunctionLiteral) GetToken() token.Token { return fl.Token }
func (fl *FunctionLiteral) TokenLiteral() string  { return fl.Token.Literal }
func (fl *FunctionLiteral) String() string {
	return "fn(" + strings.Join(fl.Params, ", ") + ") " + fl.Body.String()
}

type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Node
}

func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }
func (pe *PrefixExpression) TokenLiteral() string  { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	return "(" + pe.Operator + pe.Right.String() + ")"
}

type InfixExpression struct {
	Token    token.Token
	Operator string
	Left     Node
	Right    Node
}

func (ie *InfixExpression) GetToken() token.Token { return ie.Token }
func (ie *InfixExpression) TokenLiteral() string  { return ie.Token.Literal }
func (ie *InfixExpression) String() string {
	return "(" + ie.Left.String() + " " + ie.Operator + " " + ie.Right.String() + ")"
}

type IndexExpression struct {
	Token token.Token
	Left  Node
	Index Node
}

func (ix *IndexExpression) GetToken() token.Token { return ix.Token }
func (ix *IndexExpression) TokenLiteral() string  { return ix.Token.Literal }
func (ix *IndexExpression) String() string {
	return "(" + ix.Left.String() + "[" + ix.Index.String() + "])"
}

type CallExpression struct {
	Token    token.Token
	Function Node
	Args     []Node
}

func (ce *CallExpression) GetToken() token.Token { return ce.Token }
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	args := []string{}
	for _, a := range ce.Args {
		args = append(args, a.String())
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}

type FieldExpression struct {
	Token token.Token
	Left  Node
	Field string
}

func (fe *FieldExpression) GetToken() token.Token { return fe.Token }
func (fe *FieldExpression) TokenLiteral() string  { return fe.Token.Literal }
func (fe *FieldExpression) String() string {
	return "(" + fe.Left.String() + "." + fe.Field + ")"
}
