package evaluator

// This is basically your standard tree-walking evaluator. Runtime errors
// are objects threaded through evaluation; 'return' travels the same way
// as a Return signal until a function call or the top level unwraps it.

import (
	"bufio"
	"io"
	"math"
	"os"

	"github.com/rafibayer/puffin/ast"
	"github.com/rafibayer/puffin/object"
	"github.com/rafibayer/puffin/token"
)

// MaxCallDepth bounds closure recursion so that runaway programs fail
// with StackOverflow instead of exhausting the host stack.
const MaxCallDepth = 10000

// Context carries what evaluation needs besides the environment: the
// stdio streams the I/O builtins talk to, and the call depth.
type Context struct {
	In  *bufio.Reader
	Out io.Writer
	Err io.Writer

	depth int
}

func NewContext(in io.Reader, out, errOut io.Writer) *Context {
	return &Context{In: bufio.NewReader(in), Out: out, Err: errOut}
}

func StdioContext() *Context {
	return NewContext(os.Stdin, os.Stdout, os.Stderr)
}

func Eval(node ast.Node, c *Context, env *object.Environment) object.Object {

	switch node := node.(type) {

	case *ast.Program:
		return evalProgram(node, c, env)

	// Statements

	case *ast.ExpressionStatement:
		result := Eval(node.Expr, c, env)
		if isError(result) {
			return result
		}
		return object.NULL

	case *ast.ReturnStatement:
		value := Eval(node.Value, c, env)
		if isError(value) {
			return value
		}
		return &object.Return{Value: value}

	case *ast.AssignStatement:
		return evalAssign(node, c, env)

	case *ast.Block:
		return evalBlock(node, c, object.NewEnclosedEnvironment(env))

	case *ast.IfStatement:
		return evalIf(node, c, env)

	case *ast.WhileStatement:
		return evalWhile(node, c, env)

	case *ast.ForStatement:
		return evalFor(node, c, env)

	case *ast.ForInStatement:
		return evalForIn(node, c, env)

	// Expressions

	case *ast.NumberLiteral:
		return &object.Num{Value: node.Value}

	case *ast.StringLiteral:
		return &object.String{Value: node.Value}

	case *ast.NullLiteral:
		return object.NULL

	case *ast.Identifier:
		return evalIdentifier(node, env)

	case *ast.ArraySized:
		return evalArraySized(node, c, env)

	case *ast.ArrayRange:
		return evalArrayRange(node, c, env)

	case *ast.StructureLiteral:
		return evalStructureLiteral(node, c, env)

	case *ast.FunctionLiteral:
		return &object.Closure{Params: node.Params, Body: node.Body, Env: env}

	case *ast.PrefixExpression:
		right := Eval(node.Right, c, env)
		if isError(right) {
			return right
		}
		return evalPrefixExpression(node.Token, node.Operator, right)

	case *ast.InfixExpression:
		if node.Operator == "&&" || node.Operator == "||" {
			return evalLazyInfixExpression(node, c, env)
		}
		left := Eval(node.Left, c, env)
		if isError(left) {
			return left
		}
		right := Eval(node.Right, c, env)
		if isError(right) {
			return right
		}
		return evalInfixExpression(node.Token, node.Operator, left, right)

	case *ast.IndexExpression:
		return evalIndexExpression(node, c, env)

	case *ast.FieldExpression:
		return evalFieldExpression(node, c, env)

	case *ast.CallExpression:
		return evalCallExpression(node, c, env)
	}

	return newError("TypeError", node.GetToken(), "evaluation", "an unknown node")
}

// EvalRepl evaluates one top-level statement with REPL semantics: the
// values of bare expressions and top-level returns are yielded to the
// caller instead of being discarded or rejected.
func EvalRepl(stmt ast.Node, c *Context, env *object.Environment) object.Object {
	switch node := stmt.(type) {
	case *ast.ExpressionStatement:
		return Eval(node.Expr, c, env)
	case *ast.ReturnStatement:
		return Eval(node.Value, c, env)
	default:
		result := Eval(stmt, c, env)
		if ret, ok := result.(*object.Return); ok {
			return ret.Value
		}
		return result
	}
}

func evalProgram(program *ast.Program, c *Context, env *object.Environment) object.Object {
	for _, stmt := range program.Statements {
		result := Eval(stmt, c, env)
		if isError(result) {
			return result
		}
		if _, ok := result.(*object.Return); ok {
			return newError("ReturnOutsideFunction", stmt.GetToken())
		}
	}
	return object.NULL
}

// evalBlock runs statements in the frame it is given; callers push the
// frame, so that loop bodies get a fresh one per iteration and function
// bodies share the frame their parameters were bound in.
func evalBlock(block *ast.Block, c *Context, env *object.Environment) object.Object {
	for _, stmt := range block.Statements {
		result := Eval(stmt, c, env)
		if isError(result) {
			return result
		}
		if _, ok := result.(*object.Return); ok {
			return result
		}
	}
	return object.NULL
}

func evalIf(node *ast.IfStatement, c *Context, env *object.Environment) object.Object {
	cond, errObj := truthiness(node.Cond, c, env)
	if errObj != nil {
		return errObj
	}
	if cond {
		return evalBlock(node.Then, c, object.NewEnclosedEnvironment(env))
	}
	if node.Else != nil {
		return evalBlock(node.Else, c, object.NewEnclosedEnvironment(env))
	}
	return object.NULL
}

func evalWhile(node *ast.WhileStatement, c *Context, env *object.Environment) object.Object {
	for {
		cond, errObj := truthiness(node.Cond, c, env)
		if errObj != nil {
			return errObj
		}
		if !cond {
			return object.NULL
		}
		result := evalBlock(node.Body, c, object.NewEnclosedEnvironment(env))
		if isError(result) {
			return result
		}
		if _, ok := result.(*object.Return); ok {
			return result
		}
	}
}

// A for loop gets a single enclosing frame for its header; the body
// still gets a fresh frame per iteration.
func evalFor(node *ast.ForStatement, c *Context, env *object.Environment) object.Object {
	loopEnv := object.NewEnclosedEnvironment(env)
	if result := Eval(node.Init, c, loopEnv); isError(result) {
		return result
	}
	for {
		cond, errObj := truthiness(node.Cond, c, loopEnv)
		if errObj != nil {
			return errObj
		}
		if !cond {
			return object.NULL
		}
		result := evalBlock(node.Body, c, object.NewEnclosedEnvironment(loopEnv))
		if isError(result) {
			return result
		}
		if _, ok := result.(*object.Return); ok {
			return result
		}
		if result := Eval(node.Step, c, loopEnv); isError(result) {
			return result
		}
	}
}

func evalForIn(node *ast.ForInStatement, c *Context, env *object.Environment) object.Object {
	iter := Eval(node.Iter, c, env)
	if isError(iter) {
		return iter
	}
	arr, ok := iter.(*object.Array)
	if !ok {
		return newError("TypeError", node.Iter.GetToken(), "'for ... in'", object.EmphType(iter))
	}
	// The length is re-read each iteration: mutations through the
	// handle are visible to the loop.
	for index := 0; index < len(arr.Elements); index++ {
		frame := object.NewEnclosedEnvironment(env)
		frame.Set(node.Name, arr.Elements[index])
		result := evalBlock(node.Body, c, frame)
		if isError(result) {
			return result
		}
		if _, ok := result.(*object.Return); ok {
			return result
		}
	}
	return object.NULL
}

func evalIdentifier(node *ast.Identifier, env *object.Environment) object.Object {
	if val, ok := env.Get(node.Value); ok {
		return val
	}
	return newError("NameError", node.Token, node.Value)
}

func evalArraySized(node *ast.ArraySized, c *Context, env *object.Environment) object.Object {
	size := Eval(node.Size, c, env)
	if isError(size) {
		return size
	}
	n, ok := asNonNegativeInt(size)
	if !ok {
		return newError("ValueError", node.Token, "array size must be a non-negative integer, got "+size.Inspect())
	}
	elements := make([]object.Object, n)
	for i := range elements {
		elements[i] = object.NULL
	}
	return &object.Array{Elements: elements}
}

func evalArrayRange(node *ast.ArrayRange, c *Context, env *object.Environment) object.Object {
	from := Eval(node.From, c, env)
	if isError(from) {
		return from
	}
	to := Eval(node.To, c, env)
	if isError(to) {
		return to
	}
	lo, okLo := asInt(from)
	hi, okHi := asInt(to)
	if !okLo || !okHi {
		return newError("ValueError", node.Token,
			"array range bounds must be integers, got ["+from.Inspect()+":"+to.Inspect()+"]")
	}
	elements := []object.Object{}
	for i := lo; i < hi; i++ {
		elements = append(elements, &object.Num{Value: float64(i)})
	}
	return &object.Array{Elements: elements}
}

func evalStructureLiteral(node *ast.StructureLiteral, c *Context, env *object.Environment) object.Object {
	st := object.NewStructure()
	for _, field := range node.Fields {
		value := Eval(field.Value, c, env)
		if isError(value) {
			return value
		}
		// A closure whose first parameter is 'self' becomes a receiver
		// of the structure it is defined in.
		if closure, ok := value.(*object.Closure); ok &&
			len(closure.Params) > 0 && closure.Params[0] == "self" {
			value = &object.Closure{
				Params: closure.Params[1:],
				Body:   closure.Body,
				Env:    closure.Env,
				Self:   st,
			}
		}
		st.Set(field.Name, value)
	}
	return st
}

func evalPrefixExpression(tok token.Token, operator string, right object.Object) object.Object {
	switch operator {
	case "-":
		num, ok := right.(*object.Num)
		if !ok {
			return newError("TypeError", tok, "'-'", object.EmphType(right))
		}
		return &object.Num{Value: -num.Value}
	case "!":
		t, errObj := truthyValue(tok, right)
		if errObj != nil {
			return errObj
		}
		return object.MakeBool(!t)
	}
	return newError("TypeError", tok, "'"+operator+"'", object.EmphType(right))
}

// && and || short-circuit, and always yield exactly 0 or 1.
func evalLazyInfixExpression(node *ast.InfixExpression, c *Context, env *object.Environment) object.Object {
	left, errObj := truthiness(node.Left, c, env)
	if errObj != nil {
		return errObj
	}
	if node.Operator == "&&" && !left {
		return object.MakeBool(false)
	}
	if node.Operator == "||" && left {
		return object.MakeBool(true)
	}
	right, errObj := truthiness(node.Right, c, env)
	if errObj != nil {
		return errObj
	}
	return object.MakeBool(right)
}

func evalInfixExpression(tok token.Token, operator string, left, right object.Object) object.Object {
	switch operator {
	case "==":
		return object.MakeBool(object.Equals(left, right))
	case "!=":
		return object.MakeBool(!object.Equals(left, right))
	}

	if lstr, ok := left.(*object.String); ok {
		return evalStringInfixExpression(tok, operator, lstr, right)
	}

	lhs, ok := left.(*object.Num)
	if !ok {
		return newError("TypeError", tok, "'"+operator+"'", object.EmphType(left))
	}
	rhs, ok := right.(*object.Num)
	if !ok {
		return newError("TypeError", tok, "'"+operator+"'",
			object.EmphType(left)+" and "+object.EmphType(right))
	}

	switch operator {
	case "+":
		return &object.Num{Value: lhs.Value + rhs.Value}
	case "-":
		return &object.Num{Value: lhs.Value - rhs.Value}
	case "*":
		return &object.Num{Value: lhs.Value * rhs.Value}
	case "/":
		if rhs.Value == 0 {
			return newError("ValueError", tok, "division by zero")
		}
		return &object.Num{Value: lhs.Value / rhs.Value}
	case "%":
		if rhs.Value == 0 {
			return newError("ValueError", tok, "modulo by zero")
		}
		return &object.Num{Value: math.Mod(lhs.Value, rhs.Value)}
	case "<":
		return object.MakeBool(lhs.Value < rhs.Value)
	case "<=":
		return object.MakeBool(lhs.Value <= rhs.Value)
	case ">":
		return object.MakeBool(lhs.Value > rhs.Value)
	case ">=":
		return object.MakeBool(lhs.Value >= rhs.Value)
	}
	return newError("TypeError", tok, "'"+operator+"'", object.EmphType(left))
}

// Strings concatenate with + and compare lexicographically.
func evalStringInfixExpression(tok token.Token, operator string, lhs *object.String, right object.Object) object.Object {
	rhs, ok := right.(*object.String)
	if !ok {
		return newError("TypeError", tok, "'"+operator+"'",
			object.EmphType(lhs)+" and "+object.EmphType(right))
	}
	switch operator {
	case "+":
		return &object.String{Value: lhs.Value + rhs.Value}
	case "<":
		return object.MakeBool(lhs.Value < rhs.Value)
	case "<=":
		return object.MakeBool(lhs.Value <= rhs.Value)
	case ">":
		return object.MakeBool(lhs.Value > rhs.Value)
	case ">=":
		return object.MakeBool(lhs.Value >= rhs.Value)
	}
	return newError("TypeError", tok, "'"+operator+"'", object.EmphType(lhs))
}

func evalIndexExpression(node *ast.IndexExpression, c *Context, env *object.Environment) object.Object {
	left := Eval(node.Left, c, env)
	if isError(left) {
		return left
	}
	arr, ok := left.(*object.Array)
	if !ok {
		return newError("TypeError", node.Token, "subscript", object.EmphType(left))
	}
	index := Eval(node.Index, c, env)
	if isError(index) {
		return index
	}
	i, errObj := arrayIndex(node.Token, index, len(arr.Elements))
	if errObj != nil {
		return errObj
	}
	return arr.Elements[i]
}

func evalFieldExpression(node *ast.FieldExpression, c *Context, env *object.Environment) object.Object {
	left := Eval(node.Left, c, env)
	if isError(left) {
		return left
	}
	st, ok := left.(*object.Structure)
	if !ok {
		return newError("TypeError", node.Token, "field access", object.EmphType(left))
	}
	value, ok := st.Get(node.Field)
	if !ok {
		return newError("FieldError", node.Token, node.Field)
	}
	return value
}

func evalCallExpression(node *ast.CallExpression, c *Context, env *object.Environment) object.Object {
	callee := Eval(node.Function, c, env)
	if isError(callee) {
		return callee
	}

	args := make([]object.Object, 0, len(node.Args))
	for _, argExpr := range node.Args {
		arg := Eval(argExpr, c, env)
		if isError(arg) {
			return arg
		}
		args = append(args, arg)
	}

	switch callee := callee.(type) {
	case *object.Closure:
		return applyClosure(callee, args, c, node.Token)
	case *object.Builtin:
		return applyBuiltin(callee, args, c, node.Token)
	}
	return newError("TypeError", node.Token, "call", object.EmphType(callee))
}

func applyClosure(closure *object.Closure, args []object.Object, c *Context, tok token.Token) object.Object {
	if len(args) != len(closure.Params) {
		return newError("ArityError", tok, len(closure.Params), len(args))
	}

	c.depth++
	defer func() { c.depth-- }()
	if c.depth > MaxCallDepth {
		return newError("StackOverflow", tok, MaxCallDepth)
	}

	// The new frame's parent is the closure's captured environment, not
	// the caller's.
	frame := object.NewEnclosedEnvironment(closure.Env)
	for i, param := range closure.Params {
		frame.Set(param, args[i])
	}
	if closure.Self != nil {
		frame.Set("self", closure.Self)
	}

	result := evalBlock(closure.Body, c, frame)
	if isError(result) {
		return result
	}
	if ret, ok := result.(*object.Return); ok {
		return ret.Value
	}
	// Falling off the end of a function body yields null.
	return object.NULL
}

func applyBuiltin(builtin *object.Builtin, args []object.Object, c *Context, tok token.Token) object.Object {
	body, ok := Builtins[builtin.Name]
	if !ok {
		return newError("NameError", tok, builtin.Name)
	}
	result := body(c, args...)
	if errObj, isErr := result.(*object.Error); isErr && errObj.Token == (token.Token{}) {
		errObj.Token = tok
	}
	return result
}

// Assignment: the three l-value shapes of the language, resolved by
// structural match on the parsed target.
func evalAssign(node *ast.AssignStatement, c *Context, env *object.Environment) object.Object {
	switch target := node.Target.(type) {

	case *ast.Identifier:
		if IsReserved(target.Value) {
			return newError("RebindBuiltin", node.Token, target.Value)
		}
		value := Eval(node.Value, c, env)
		if isError(value) {
			return value
		}
		if node.Op != "" {
			current, ok := env.Get(target.Value)
			if !ok {
				return newError("NameError", node.Token, target.Value)
			}
			value = evalInfixExpression(node.Token, node.Op, current, value)
			if isError(value) {
				return value
			}
		}
		env.Assign(target.Value, value)
		return object.NULL

	case *ast.IndexExpression:
		recv := Eval(target.Left, c, env)
		if isError(recv) {
			return recv
		}
		arr, ok := recv.(*object.Array)
		if !ok {
			return newError("TypeError", node.Token, "subscript assignment", object.EmphType(recv))
		}
		index := Eval(target.Index, c, env)
		if isError(index) {
			return index
		}
		i, errObj := arrayIndex(node.Token, index, len(arr.Elements))
		if errObj != nil {
			return errObj
		}
		value := Eval(node.Value, c, env)
		if isError(value) {
			return value
		}
		if node.Op != "" {
			value = evalInfixExpression(node.Token, node.Op, arr.Elements[i], value)
			if isError(value) {
				return value
			}
		}
		arr.Elements[i] = value
		return object.NULL

	case *ast.FieldExpression:
		recv := Eval(target.Left, c, env)
		if isError(recv) {
			return recv
		}
		st, ok := recv.(*object.Structure)
		if !ok {
			return newError("TypeError", node.Token, "field assignment", object.EmphType(recv))
		}
		value := Eval(node.Value, c, env)
		if isError(value) {
			return value
		}
		if node.Op != "" {
			current, ok := st.Get(target.Field)
			if !ok {
				return newError("FieldError", node.Token, target.Field)
			}
			value = evalInfixExpression(node.Token, node.Op, current, value)
			if isError(value) {
				return value
			}
		}
		// Plain = creates the field if absent; this is how structures
		// grow at runtime.
		st.Set(target.Field, value)
		return object.NULL
	}

	return newError("InvalidAssignTarget", node.Token)
}

// truthiness evaluates a condition expression and tests it: a Num other
// than 0 is true, 0 and null are false, anything else is a TypeError.
func truthiness(cond ast.Node, c *Context, env *object.Environment) (bool, object.Object) {
	value := Eval(cond, c, env)
	if isError(value) {
		return false, value
	}
	t, errObj := truthyValue(cond.GetToken(), value)
	if errObj != nil {
		return false, errObj
	}
	return t, nil
}

func truthyValue(tok token.Token, value object.Object) (bool, object.Object) {
	switch value := value.(type) {
	case *object.Num:
		return value.Value != 0, nil
	case *object.Null:
		return false, nil
	}
	return false, newError("TypeError", tok, "truth test", object.EmphType(value))
}

// arrayIndex converts an index value for an array of the given length,
// rejecting non-integral, negative, and out-of-bounds indices.
func arrayIndex(tok token.Token, index object.Object, length int) (int, *object.Error) {
	i, ok := asNonNegativeInt(index)
	if !ok {
		return 0, newError("IndexError", tok, index.Inspect())
	}
	if i >= length {
		return 0, newError("IndexError", tok, i, length)
	}
	return i, nil
}

func asInt(obj object.Object) (int, bool) {
	num, ok := obj.(*object.Num)
	if !ok || math.IsNaN(num.Value) || math.IsInf(num.Value, 0) || math.Trunc(num.Value) != num.Value {
		return 0, false
	}
	return int(num.Value), true
}

func asNonNegativeInt(obj object.Object) (int, bool) {
	i, ok := asInt(obj)
	if !ok || i < 0 {
		return 0, false
	}
	return i, true
}

func newError(ident string, tok token.Token, args ...any) *object.Error {
	return object.CreateErr(ident, tok, args...)
}

func isError(obj object.Object) bool {
	if obj != nil {
		return obj.Type() == object.ERROR_OBJ
	}
	return false
}
