package evaluator

// The builtin registry: a fixed mapping from reserved identifiers to
// host functions. The evaluator's only contract with a builtin is "call
// it with the evaluated argument vector".

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/rafibayer/puffin/object"
	"github.com/rafibayer/puffin/token"
)

type BuiltinFunction func(c *Context, args ...object.Object) object.Object

var Builtins = map[string]BuiltinFunction{
	"str":     builtinStr,
	"len":     builtinLen,
	"print":   builtinPrint,
	"println": builtinPrintln,
	"error":   builtinError,

	"sin":   floatOp("sin", math.Sin),
	"cos":   floatOp("cos", math.Cos),
	"tan":   floatOp("tan", math.Tan),
	"sqrt":  floatOp("sqrt", math.Sqrt),
	"abs":   floatOp("abs", math.Abs),
	"round": floatOp("round", math.Round),
	"pow":   builtinPow,

	"input_str": inputOp(false),
	"input_num": inputOp(true),

	"push":   builtinPush,
	"pop":    builtinPop,
	"remove": builtinRemove,
	"insert": builtinInsert,

	"rand": builtinRand,
}

// Num constants bound in the global environment. The truth values are
// Num aliases: logical operators yield exactly 0 or 1.
var Constants = map[string]float64{
	"PI":      math.Pi,
	"EPSILON": math.Nextafter(1, 2) - 1,
	"true":    1,
	"false":   0,
}

// NewGlobalEnvironment returns a root environment pre-populated with the
// builtin functions and constants.
func NewGlobalEnvironment() *object.Environment {
	env := object.NewEnvironment()
	for name, value := range Constants {
		env.Set(name, &object.Num{Value: value})
	}
	for name := range Builtins {
		env.Set(name, &object.Builtin{Name: name})
	}
	return env
}

// IsReserved reports whether a name belongs to the builtin registry and
// therefore cannot be an assignment target.
func IsReserved(name string) bool {
	if _, ok := Builtins[name]; ok {
		return true
	}
	_, ok := Constants[name]
	return ok
}

func builtinStr(c *Context, args ...object.Object) object.Object {
	if errObj := expectArgs("str", 1, args); errObj != nil {
		return errObj
	}
	return &object.String{Value: args[0].Inspect()}
}

func builtinLen(c *Context, args ...object.Object) object.Object {
	if errObj := expectArgs("len", 1, args); errObj != nil {
		return errObj
	}
	switch arg := args[0].(type) {
	case *object.String:
		return &object.Num{Value: float64(len(arg.Value))}
	case *object.Array:
		return &object.Num{Value: float64(len(arg.Elements))}
	case *object.Structure:
		return &object.Num{Value: float64(len(arg.Fields))}
	}
	return newError("TypeError", token.Token{}, "'len'", object.EmphType(args[0]))
}

func builtinPrint(c *Context, args ...object.Object) object.Object {
	fmt.Fprint(c.Out, renderArgs(args))
	return object.NULL
}

func builtinPrintln(c *Context, args ...object.Object) object.Object {
	fmt.Fprintln(c.Out, renderArgs(args))
	return object.NULL
}

// error(...) writes its own diagnostic and terminates the program with a
// non-zero status; the resulting error object is marked as already
// reported so the top level doesn't print it twice.
func builtinError(c *Context, args ...object.Object) object.Object {
	fmt.Fprintln(c.Err, renderArgs(args))
	return newError(object.UserErrorId, token.Token{})
}

func renderArgs(args []object.Object) string {
	rendered := make([]string, 0, len(args))
	for _, arg := range args {
		rendered = append(rendered, arg.Inspect())
	}
	return strings.Join(rendered, " ")
}

func floatOp(name string, f func(float64) float64) BuiltinFunction {
	return func(c *Context, args ...object.Object) object.Object {
		if errObj := expectArgs(name, 1, args); errObj != nil {
			return errObj
		}
		num, ok := args[0].(*object.Num)
		if !ok {
			return newError("TypeError", token.Token{}, "'"+name+"'", object.EmphType(args[0]))
		}
		return &object.Num{Value: f(num.Value)}
	}
}

func builtinPow(c *Context, args ...object.Object) object.Object {
	if errObj := expectArgs("pow", 2, args); errObj != nil {
		return errObj
	}
	base, okBase := args[0].(*object.Num)
	exp, okExp := args[1].(*object.Num)
	if !okBase || !okExp {
		return newError("TypeError", token.Token{}, "'pow'",
			object.EmphType(args[0])+" and "+object.EmphType(args[1]))
	}
	return &object.Num{Value: math.Pow(base.Value, exp.Value)}
}

// input_str and input_num print their arguments as a prompt, then read a
// line from stdin.
func inputOp(parseNum bool) BuiltinFunction {
	return func(c *Context, args ...object.Object) object.Object {
		fmt.Fprint(c.Out, renderArgs(args))
		line, err := c.In.ReadString('\n')
		if err != nil && line == "" {
			return newError("ValueError", token.Token{}, "failed to read input")
		}
		line = strings.TrimRight(line, "\r\n")
		if !parseNum {
			return &object.String{Value: line}
		}
		parsed, parseErr := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if parseErr != nil {
			return newError("ValueError", token.Token{}, "failed to parse number from input")
		}
		return &object.Num{Value: parsed}
	}
}

func builtinPush(c *Context, args ...object.Object) object.Object {
	if errObj := expectArgs("push", 2, args); errObj != nil {
		return errObj
	}
	arr, ok := args[0].(*object.Array)
	if !ok {
		return newError("TypeError", token.Token{}, "'push'", object.EmphType(args[0]))
	}
	arr.Elements = append(arr.Elements, args[1])
	return object.NULL
}

func builtinPop(c *Context, args ...object.Object) object.Object {
	if errObj := expectArgs("pop", 1, args); errObj != nil {
		return errObj
	}
	arr, ok := args[0].(*object.Array)
	if !ok {
		return newError("TypeError", token.Token{}, "'pop'", object.EmphType(args[0]))
	}
	if len(arr.Elements) == 0 {
		return newError("ValueError", token.Token{}, "pop from empty array")
	}
	last := arr.Elements[len(arr.Elements)-1]
	arr.Elements = arr.Elements[:len(arr.Elements)-1]
	return last
}

func builtinRemove(c *Context, args ...object.Object) object.Object {
	if errObj := expectArgs("remove", 2, args); errObj != nil {
		return errObj
	}
	arr, ok := args[0].(*object.Array)
	if !ok {
		return newError("TypeError", token.Token{}, "'remove'", object.EmphType(args[0]))
	}
	i, errObj := arrayIndex(token.Token{}, args[1], len(arr.Elements))
	if errObj != nil {
		return errObj
	}
	removed := arr.Elements[i]
	arr.Elements = append(arr.Elements[:i], arr.Elements[i+1:]...)
	return removed
}

func builtinInsert(c *Context, args ...object.Object) object.Object {
	if errObj := expectArgs("insert", 3, args); errObj != nil {
		return errObj
	}
	arr, ok := args[0].(*object.Array)
	if !ok {
		return newError("TypeError", token.Token{}, "'insert'", object.EmphType(args[0]))
	}
	// insert may target one past the end, which appends.
	i, ok := asNonNegativeInt(args[1])
	if !ok {
		return newError("IndexError", token.Token{}, args[1].Inspect())
	}
	if i > len(arr.Elements) {
		return newError("IndexError", token.Token{}, i, len(arr.Elements))
	}
	arr.Elements = append(arr.Elements, nil)
	copy(arr.Elements[i+1:], arr.Elements[i:])
	arr.Elements[i] = args[2]
	return object.NULL
}

func builtinRand(c *Context, args ...object.Object) object.Object {
	if errObj := expectArgs("rand", 0, args); errObj != nil {
		return errObj
	}
	return &object.Num{Value: rand.Float64()}
}

func expectArgs(name string, n int, args []object.Object) *object.Error {
	if len(args) != n {
		return newError("ArityError", token.Token{}, n, len(args))
	}
	return nil
}
