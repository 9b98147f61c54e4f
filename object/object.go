package object

import (
	"strconv"
	"strings"

	"github.com/rafibayer/puffin/ast"
)

type ObjectType string

const (
	ERROR_OBJ  = "error"
	RETURN_OBJ = "return"

	NULL_OBJ      = "null"
	NUM_OBJ       = "num"
	STRING_OBJ    = "string"
	ARRAY_OBJ     = "array"
	STRUCTURE_OBJ = "structure"
	CLOSURE_OBJ   = "closure"
	BUILTIN_OBJ   = "builtin"
)

type Object interface {
	Type() ObjectType
	Inspect() string
}

func EmphType(o Object) string {
	return "<" + string(o.Type()) + ">"
}

type Null struct{}

func (n *Null) Type() ObjectType { return NULL_OBJ }
func (n *Null) Inspect() string  { return "null" }

// Num carries every Puffin number, including the truth values: 0 is
// false, any other Num is true.
type Num struct {
	Value float64
}

func (n *Num) Type() ObjectType { return NUM_OBJ }
func (n *Num) Inspect() string  { return FormatNum(n.Value) }

// FormatNum is the canonical rendering of a Num: shortest decimal that
// round-trips, no exponent, integral values without a decimal point.
func FormatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type String struct {
	Value string
}

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }

// Array is a shared mutable handle: the *Array pointer is the identity
// of the value, and every binding that holds it sees every mutation.
type Array struct {
	Elements []Object
}

func (a *Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string  { return render(a, make(map[Object]bool)) }

// Structure is a shared mutable handle like Array. Fields holds the
// field names in insertion order; Value holds the field values.
type Structure struct {
	Fields []string
	Value  map[string]Object
}

func NewStructure() *Structure {
	return &Structure{Value: make(map[string]Object)}
}

func (st *Structure) Type() ObjectType { return STRUCTURE_OBJ }
func (st *Structure) Inspect() string  { return render(st, make(map[Object]bool)) }

// Get returns the named field.
func (st *Structure) Get(name string) (Object, bool) {
	v, ok := st.Value[name]
	return v, ok
}

// Set writes a field, creating it at the end of the iteration order if
// it does not exist yet.
func (st *Structure) Set(name string, val Object) {
	if _, ok := st.Value[name]; !ok {
		st.Fields = append(st.Fields, name)
	}
	st.Value[name] = val
}

// Closure bundles parameter names, a body, and the environment that
// existed when the fn expression was evaluated. Self is non-nil for
// structure receivers: it is bound to the name "self" on every call.
type Closure struct {
	Params []string
	Body   *ast.Block
	Env    *Environment
	Self   *Structure
}

func (c *Closure) Type() ObjectType { return CLOSURE_OBJ }
func (c *Closure) Inspect() string  { return "<closure>" }

// Builtin identifies a host-provided function by name; the evaluator
// owns the registry of bodies.
type Builtin struct {
	Name string
}

func (b *Builtin) Type() ObjectType { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string  { return "<builtin:" + b.Name + ">" }

// Return is the control signal produced by a return statement. It is
// never a Puffin value: function application unwraps it, and the top
// level rejects it.
type Return struct {
	Value Object
}

func (r *Return) Type() ObjectType { return RETURN_OBJ }
func (r *Return) Inspect() string  { return r.Value.Inspect() }

var NULL = &Null{}

func MakeBool(b bool) *Num {
	if b {
		return &Num{Value: 1}
	}
	return &Num{Value: 0}
}

// render is the cycle-safe canonical rendering. A handle that is already
// being rendered shows as [...] or {...} rather than recursing forever.
func render(obj Object, seen map[Object]bool) string {
	switch obj := obj.(type) {
	case *Array:
		if seen[obj] {
			return "[...]"
		}
		seen[obj] = true
		elements := []string{}
		for _, e := range obj.Elements {
			elements = append(elements, render(e, seen))
		}
		delete(seen, obj)
		return "[" + strings.Join(elements, ", ") + "]"
	case *Structure:
		if seen[obj] {
			return "{...}"
		}
		seen[obj] = true
		fields := []string{}
		for _, name := range obj.Fields {
			fields = append(fields, name+": "+render(obj.Value[name], seen))
		}
		delete(seen, obj)
		return "{" + strings.Join(fields, ", ") + "}"
	default:
		return obj.Inspect()
	}
}

// Equals compares by variant, then by content: Nums numerically, Strings
// by bytes, Null equals Null, and Array/Structure/Closure by identity of
// the shared handle. A variant mismatch is unequal, never an error.
func Equals(lhs, rhs Object) bool {
	if lhs.Type() != rhs.Type() {
		return false
	}
	switch lhs := lhs.(type) {
	case *Num:
		return lhs.Value == rhs.(*Num).Value
	case *String:
		return lhs.Value == rhs.(*String).Value
	case *Null:
		return true
	case *Builtin:
		return lhs.Name == rhs.(*Builtin).Name
	default:
		// handle identity
		return lhs == rhs
	}
}
