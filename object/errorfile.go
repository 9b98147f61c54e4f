package object

import (
	"fmt"

	"github.com/rafibayer/puffin/text"
	"github.com/rafibayer/puffin/token"
)

// Error is a Puffin runtime error. Errors are ordinary objects threaded
// through evaluation; there is no catch mechanism, so the first error
// produced propagates to the top level and ends the program.
type Error struct {
	ErrorId string
	Message string
	Token   token.Token
}

func (e *Error) Type() ObjectType { return ERROR_OBJ }
func (e *Error) Inspect() string  { return e.ErrorId + ": " + e.Message }

// Describe renders the one-line diagnostic shown on stderr.
func (e *Error) Describe() string {
	return text.ERROR + e.ErrorId + ": " + e.Message + text.DescribePos(e.Token)
}

type Errors []*Error

type ErrorCreator struct {
	Message func(tok token.Token, args ...any) string
}

// UserErrorId marks the error produced by the error(...) builtin, which
// writes its own diagnostic before terminating the program.
const UserErrorId = "UserError"

// A map from error identifiers to functions that supply the corresponding
// error messages. The identifiers are the language's error taxonomy, so
// they appear verbatim in diagnostics.
var ErrorCreatorMap = map[string]ErrorCreator{

	"NameError": {
		Message: func(tok token.Token, args ...any) string {
			return "unbound name " + text.Emph(args[0].(string))
		},
	},

	"RebindBuiltin": {
		Message: func(tok token.Token, args ...any) string {
			return text.Emph(args[0].(string)) + " is a builtin name and cannot be rebound"
		},
	},

	"TypeError": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("%s applied to %s", args[0], args[1])
		},
	},

	"ArityError": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("function of %v parameter(s) called with %v argument(s)", args[0], args[1])
		},
	},

	"IndexError": {
		Message: func(tok token.Token, args ...any) string {
			if len(args) == 2 {
				return fmt.Sprintf("index %v out of bounds for array of length %v", args[0], args[1])
			}
			return fmt.Sprintf("array index must be a non-negative integer, got %v", args[0])
		},
	},

	"FieldError": {
		Message: func(tok token.Token, args ...any) string {
			return "structure has no field " + text.Emph(args[0].(string))
		},
	},

	"ValueError": {
		Message: func(tok token.Token, args ...any) string {
			return args[0].(string)
		},
	},

	"InvalidAssignTarget": {
		Message: func(tok token.Token, args ...any) string {
			return "left-hand side of assignment is not a name, subscript, or field"
		},
	},

	"ReturnOutsideFunction": {
		Message: func(tok token.Token, args ...any) string {
			return "return used outside of a function body"
		},
	},

	"StackOverflow": {
		Message: func(tok token.Token, args ...any) string {
			return fmt.Sprintf("call depth exceeded %v", args[0])
		},
	},

	"ParseError": {
		Message: func(tok token.Token, args ...any) string {
			return args[0].(string)
		},
	},

	UserErrorId: {
		Message: func(tok token.Token, args ...any) string {
			return "program terminated by error(...)"
		},
	},
}

func CreateErr(ident string, tok token.Token, args ...any) *Error {
	creator, ok := ErrorCreatorMap[ident]
	if !ok {
		return &Error{ErrorId: ident, Message: "unknown error", Token: tok}
	}
	return &Error{ErrorId: ident, Message: creator.Message(tok, args...), Token: tok}
}
