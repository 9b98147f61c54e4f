package repl

import (
	"fmt"
	"io"
	"strings"

	"github.com/lmorg/readline"

	"github.com/rafibayer/puffin/evaluator"
	"github.com/rafibayer/puffin/object"
	"github.com/rafibayer/puffin/parser"
	"github.com/rafibayer/puffin/text"
)

// Start runs the interactive loop: one statement per line, evaluated in
// a persistent environment. Unlike file execution, the REPL prints the
// value of bare expressions and of top-level returns, and a runtime
// error ends the statement rather than the session.
func Start(out io.Writer) {
	fmt.Fprintln(out, "Puffin "+text.VERSION+" REPL (Ctrl-C to exit)")

	rline := readline.NewInstance()
	rline.SetPrompt(text.PROMPT)

	env := evaluator.NewGlobalEnvironment()
	ctx := evaluator.StdioContext()

	for {
		line, err := rline.Readline()
		if err != nil {
			fmt.Fprintln(out, text.ERROR+err.Error())
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		program, errors := parser.Parse(text.ReplSource, line)
		if len(errors) > 0 {
			for _, e := range errors {
				fmt.Fprintln(out, e.Describe())
			}
			continue
		}

		for _, stmt := range program.Statements {
			result := evaluator.EvalRepl(stmt, ctx, env)
			if errObj, ok := result.(*object.Error); ok {
				if errObj.ErrorId != object.UserErrorId {
					fmt.Fprintln(out, errObj.Describe())
				}
				break
			}
			if result.Type() != object.NULL_OBJ {
				fmt.Fprintln(out, result.Inspect())
			}
		}
	}
}
