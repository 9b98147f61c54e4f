package main

import (
	"fmt"
	"os"

	"github.com/rafibayer/puffin/evaluator"
	"github.com/rafibayer/puffin/lexer"
	"github.com/rafibayer/puffin/object"
	"github.com/rafibayer/puffin/parser"
	"github.com/rafibayer/puffin/repl"
	"github.com/rafibayer/puffin/text"
)

// puffin <source-file> [-parse] [-ast] executes a program; with no file
// it starts the REPL. Exit status is non-zero on any parse or runtime
// error, and on termination through error(...).
func main() {
	sourceFile := ""
	showParse := false
	showAST := false

	for _, arg := range os.Args[1:] {
		switch arg {
		case "-parse":
			showParse = true
		case "-ast":
			showAST = true
		default:
			if sourceFile != "" {
				fmt.Fprintln(os.Stderr, text.ERROR+"usage: puffin <source-file> [-parse] [-ast]")
				os.Exit(2)
			}
			sourceFile = arg
		}
	}

	if sourceFile == "" {
		repl.Start(os.Stdout)
		return
	}

	src, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, text.ERROR+err.Error())
		os.Exit(1)
	}

	if showParse {
		fmt.Print(lexer.Dump(sourceFile, string(src)))
	}

	program, errors := parser.Parse(sourceFile, string(src))
	if len(errors) > 0 {
		for _, e := range errors {
			fmt.Fprintln(os.Stderr, e.Describe())
		}
		os.Exit(1)
	}

	if showAST {
		fmt.Print(program.String())
	}

	env := evaluator.NewGlobalEnvironment()
	result := evaluator.Eval(program, evaluator.StdioContext(), env)
	if errObj, ok := result.(*object.Error); ok {
		if errObj.ErrorId != object.UserErrorId {
			fmt.Fprintln(os.Stderr, errObj.Describe())
		}
		os.Exit(1)
	}
}
