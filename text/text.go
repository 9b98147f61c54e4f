package text

import (
	"strconv"

	"github.com/rafibayer/puffin/token"
)

const (
	VERSION = "0.2"
	PROMPT  = ">>> "
)

func Emph(s string) string {
	return CYAN + "'" + s + "'" + RESET
}

func Red(s string) string {
	return RED + s + RESET
}

func Green(s string) string {
	return GREEN + s + RESET
}

func Yellow(s string) string {
	return YELLOW + s + RESET
}

// DescribePos renders a token's position for diagnostics. Positions are
// best-effort: REPL input has no meaningful source name.
func DescribePos(tok token.Token) string {
	if tok.Source == "" || tok.Source == ReplSource {
		return " at line " + strconv.Itoa(tok.Line)
	}
	return " at line " + strconv.Itoa(tok.Line) + " of " + Emph(tok.Source)
}

const ReplSource = "REPL input"

var (
	RESET  = "\033[0m"
	RED    = "\033[31m"
	GREEN  = "\033[32m"
	YELLOW = "\033[33m"
	CYAN   = "\033[36m"

	ERROR = Red("error") + ": "
)
