package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/rfigueror1/decaf-compiler-1/lexer"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run scans a Decaf source file and prints its token stream, one token per
// line. It returns 1 if the file cannot be read or contains lexical errors.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("dcc", flag.ContinueOnError)
	flags.SetOutput(stderr)
	inputFilePath := flags.String("i", "", "Path to the Decaf source file")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if *inputFilePath == "" {
		fmt.Fprintln(stderr, "Error: Input file path is required. Use -i <filename.decaf>")
		return 1
	}

	codeBytes, err := os.ReadFile(*inputFilePath)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file %s: %v\n", *inputFilePath, err)
		return 1
	}

	lex := lexer.NewLexer(strings.NewReader(string(codeBytes)))
	errors := 0
	for tok := lex.NextToken(); tok.Type != lexer.EOF; tok = lex.NextToken() {
		if tok.Type == lexer.ERROR {
			fmt.Fprintf(stderr, "*** Error line %d: %s\n", tok.Line, tok.Literal)
			errors++
			continue
		}
		text := tok.Literal
		if tok.Type == lexer.STR_CONST {
			text = `"` + text + `"`
		}
		last := tok.Column + utf8.RuneCountInString(text) - 1
		fmt.Fprintf(stdout, "%-12s line %d cols %d-%d is %s\n", text, tok.Line, tok.Column, last, tok.Type)
	}

	if errors > 0 {
		return 1
	}
	return 0
}
