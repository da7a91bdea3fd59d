package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type boolFlag interface {
	IsBoolFlag() bool
}

// parseFlags parses args with fs, allowing flags and positional arguments
// to be interleaved. It returns the positional arguments. A help request
// prints usage and returns flag.ErrHelp.
func parseFlags(fs *flag.FlagSet, usage string, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)

	var flagArgs, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if !isFlagToken(arg) {
			positional = append(positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		hasValue := false
		if idx := strings.Index(name, "="); idx >= 0 {
			name = name[:idx]
			hasValue = true
		}
		if name == "h" || name == "help" {
			printCommandUsage(fs, usage)
			return nil, flag.ErrHelp
		}

		f := fs.Lookup(name)
		if f == nil {
			return nil, usageError("unknown flag: %s", arg)
		}
		flagArgs = append(flagArgs, arg)
		if hasValue {
			continue
		}
		if bf, ok := f.Value.(boolFlag); ok && bf.IsBoolFlag() {
			continue
		}
		if i+1 >= len(args) {
			return nil, usageError("flag needs an argument: %s", arg)
		}
		i++
		flagArgs = append(flagArgs, args[i])
	}

	if err := fs.Parse(flagArgs); err != nil {
		return nil, usageError("%v", err)
	}
	return positional, nil
}

// isFlagToken reports whether arg looks like a flag. Negative numbers are
// values, not flags.
func isFlagToken(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	if _, err := strconv.ParseFloat(arg, 64); err == nil {
		return false
	}
	return true
}

func printCommandUsage(fs *flag.FlagSet, usage string) {
	fmt.Fprintf(os.Stdout, "Usage: %s\n", usage)
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fs.SetOutput(io.Discard)
}

// handleHelp turns a help request into a successful exit.
func handleHelp(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

type token struct {
	text   string
	quoted bool
}

// tokenizeExpression splits a query expression on whitespace. Single or
// double quotes group a token and mark it as a string.
func tokenizeExpression(input string) ([]token, error) {
	var (
		tokens  []token
		current strings.Builder
		quote   rune
		inToken bool
		quoted  bool
	)
	flush := func() {
		if inToken {
			tokens = append(tokens, token{text: current.String(), quoted: quoted})
		}
		current.Reset()
		inToken = false
		quoted = false
	}

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inToken = true
			quoted = true
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	if quote != 0 {
		return nil, usageError("unterminated quote in expression %q", input)
	}
	flush()
	return tokens, nil
}

// parseValue converts a value token: quoted tokens are strings, otherwise
// integers, then floats, then bare strings.
func parseValue(t token) any {
	if t.quoted {
		return t.text
	}
	if i, err := strconv.ParseInt(t.text, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(t.text, 64); err == nil {
		return f
	}
	return t.text
}
