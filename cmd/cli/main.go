package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang"
	"github.com/thisisjab/defscript/lang/lexer"
	"github.com/thisisjab/defscript/lang/parser"
)

const prompt = "defscript> "

type runner struct {
	session    *lang.Session
	out        io.Writer
	errOut     io.Writer
	dumpAST    bool
	dumpTokens bool
}

func main() {
	expr := flag.String("e", "", "evaluate the given source and exit")
	dumpAST := flag.Bool("ast", false, "print the syntax tree of every statement")
	dumpTokens := flag.Bool("tokens", false, "print the tokens of the input")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}

	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	)

	r := &runner{
		session:    lang.NewSession(logger),
		out:        os.Stdout,
		errOut:     os.Stderr,
		dumpAST:    *dumpAST,
		dumpTokens: *dumpTokens,
	}

	switch {
	case *expr != "":
		if !r.run(*expr) {
			os.Exit(1)
		}

	case flag.NArg() > 0:
		content, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot read file: %v\n", err)
			os.Exit(1)
		}
		if !r.run(string(content)) {
			os.Exit(1)
		}

	default:
		if err := r.repl(os.Stdin, isTerminal(os.Stdin)); err != nil {
			fmt.Fprintf(os.Stderr, "cannot read input: %v\n", err)
			os.Exit(1)
		}
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// run evaluates src and prints one line per statement. It reports whether
// every statement succeeded.
func (r *runner) run(src string) bool {
	if r.dumpTokens || r.dumpAST {
		if !r.dump(src) {
			return false
		}
	}

	results, err := r.session.Exec(src)
	for _, v := range results {
		fmt.Fprintln(r.out, v)
	}

	if err != nil {
		r.printError(err)
		return false
	}

	return true
}

func (r *runner) dump(src string) bool {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		r.printError(err)
		return false
	}

	if r.dumpTokens {
		for _, tok := range tokens {
			fmt.Fprintf(r.out, "%s\t%s\n", tok.Pos, tok)
		}
	}

	if r.dumpAST {
		nodes, err := parser.New(tokens).ParseProgram()
		if err != nil {
			r.printError(err)
			return false
		}
		for _, n := range nodes {
			fmt.Fprintln(r.out, n)
		}
	}

	return true
}

// repl evaluates in one session line by line; a failing line does not end it.
func (r *runner) repl(in io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(in)

	for {
		if interactive {
			fmt.Fprint(r.out, prompt)
		}

		if !scanner.Scan() {
			if interactive {
				fmt.Fprintln(r.out)
			}
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case ":quit", ":q":
			return nil
		case ":reset":
			r.session.Reset()
			continue
		case ":bindings":
			bindings := r.session.Bindings()
			for _, name := range slices.Sorted(maps.Keys(bindings)) {
				v := bindings[name]
				fmt.Fprintf(r.out, "%s %s = %s\n", name, v.Kind(), v)
			}
			continue
		}

		r.run(line)
	}
}

func (r *runner) printError(err error) {
	code := fault.CodeOf(err)
	if phase := code.Phase(); phase != fault.PhaseNone {
		fmt.Fprintf(r.errOut, "%s error [%s]: %v\n", phase, code, err)
		return
	}

	fmt.Fprintf(r.errOut, "error: %v\n", err)
}
