package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/thisisjab/defscript/lang"
)

func newTestRunner() (*runner, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &runner{session: lang.NewSession(nil), out: &out, errOut: &errOut}, &out, &errOut
}

func TestRun(t *testing.T) {
	r, out, errOut := newTestRunner()

	if !r.run("define x int 4\nx / 8\n\"a\" + 'b'") {
		t.Fatalf("unexpected failure: %s", errOut)
	}

	if out.String() != "4\n0.5\nab\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRunReportsErrors(t *testing.T) {
	r, out, errOut := newTestRunner()

	if r.run("define a int 1\na // 0") {
		t.Fatal("expected failure")
	}

	if out.String() != "1\n" {
		t.Fatalf("expected output of the statements before the failure, got %q", out.String())
	}
	if !strings.HasPrefix(errOut.String(), "eval error [division_by_zero]") {
		t.Fatalf("unexpected error output %q", errOut.String())
	}
}

func TestRunDumps(t *testing.T) {
	r, out, _ := newTestRunner()
	r.dumpAST = true
	r.dumpTokens = true

	if !r.run("1 + 2") {
		t.Fatal("unexpected failure")
	}

	got := out.String()
	for _, want := range []string{`NUMBER("1")`, "EOF", "BinOp(Number(int:1), ADD, Number(int:2))", "3\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected output to contain %q, got %q", want, got)
		}
	}
}

func TestREPL(t *testing.T) {
	r, out, errOut := newTestRunner()

	input := strings.Join([]string{
		"define x int 1",
		"missing",
		"assign x x + 41",
		":bindings",
		":reset",
		"x",
		":quit",
		"1 + 1",
	}, "\n")

	if err := r.repl(strings.NewReader(input), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.String() != "1\n42\nx int = 42\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "undefined_variable") || !strings.Contains(lines[1], "undefined_variable") {
		t.Fatalf("unexpected error output %q", errOut.String())
	}
}
