package lang

import (
	"testing"

	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang/value"
)

func TestSessionExec(t *testing.T) {
	s := NewSession(nil)

	results, err := s.Exec(`
		define x int 10      ; first
		define y float 2.5
		x * y
		assign x x + 1
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []value.Value{value.Int(10), value.Float(2.5), value.Float(25), value.Int(11)}
	if len(results) != len(expected) {
		t.Fatalf("expected %d results, got %d: %v", len(expected), len(results), results)
	}
	for i, v := range expected {
		if results[i] != v {
			t.Fatalf("#%d - expected %#v, got %#v", i, v, results[i])
		}
	}

	results, err = s.Exec("x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0] != value.Int(11) {
		t.Fatalf("expected bindings to persist between calls, got %v", results)
	}
}

func TestSessionExecStopsAtFirstFailure(t *testing.T) {
	s := NewSession(nil)

	results, err := s.Exec("define a int 1\nmissing\ndefine b int 2")
	if !fault.Is(err, fault.UndefinedVariableCode) {
		t.Fatalf("expected undefined variable error, got %v", err)
	}
	if len(results) != 1 || results[0] != value.Int(1) {
		t.Fatalf("expected the values before the failure, got %v", results)
	}

	bindings := s.Bindings()
	if _, ok := bindings["a"]; !ok {
		t.Fatal("expected binding made before the failure to persist")
	}
	if _, ok := bindings["b"]; ok {
		t.Fatal("expected statements after the failure not to run")
	}
}

func TestSessionSyntaxErrorsEvaluateNothing(t *testing.T) {
	tests := []struct {
		src  string
		code fault.Code
	}{
		{"define a int 1\n1 @ 2", fault.LexCode},
		{"define a int 1\n(1 + 2", fault.ParseCode},
	}

	for i, tt := range tests {
		s := NewSession(nil)

		results, err := s.Exec(tt.src)
		if !fault.Is(err, tt.code) {
			t.Fatalf("#%d - expected %s, got %v", i, tt.code, err)
		}
		if results != nil {
			t.Fatalf("#%d - expected no results, got %v", i, results)
		}
		if len(s.Bindings()) != 0 {
			t.Fatalf("#%d - expected nothing to be evaluated, got %v", i, s.Bindings())
		}
	}
}

func TestSessionReset(t *testing.T) {
	s := NewSession(nil)

	if _, err := s.Exec("define a int 1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Reset()

	if len(s.Bindings()) != 0 {
		t.Fatalf("expected no bindings after reset, got %v", s.Bindings())
	}
	if _, err := s.Exec("a"); !fault.Is(err, fault.UndefinedVariableCode) {
		t.Fatalf("expected undefined variable after reset, got %v", err)
	}
}

func TestSessionEmptyInput(t *testing.T) {
	results, err := NewSession(nil).Exec("   ; only a comment\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %v", results)
	}
}
