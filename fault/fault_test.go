package fault

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestFaultError(t *testing.T) {
	f := New(LexCode, "unexpected character '@'")
	if f.Error() != "unexpected character '@'" {
		t.Fatalf("expected plain message, got %q", f.Error())
	}

	wrapped := f.WithOriginal(io.EOF)
	if wrapped.Error() != "unexpected character '@': EOF" {
		t.Fatalf("expected message with original, got %q", wrapped.Error())
	}

	if !errors.Is(wrapped, io.EOF) {
		t.Fatal("expected fault to unwrap to its original error")
	}

	// With* must not mutate the receiver.
	if f.Original() != nil {
		t.Fatal("WithOriginal mutated the original fault")
	}
}

func TestNewf(t *testing.T) {
	f := Newf(UndefinedVariableCode, "undefined variable '%s'", "x")

	if f.Code() != UndefinedVariableCode || f.Message() != "undefined variable 'x'" {
		t.Fatalf("unexpected fault %s %q", f.Code(), f.Message())
	}
}

func TestIsAndCodeOf(t *testing.T) {
	err := fmt.Errorf("statement 2: %w", New(DivisionByZeroCode, "division by zero"))

	if !Is(err, DivisionByZeroCode) {
		t.Fatal("expected wrapped fault to match its code")
	}

	if Is(err, TypeMismatchCode) {
		t.Fatal("expected wrapped fault not to match another code")
	}

	if CodeOf(err) != DivisionByZeroCode {
		t.Fatalf("expected %s, got %s", DivisionByZeroCode, CodeOf(err))
	}

	if CodeOf(errors.New("boom")) != UnknownCode {
		t.Fatal("expected UnknownCode for plain errors")
	}
}

func TestCodePhase(t *testing.T) {
	tests := map[Code]Phase{
		LexCode:               PhaseLex,
		ParseCode:             PhaseParse,
		UndefinedVariableCode: PhaseEval,
		UnboundAssignmentCode: PhaseEval,
		UnknownOperatorCode:   PhaseEval,
		UnknownNodeCode:       PhaseEval,
		BadBooleanCode:        PhaseEval,
		DivisionByZeroCode:    PhaseEval,
		IntegerOverflowCode:   PhaseEval,
		TypeMismatchCode:      PhaseEval,
		NotFoundCode:          PhaseNone,
		BadInputCode:          PhaseNone,
	}

	for code, expected := range tests {
		if code.Phase() != expected {
			t.Fatalf("%s - expected phase `%s`, got `%s`", code, expected, code.Phase())
		}
	}
}
