package fault

import (
	"errors"
	"fmt"
)

type Code string

const (
	UnknownCode  Code = "unknown"
	NotFoundCode Code = "not_found"
	BadInputCode Code = "bad_input"

	// Language pipeline codes.
	LexCode               Code = "lex_error"
	ParseCode             Code = "parse_error"
	UndefinedVariableCode Code = "undefined_variable"
	UnboundAssignmentCode Code = "unbound_assignment"
	UnknownOperatorCode   Code = "unknown_operator"
	UnknownNodeCode       Code = "unknown_node"
	BadBooleanCode        Code = "bad_boolean"
	DivisionByZeroCode    Code = "division_by_zero"
	IntegerOverflowCode   Code = "integer_overflow"
	TypeMismatchCode      Code = "type_mismatch"
)

type Phase string

const (
	PhaseNone  Phase = ""
	PhaseLex   Phase = "lex"
	PhaseParse Phase = "parse"
	PhaseEval  Phase = "eval"
)

// Phase reports which stage of the language pipeline raises faults with this code.
// Codes that do not belong to the pipeline report PhaseNone.
func (c Code) Phase() Phase {
	switch c {
	case LexCode:
		return PhaseLex
	case ParseCode:
		return PhaseParse
	case UndefinedVariableCode, UnboundAssignmentCode, UnknownOperatorCode,
		UnknownNodeCode, BadBooleanCode, DivisionByZeroCode, IntegerOverflowCode, TypeMismatchCode:
		return PhaseEval
	default:
		return PhaseNone
	}
}

type FieldErrorsMetadata map[string][]string

// PositionMetadata locates a lex or parse fault in the source text.
type PositionMetadata struct {
	Offset   int    `json:"offset"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Expected string `json:"expected,omitempty"`
	Found    string `json:"found,omitempty"`
}

type Fault struct {
	code     Code
	message  string
	metadata any
	original error
}

func New(code Code, message string) Fault {
	return Fault{
		code:    code,
		message: message,
	}
}

func Newf(code Code, format string, args ...any) Fault {
	return New(code, fmt.Sprintf(format, args...))
}

func (f Fault) WithMetadata(metadata any) Fault {
	e := f
	e.metadata = metadata
	return e
}

func (f Fault) WithOriginal(original error) Fault {
	e := f
	e.original = original
	return e
}

func (f Fault) Code() Code {
	return f.code
}

func (f Fault) Message() string {
	return f.message
}

func (f Fault) Metadata() any {
	return f.metadata
}

func (f Fault) Original() error {
	return f.original
}

func (f Fault) Unwrap() error {
	return f.original
}

func (f Fault) Error() string {
	if f.original != nil {
		return fmt.Sprintf("%s: %v", f.message, f.original)
	}
	return f.message
}

// CodeOf returns the code of the first Fault in err's chain, or UnknownCode.
func CodeOf(err error) Code {
	var f Fault
	if errors.As(err, &f) {
		return f.code
	}
	return UnknownCode
}

// Is reports whether err carries a Fault with the given code.
func Is(err error, code Code) bool {
	var f Fault
	return errors.As(err, &f) && f.code == code
}
