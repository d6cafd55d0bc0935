package interpreter_test

import (
	"fmt"
	"testing"

	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang/ast"
	"github.com/thisisjab/defscript/lang/interpreter"
	"github.com/thisisjab/defscript/lang/lexer"
	"github.com/thisisjab/defscript/lang/parser"
	"github.com/thisisjab/defscript/lang/value"
)

// --- helpers ---

// run evaluates every statement of src in order and returns the last value.
func run(t *testing.T, in *interpreter.Interpreter, src string) (value.Value, error) {
	t.Helper()

	tokens, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q) unexpected error: %v", src, err)
	}

	nodes, err := parser.New(tokens).ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram(%q) unexpected error: %v", src, err)
	}

	var last value.Value
	for _, n := range nodes {
		last, err = in.Eval(n)
		if err != nil {
			return nil, err
		}
	}

	return last, nil
}

func mustRun(t *testing.T, in *interpreter.Interpreter, src string) value.Value {
	t.Helper()
	v, err := run(t, in, src)
	if err != nil {
		t.Fatalf("%q - unexpected runtime error: %v", src, err)
	}
	return v
}

func expectFault(t *testing.T, err error, code fault.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got none", code)
	}
	if !fault.Is(err, code) {
		t.Fatalf("expected %s error, got %v (%s)", code, err, fault.CodeOf(err))
	}
}

// --- arithmetic ---

func TestIntegerArithmetic(t *testing.T) {
	pairs := [][2]int64{{7, 2}, {-7, 2}, {7, -2}, {-7, -2}, {0, 5}, {12, 4}, {1, 1000}}

	for _, p := range pairs {
		a, b := p[0], p[1]

		floorDiv := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			floorDiv--
		}
		mod := a - floorDiv*b

		expected := map[string]int64{
			"+":  a + b,
			"-":  a - b,
			"*":  a * b,
			"//": floorDiv,
			"%":  mod,
		}

		for op, want := range expected {
			src := fmt.Sprintf("(%d) %s (%d)", a, op, b)
			got := mustRun(t, interpreter.New(nil), src)
			if got != value.Int(want) {
				t.Fatalf("%s = %v, want %d", src, got, want)
			}
		}

		src := fmt.Sprintf("(%d) / (%d)", a, b)
		got := mustRun(t, interpreter.New(nil), src)
		if got != value.Float(float64(a)/float64(b)) {
			t.Fatalf("%s = %#v, want float %v", src, got, float64(a)/float64(b))
		}
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		src      string
		expected value.Value
	}{
		{"2 + 3 * 4", value.Int(14)},
		{"10 - 2 - 3", value.Int(5)},
		{"(2 + 3) * 4", value.Int(20)},
		{"7 / 2", value.Float(3.5)},
		{"6 / 3", value.Float(2)},
		{"7.5 // 2", value.Float(3)},
		{"-7.5 // 2", value.Float(-4)},
		{"5.5 % 2", value.Float(1.5)},
		{"-1.5 % 2", value.Float(0.5)},
		{"1 + 2.5", value.Float(3.5)},
		{"-(3 - 10)", value.Int(7)},
		{"-2.5 * 2", value.Float(-5)},
		{`"foo" + "bar"`, value.String("foobar")},
		{`"ab" + 'c'`, value.String("abc")},
		{"'a' + 'b'", value.String("ab")},
	}

	for i, tt := range tests {
		got := mustRun(t, interpreter.New(nil), tt.src)
		if got != tt.expected {
			t.Fatalf("#%d - %s = %#v, want %#v", i, tt.src, got, tt.expected)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, src := range []string{"5 / 0", "5 // 0", "5 % 0", "5.0 / 0", "1 // 0.0", "2.5 % 0"} {
		_, err := run(t, interpreter.New(nil), src)
		expectFault(t, err, fault.DivisionByZeroCode)
	}
}

func TestIntegerOverflow(t *testing.T) {
	const minInt = "(-9223372036854775807 - 1)"

	for _, src := range []string{
		"9223372036854775807 + 1",
		minInt + " - 1",
		"1 - " + minInt,
		"3074457345618258603 * 4",
		"-1 * " + minInt,
		minInt + " * -1",
		minInt + " // -1",
		"-" + minInt,
	} {
		_, err := run(t, interpreter.New(nil), src)
		expectFault(t, err, fault.IntegerOverflowCode)
	}

	// Results that land exactly on the boundaries are still fine.
	tests := map[string]value.Value{
		"9223372036854775806 + 1":  value.Int(9223372036854775807),
		minInt + " + 0":            value.Int(-9223372036854775808),
		"-9223372036854775807 - 1": value.Int(-9223372036854775808),
		"-4611686018427387904 * 2": value.Int(-9223372036854775808),
		minInt + " % -1":           value.Int(0),
		minInt + " // 1":           value.Int(-9223372036854775808),
		"-9223372036854775807":     value.Int(-9223372036854775807),
		"9223372036854775807 / -1": value.Float(-9223372036854775807),
	}

	for src, expected := range tests {
		got := mustRun(t, interpreter.New(nil), src)
		if got != expected {
			t.Fatalf("%s = %#v, want %#v", src, got, expected)
		}
	}
}

func TestTypeMismatch(t *testing.T) {
	for _, src := range []string{`"a" + 1`, `1 - "a"`, `"a" * 3`, "true + 1", `-"a"`, `1 < "a"`, "true < false"} {
		_, err := run(t, interpreter.New(nil), src)
		expectFault(t, err, fault.TypeMismatchCode)
	}
}

// --- comparison and logic ---

func TestComparisonAndLogic(t *testing.T) {
	tests := []struct {
		src      string
		expected bool
	}{
		{"1 == 1", true},
		{"1 == 1.0", true},
		{"1 != 2", true},
		{`"a" == "a"`, true},
		{`'a' == "a"`, true},
		{`1 == "1"`, false},
		{"true == true", true},
		{"true != false", true},
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 2.5", true},
		{"2 >= 3", false},
		{`"apple" < "banana"`, true},
		{"true && false", false},
		{"5 && 4", true},
		{"1 || 0", true},
		{"0 || 0", false},
		{`"" || 0.0`, false},
		{"!0", true},
		{"not 1", false},
		{"!!'x'", true},
		{"1 < 2 && 2 < 3", true},
		{"1 + 1 == 2 or false", true},
	}

	for i, tt := range tests {
		got := mustRun(t, interpreter.New(nil), tt.src)
		if got != value.Bool(tt.expected) {
			t.Fatalf("#%d - %s = %v, want %v", i, tt.src, got, tt.expected)
		}
	}
}

func TestBinaryNotNegatesLeftOperand(t *testing.T) {
	node := &ast.BinOp{Left: &ast.Number{Value: value.Int(0)}, Op: ast.OpNot, Right: &ast.Identifier{Name: "ignored"}}

	// The right operand is still evaluated, so it has to be bound.
	env := interpreter.NewEnvironment(nil)
	env.Set("ignored", value.Bool(false))

	got, err := interpreter.Evaluate(node, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != value.Bool(true) {
		t.Fatalf("expected true, got %v", got)
	}
}

// --- literals ---

func TestBooleanLiteral(t *testing.T) {
	env := interpreter.NewEnvironment(nil)

	for literal, expected := range map[string]bool{"true": true, "false": false} {
		got, err := interpreter.Evaluate(&ast.Boolean{Literal: literal}, env)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != value.Bool(expected) {
			t.Fatalf("%s evaluated to %v", literal, got)
		}
	}

	_, err := interpreter.Evaluate(&ast.Boolean{Literal: "yes"}, env)
	expectFault(t, err, fault.BadBooleanCode)
}

func TestLiterals(t *testing.T) {
	tests := map[string]value.Value{
		"42":      value.Int(42),
		"4.25":    value.Float(4.25),
		`"text"`:  value.String("text"),
		"'q'":     value.Char('q'),
		"TRUE":    value.Bool(true),
		"(false)": value.Bool(false),
	}

	for src, expected := range tests {
		got := mustRun(t, interpreter.New(nil), src)
		if got != expected {
			t.Fatalf("%s = %#v, want %#v", src, got, expected)
		}
	}
}

// --- bindings ---

func TestDefineAndRedefine(t *testing.T) {
	in := interpreter.New(nil)

	if got := mustRun(t, in, "define x int 10"); got != value.Int(10) {
		t.Fatalf("define returned %v, want 10", got)
	}
	if got := mustRun(t, in, "x"); got != value.Int(10) {
		t.Fatalf("x = %v, want 10", got)
	}

	mustRun(t, in, "define x int 99")
	if got := mustRun(t, in, "x"); got != value.Int(99) {
		t.Fatalf("x = %v, want 99", got)
	}

	mustRun(t, in, "define y int 20")
	if got := mustRun(t, in, "define result int (x + y) * 2"); got != value.Int(238) {
		t.Fatalf("result = %v, want 238", got)
	}
}

func TestDefineChecksDeclaredType(t *testing.T) {
	in := interpreter.New(nil)

	if got := mustRun(t, in, "define ratio float 3"); got != value.Float(3) {
		t.Fatalf("expected int to widen to float, got %#v", got)
	}

	for _, src := range []string{
		"define is_valid bool true",
		"define name string \"ada\"",
		"define initial char 'a'",
	} {
		mustRun(t, in, src)
	}

	for _, src := range []string{
		`define n int "ten"`,
		"define n int 2.5",
		"define c char \"ab\"",
		"define b bool 1",
	} {
		_, err := run(t, in, src)
		expectFault(t, err, fault.TypeMismatchCode)
	}

	if in.Environment().Has("n") || in.Environment().Has("c") || in.Environment().Has("b") {
		t.Fatal("expected failed defines not to bind anything")
	}
}

func TestAssign(t *testing.T) {
	in := interpreter.New(nil)

	_, err := run(t, in, "assign num1 100")
	expectFault(t, err, fault.UnboundAssignmentCode)

	if in.Environment().Has("num1") {
		t.Fatal("expected failed assignment not to create a binding")
	}

	mustRun(t, in, "define num1 int 7")
	if got := mustRun(t, in, "assign num1 100 ; reassign num1 to 100"); got != value.Int(100) {
		t.Fatalf("assign returned %v, want 100", got)
	}
	if got := mustRun(t, in, "num1"); got != value.Int(100) {
		t.Fatalf("num1 = %v, want 100", got)
	}

	mustRun(t, in, "assign num1 num1 * 2")
	if got := mustRun(t, in, "num1"); got != value.Int(200) {
		t.Fatalf("num1 = %v, want 200", got)
	}
}

func TestAssignUpdatesEnclosingScope(t *testing.T) {
	global := interpreter.NewEnvironment(nil)
	global.Set("total", value.Int(1))

	local := global.Child()
	node := &ast.Assign{Name: "total", Value: &ast.Number{Value: value.Int(5)}}

	if _, err := interpreter.Evaluate(node, local); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := global.Get("total"); v != value.Int(5) {
		t.Fatalf("expected enclosing binding to be updated, got %v", v)
	}
}

func TestUndefinedVariable(t *testing.T) {
	_, err := run(t, interpreter.New(nil), "undefined_name + 1")
	expectFault(t, err, fault.UndefinedVariableCode)
}

func TestLeftOperandEvaluatedFirst(t *testing.T) {
	// (define x int 1) + x: the right operand only resolves if the left ran first.
	node := &ast.BinOp{
		Left:  &ast.Define{Name: "x", Type: value.KindInt, Value: &ast.Number{Value: value.Int(1)}},
		Op:    ast.OpAdd,
		Right: &ast.Identifier{Name: "x"},
	}

	got, err := interpreter.Evaluate(node, interpreter.NewEnvironment(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != value.Int(2) {
		t.Fatalf("expected 2, got %v", got)
	}
}

// --- malformed trees ---

func TestUnknownOperatorsAndNodes(t *testing.T) {
	env := interpreter.NewEnvironment(nil)
	one := &ast.Number{Value: value.Int(1)}

	_, err := interpreter.Evaluate(&ast.BinOp{Left: one, Op: "POW", Right: one}, env)
	expectFault(t, err, fault.UnknownOperatorCode)

	_, err = interpreter.Evaluate(&ast.UnaryOp{Op: ast.OpAdd, Operand: one}, env)
	expectFault(t, err, fault.UnknownOperatorCode)

	_, err = interpreter.Evaluate(nil, env)
	expectFault(t, err, fault.UnknownNodeCode)

	_, err = interpreter.Evaluate(&ast.Number{}, env)
	expectFault(t, err, fault.UnknownNodeCode)
}

func TestSessionsAreIndependent(t *testing.T) {
	a := interpreter.New(nil)
	b := interpreter.New(nil)

	mustRun(t, a, "define shared int 1")

	_, err := run(t, b, "shared")
	expectFault(t, err, fault.UndefinedVariableCode)
}
