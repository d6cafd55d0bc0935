package interpreter

import (
	"cmp"
	"math"

	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang/ast"
	"github.com/thisisjab/defscript/lang/value"
)

func applyUnary(op ast.Operator, operand value.Value) (value.Value, error) {
	switch op {
	case ast.OpNot:
		return value.Bool(!value.Truthy(operand)), nil
	case ast.OpNeg:
		switch v := operand.(type) {
		case value.Int:
			if v == math.MinInt64 {
				return nil, overflow(ast.OpNeg)
			}
			return -v, nil
		case value.Float:
			return -v, nil
		default:
			return nil, fault.Newf(fault.TypeMismatchCode, "unary '-' requires a number, got %s", operand.Kind())
		}
	default:
		return nil, fault.Newf(fault.UnknownOperatorCode, "unknown unary operator %s", op)
	}
}

func applyBinary(op ast.Operator, left, right value.Value) (value.Value, error) {
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpFDiv, ast.OpMod:
		return arithmetic(op, left, right)
	case ast.OpEq:
		return value.Bool(equal(left, right)), nil
	case ast.OpNeq:
		return value.Bool(!equal(left, right)), nil
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		return compare(op, left, right)
	case ast.OpAnd:
		return value.Bool(value.Truthy(left) && value.Truthy(right)), nil
	case ast.OpOr:
		return value.Bool(value.Truthy(left) || value.Truthy(right)), nil
	case ast.OpNot:
		// Binary NOT negates the left operand and ignores the right one.
		return value.Bool(!value.Truthy(left)), nil
	default:
		return nil, fault.Newf(fault.UnknownOperatorCode, "unknown operator %s", op)
	}
}

func arithmetic(op ast.Operator, left, right value.Value) (value.Value, error) {
	if op == ast.OpAdd {
		if l, ok := text(left); ok {
			if r, ok := text(right); ok {
				return value.String(l + r), nil
			}
		}
	}

	li, lIsInt := left.(value.Int)
	ri, rIsInt := right.(value.Int)
	if lIsInt && rIsInt {
		return intArithmetic(op, int64(li), int64(ri))
	}

	lf, lOk := number(left)
	rf, rOk := number(right)
	if lOk && rOk {
		return floatArithmetic(op, lf, rf)
	}

	return nil, mismatch(op, left, right)
}

func intArithmetic(op ast.Operator, a, b int64) (value.Value, error) {
	switch op {
	case ast.OpAdd:
		r := a + b
		if (b > 0 && r < a) || (b < 0 && r > a) {
			return nil, overflow(op)
		}
		return value.Int(r), nil
	case ast.OpSub:
		r := a - b
		if (b > 0 && r > a) || (b < 0 && r < a) {
			return nil, overflow(op)
		}
		return value.Int(r), nil
	case ast.OpMul:
		r := a * b
		if a != 0 && (r/a != b || (a == -1 && b == math.MinInt64)) {
			return nil, overflow(op)
		}
		return value.Int(r), nil
	case ast.OpDiv:
		if b == 0 {
			return nil, divisionByZero(op)
		}
		return value.Float(float64(a) / float64(b)), nil
	case ast.OpFDiv:
		if b == 0 {
			return nil, divisionByZero(op)
		}
		if a == math.MinInt64 && b == -1 {
			return nil, overflow(op)
		}
		q := a / b
		if a%b != 0 && (a < 0) != (b < 0) {
			q--
		}
		return value.Int(q), nil
	case ast.OpMod:
		if b == 0 {
			return nil, divisionByZero(op)
		}
		r := a % b
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return value.Int(r), nil
	default:
		return nil, fault.Newf(fault.UnknownOperatorCode, "unknown operator %s", op)
	}
}

func floatArithmetic(op ast.Operator, a, b float64) (value.Value, error) {
	switch op {
	case ast.OpAdd:
		return value.Float(a + b), nil
	case ast.OpSub:
		return value.Float(a - b), nil
	case ast.OpMul:
		return value.Float(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return nil, divisionByZero(op)
		}
		return value.Float(a / b), nil
	case ast.OpFDiv:
		if b == 0 {
			return nil, divisionByZero(op)
		}
		return value.Float(math.Floor(a / b)), nil
	case ast.OpMod:
		if b == 0 {
			return nil, divisionByZero(op)
		}
		r := math.Mod(a, b)
		if r != 0 && (r < 0) != (b < 0) {
			r += b
		}
		return value.Float(r), nil
	default:
		return nil, fault.Newf(fault.UnknownOperatorCode, "unknown operator %s", op)
	}
}

// equal never fails: values of unrelated kinds are simply not equal.
func equal(left, right value.Value) bool {
	if l, ok := left.(value.Int); ok {
		if r, ok := right.(value.Int); ok {
			return l == r
		}
	}

	if l, ok := number(left); ok {
		r, ok := number(right)
		return ok && l == r
	}

	if l, ok := text(left); ok {
		r, ok := text(right)
		return ok && l == r
	}

	if l, ok := left.(value.Bool); ok {
		r, ok := right.(value.Bool)
		return ok && l == r
	}

	return false
}

func compare(op ast.Operator, left, right value.Value) (value.Value, error) {
	var c int

	li, lIsInt := left.(value.Int)
	ri, rIsInt := right.(value.Int)
	lf, lIsNum := number(left)
	rf, rIsNum := number(right)
	ls, lIsText := text(left)
	rs, rIsText := text(right)

	switch {
	case lIsInt && rIsInt:
		c = cmp.Compare(li, ri)
	case lIsNum && rIsNum:
		if math.IsNaN(lf) || math.IsNaN(rf) {
			return value.Bool(false), nil
		}
		c = cmp.Compare(lf, rf)
	case lIsText && rIsText:
		c = cmp.Compare(ls, rs)
	default:
		return nil, fault.Newf(fault.TypeMismatchCode,
			"'%s' requires two numbers or two strings, got %s and %s", op.Symbol(), left.Kind(), right.Kind())
	}

	switch op {
	case ast.OpLt:
		return value.Bool(c < 0), nil
	case ast.OpLte:
		return value.Bool(c <= 0), nil
	case ast.OpGt:
		return value.Bool(c > 0), nil
	default:
		return value.Bool(c >= 0), nil
	}
}

func number(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n), true
	case value.Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// text treats strings and chars alike so they can be concatenated and compared.
func text(v value.Value) (string, bool) {
	switch s := v.(type) {
	case value.String:
		return string(s), true
	case value.Char:
		return string(rune(s)), true
	default:
		return "", false
	}
}

func divisionByZero(op ast.Operator) error {
	return fault.Newf(fault.DivisionByZeroCode, "division by zero in '%s'", op.Symbol())
}

func overflow(op ast.Operator) error {
	return fault.Newf(fault.IntegerOverflowCode, "integer overflow in '%s'", op.Symbol())
}

func mismatch(op ast.Operator, left, right value.Value) error {
	return fault.Newf(fault.TypeMismatchCode,
		"unsupported operand types for '%s': %s and %s", op.Symbol(), left.Kind(), right.Kind())
}
