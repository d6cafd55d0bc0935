// Package interpreter evaluates syntax trees against a variable environment.
package interpreter

import (
	"log/slog"

	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang/ast"
	"github.com/thisisjab/defscript/lang/value"
)

// Interpreter owns the environment of one evaluation session. Bindings made by
// one call to Eval are visible to the next. An Interpreter is not safe for
// concurrent use.
type Interpreter struct {
	env    *Environment
	logger *slog.Logger
}

// New creates an interpreter with a fresh global environment.
func New(logger *slog.Logger) *Interpreter {
	return NewWithEnvironment(NewEnvironment(nil), logger)
}

// NewWithEnvironment creates an interpreter that evaluates against env.
func NewWithEnvironment(env *Environment, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Interpreter{
		env:    env,
		logger: logger,
	}
}

func (in *Interpreter) Environment() *Environment {
	return in.env
}

// Eval evaluates node in the interpreter's environment.
func (in *Interpreter) Eval(node ast.Node) (value.Value, error) {
	return in.evaluate(node, in.env)
}

// Evaluate evaluates node against env without any session state.
func Evaluate(node ast.Node, env *Environment) (value.Value, error) {
	return NewWithEnvironment(env, nil).evaluate(node, env)
}

func (in *Interpreter) evaluate(node ast.Node, env *Environment) (value.Value, error) {
	switch n := node.(type) {
	case *ast.Number:
		if n.Value == nil {
			return nil, fault.New(fault.UnknownNodeCode, "number node without a value")
		}
		return n.Value, nil

	case *ast.String:
		return value.String(n.Value), nil

	case *ast.Char:
		return value.Char(n.Value), nil

	case *ast.Boolean:
		return evalBoolean(n.Literal)

	case *ast.Identifier:
		return env.Get(n.Name)

	case *ast.UnaryOp:
		operand, err := in.evaluate(n.Operand, env)
		if err != nil {
			return nil, err
		}
		return applyUnary(n.Op, operand)

	case *ast.BinOp:
		// Left is fully evaluated before right.
		left, err := in.evaluate(n.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := in.evaluate(n.Right, env)
		if err != nil {
			return nil, err
		}
		return applyBinary(n.Op, left, right)

	case *ast.Define:
		v, err := in.evaluate(n.Value, env)
		if err != nil {
			return nil, err
		}

		v, err = conform(n.Name, n.Type, v)
		if err != nil {
			return nil, err
		}

		env.Set(n.Name, v)
		in.logger.Debug("defined variable", "name", n.Name, "type", n.Type.String(), "value", v.String())

		return v, nil

	case *ast.Assign:
		if !env.Has(n.Name) {
			return nil, fault.Newf(fault.UnboundAssignmentCode, "undefined variable '%s' must be defined before assignment", n.Name)
		}

		v, err := in.evaluate(n.Value, env)
		if err != nil {
			return nil, err
		}

		if err := env.Assign(n.Name, v); err != nil {
			return nil, err
		}
		in.logger.Debug("assigned variable", "name", n.Name, "value", v.String())

		return v, nil

	default:
		return nil, fault.Newf(fault.UnknownNodeCode, "unknown node type: %T", node)
	}
}

func evalBoolean(literal string) (value.Value, error) {
	switch literal {
	case "true":
		return value.Bool(true), nil
	case "false":
		return value.Bool(false), nil
	default:
		return nil, fault.Newf(fault.BadBooleanCode, "invalid boolean value: %s", literal)
	}
}

// conform checks a value against the type a define statement declares.
// Integers widen to float; every other mismatch is an error.
func conform(name string, declared value.Kind, v value.Value) (value.Value, error) {
	if v.Kind() == declared {
		return v, nil
	}

	if i, ok := v.(value.Int); ok && declared == value.KindFloat {
		return value.Float(i), nil
	}

	return nil, fault.Newf(fault.TypeMismatchCode,
		"cannot define '%s' as %s with a %s value", name, declared, v.Kind())
}
