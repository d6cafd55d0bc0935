package ast

import (
	"fmt"
	"strconv"

	"github.com/thisisjab/defscript/lang/value"
)

// Node is the interface that all nodes in the syntax tree must implement.
// It uses a private marker method to ensure only types defined in this
// package can be used as nodes, creating a controlled "sum type" behavior.
type Node interface {
	node()
	String() string
}

// Operator names the operation of a UnaryOp or BinOp node.
type Operator string

const (
	OpAdd  Operator = "ADD"
	OpSub  Operator = "SUB"
	OpMul  Operator = "MUL"
	OpDiv  Operator = "DIV"
	OpFDiv Operator = "FDIV"
	OpMod  Operator = "MOD"

	OpEq  Operator = "EQ"
	OpNeq Operator = "NEQ"
	OpLt  Operator = "LT"
	OpLte Operator = "LTE"
	OpGt  Operator = "GT"
	OpGte Operator = "GTE"

	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
	OpNot Operator = "NOT"

	// OpNeg is arithmetic negation; it only appears in UnaryOp nodes.
	OpNeg Operator = "NEG"
)

var symbols = map[Operator]string{
	OpAdd:  "+",
	OpSub:  "-",
	OpMul:  "*",
	OpDiv:  "/",
	OpFDiv: "//",
	OpMod:  "%",
	OpEq:   "==",
	OpNeq:  "!=",
	OpLt:   "<",
	OpLte:  "<=",
	OpGt:   ">",
	OpGte:  ">=",
	OpAnd:  "&&",
	OpOr:   "||",
	OpNot:  "!",
	OpNeg:  "-",
}

// Symbol returns the source spelling of the operator, or its name if it has none.
func (o Operator) Symbol() string {
	if s, ok := symbols[o]; ok {
		return s
	}
	return string(o)
}

// Number is an integer or float literal. Value is either value.Int or value.Float.
type Number struct {
	Value value.Value
}

func (*Number) node() {}

func (n *Number) String() string {
	return fmt.Sprintf("Number(%s:%s)", n.Value.Kind(), n.Value)
}

type String struct {
	Value string
}

func (*String) node() {}

func (n *String) String() string {
	return "String(" + strconv.Quote(n.Value) + ")"
}

type Char struct {
	Value rune
}

func (*Char) node() {}

func (n *Char) String() string {
	return "Char(" + strconv.QuoteRune(n.Value) + ")"
}

// Boolean keeps the literal text; the evaluator decides what it means.
type Boolean struct {
	Literal string
}

func (*Boolean) node() {}

func (n *Boolean) String() string {
	return "Boolean(" + n.Literal + ")"
}

// Identifier references a bound variable.
type Identifier struct {
	Name string
}

func (*Identifier) node() {}

func (n *Identifier) String() string {
	return "Identifier(" + n.Name + ")"
}

type UnaryOp struct {
	Op      Operator
	Operand Node
}

func (*UnaryOp) node() {}

func (n *UnaryOp) String() string {
	return fmt.Sprintf("UnaryOp(%s, %s)", n.Op, n.Operand)
}

type BinOp struct {
	Left  Node
	Op    Operator
	Right Node
}

func (*BinOp) node() {}

func (n *BinOp) String() string {
	return fmt.Sprintf("BinOp(%s, %s, %s)", n.Left, n.Op, n.Right)
}

// Define introduces a binding in the current scope.
type Define struct {
	Name  string
	Type  value.Kind
	Value Node
}

func (*Define) node() {}

func (n *Define) String() string {
	return fmt.Sprintf("Define(%s %s, %s)", n.Name, n.Type, n.Value)
}

// Assign updates an existing binding.
type Assign struct {
	Name  string
	Value Node
}

func (*Assign) node() {}

func (n *Assign) String() string {
	return fmt.Sprintf("Assign(%s, %s)", n.Name, n.Value)
}
