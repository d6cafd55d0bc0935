package token

import (
	"fmt"

	"github.com/thisisjab/defscript/lang/value"
)

const (
	EOF TokenType = iota

	// Keywords
	DEFINE
	ASSIGN
	TYPE // int, float, string, char, bool

	// Identifiers + literals
	IDENT
	NUMBER
	STRING
	CHAR
	TRUE
	FALSE

	// Delimiters
	LPAREN
	RPAREN
	COMMA

	// Arithmetic
	ADD  // +
	SUB  // -
	MUL  // *
	DIV  // /
	FDIV // //
	MOD  // %

	// Comparison
	EQ  // ==
	NEQ // !=
	LT  // <
	LTE // <=
	GT  // >
	GTE // >=

	// Logical
	AND // && or "and"
	OR  // || or "or"
	NOT // ! or "not"
)

type TokenType int

var names = [...]string{
	EOF:    "EOF",
	DEFINE: "DEFINE",
	ASSIGN: "ASSIGN",
	TYPE:   "TYPE",
	IDENT:  "IDENT",
	NUMBER: "NUMBER",
	STRING: "STRING",
	CHAR:   "CHAR",
	TRUE:   "TRUE",
	FALSE:  "FALSE",
	LPAREN: "LPAREN",
	RPAREN: "RPAREN",
	COMMA:  "COMMA",
	ADD:    "ADD",
	SUB:    "SUB",
	MUL:    "MUL",
	DIV:    "DIV",
	FDIV:   "FDIV",
	MOD:    "MOD",
	EQ:     "EQ",
	NEQ:    "NEQ",
	LT:     "LT",
	LTE:    "LTE",
	GT:     "GT",
	GTE:    "GTE",
	AND:    "AND",
	OR:     "OR",
	NOT:    "NOT",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Position locates a token in the source. Line and Column are 1-based,
// Offset counts runes from the start of the input.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Type    TokenType
	Literal string

	// Value holds the decoded literal for NUMBER, STRING, CHAR, TRUE and FALSE tokens.
	Value value.Value

	Pos Position
}

func (t Token) String() string {
	if t.Type == EOF {
		return "EOF"
	}
	return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
}
