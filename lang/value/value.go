// Package value defines the runtime values of the language.
package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the runtime value category. Kinds double as the type tags
// accepted by `define`.
type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindChar
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindChar:
		return "char"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var kinds = map[string]Kind{
	"int":    KindInt,
	"float":  KindFloat,
	"string": KindString,
	"char":   KindChar,
	"bool":   KindBool,
}

// ParseKind maps a type tag (case-insensitive) to its Kind.
func ParseKind(tag string) (Kind, bool) {
	k, ok := kinds[strings.ToLower(tag)]
	return k, ok
}

// Value is the interface for all runtime values.
// The unexported marker keeps the set of implementations closed.
type Value interface {
	value()
	Kind() Kind
	String() string
}

type Int int64

func (Int) value() {}
func (Int) Kind() Kind { return KindInt }
func (v Int) String() string { return strconv.FormatInt(int64(v), 10) }

type Float float64

func (Float) value() {}
func (Float) Kind() Kind { return KindFloat }

// String always renders a fractional part so floats stay distinguishable from ints.
func (v Float) String() string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 64)
	if strings.ContainsAny(s, ".IN") {
		return s
	}
	return s + ".0"
}

type String string

func (String) value() {}
func (String) Kind() Kind { return KindString }
func (v String) String() string { return string(v) }

type Char rune

func (Char) value() {}
func (Char) Kind() Kind { return KindChar }
func (v Char) String() string { return string(rune(v)) }

type Bool bool

func (Bool) value() {}
func (Bool) Kind() Kind { return KindBool }
func (v Bool) String() string {
	if v {
		return "true"
	}
	return "false"
}

// Truthy returns the boolean interpretation of a value.
// false, 0, 0.0 and "" are falsy; everything else is truthy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Int:
		return val != 0
	case Float:
		return val != 0
	case String:
		return val != ""
	case Char:
		return true
	default:
		return false
	}
}

// Native converts a value into the matching Go value, for JSON encoding and storage.
func Native(v Value) any {
	switch val := v.(type) {
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case Char:
		return string(rune(val))
	case Bool:
		return bool(val)
	default:
		return nil
	}
}
