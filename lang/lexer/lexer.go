package lexer

import (
	"strconv"
	"strings"

	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang/token"
	"github.com/thisisjab/defscript/lang/value"
)

type Lexer struct {
	input   []rune
	pos     int  // position of the current character in the input string
	readPos int  // position of the next character to be read
	char    rune // current character being processed
	line    int  // line of the current character
	col     int  // column of the current character
}

var keywords = map[string]token.TokenType{
	"define": token.DEFINE,
	"assign": token.ASSIGN,
	"true":   token.TRUE,
	"false":  token.FALSE,
	"and":    token.AND,
	"or":     token.OR,
	"not":    token.NOT,
	"int":    token.TYPE,
	"float":  token.TYPE,
	"string": token.TYPE,
	"char":   token.TYPE,
	"bool":   token.TYPE,
}

func New(input string) *Lexer {
	l := &Lexer{input: []rune(input), line: 1}
	l.readChar()
	return l
}

// Tokenize scans the whole input. The returned slice always ends with an EOF token.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)

	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, tok)

		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

func (l *Lexer) readChar() {
	if l.char == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	if l.readPos >= len(l.input) {
		l.char = 0
	} else {
		l.char = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEnd() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) position() token.Position {
	return token.Position{Offset: l.pos, Line: l.line, Column: l.col}
}

func (l *Lexer) NextToken() (token.Token, error) {
	var tok token.Token

	l.skipWhitespaceAndComments()

	pos := l.position()

	if l.atEnd() {
		return token.Token{Type: token.EOF, Pos: pos}, nil
	}

	switch l.char {
	case '+':
		tok = token.Token{Type: token.ADD, Literal: "+"}
	case '-':
		tok = token.Token{Type: token.SUB, Literal: "-"}
	case '*':
		tok = token.Token{Type: token.MUL, Literal: "*"}
	case '%':
		tok = token.Token{Type: token.MOD, Literal: "%"}
	case '/':
		if l.peekChar() == '/' {
			l.readChar()
			tok = token.Token{Type: token.FDIV, Literal: "//"}
		} else {
			tok = token.Token{Type: token.DIV, Literal: "/"}
		}
	case '=':
		if l.peekChar() != '=' {
			return token.Token{}, l.errorAt(pos, "unexpected character '='; did you mean '=='?")
		}
		l.readChar()
		tok = token.Token{Type: token.EQ, Literal: "=="}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.NEQ, Literal: "!="}
		} else {
			tok = token.Token{Type: token.NOT, Literal: "!"}
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.LTE, Literal: "<="}
		} else {
			tok = token.Token{Type: token.LT, Literal: "<"}
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = token.Token{Type: token.GTE, Literal: ">="}
		} else {
			tok = token.Token{Type: token.GT, Literal: ">"}
		}
	case '&':
		if l.peekChar() != '&' {
			return token.Token{}, l.errorAt(pos, "unexpected character '&'; did you mean '&&'?")
		}
		l.readChar()
		tok = token.Token{Type: token.AND, Literal: "&&"}
	case '|':
		if l.peekChar() != '|' {
			return token.Token{}, l.errorAt(pos, "unexpected character '|'; did you mean '||'?")
		}
		l.readChar()
		tok = token.Token{Type: token.OR, Literal: "||"}
	case ',':
		tok = token.Token{Type: token.COMMA, Literal: ","}
	case '(':
		tok = token.Token{Type: token.LPAREN, Literal: "("}
	case ')':
		tok = token.Token{Type: token.RPAREN, Literal: ")"}
	case '"':
		return l.readString(pos)
	case '\'':
		return l.readCharLiteral(pos)
	default:
		if isLetter(l.char) {
			return l.readIdentifier(pos), nil
		} else if isDigit(l.char) {
			return l.readNumber(pos)
		}
		return token.Token{}, l.errorAt(pos, "unexpected character %q", l.char)
	}

	tok.Pos = pos
	l.readChar()
	return tok, nil
}

func (l *Lexer) readIdentifier(pos token.Position) token.Token {
	start := l.pos
	for isLetter(l.char) || isDigit(l.char) {
		l.readChar()
	}

	literal := string(l.input[start:l.pos])
	tok := token.Token{Type: lookupIdent(literal), Literal: literal, Pos: pos}

	switch tok.Type {
	case token.TRUE:
		tok.Value = value.Bool(true)
	case token.FALSE:
		tok.Value = value.Bool(false)
	}

	return tok
}

// lookupIdent resolves keywords and type tags case-insensitively; anything else is an identifier.
func lookupIdent(ident string) token.TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return token.IDENT
}

func (l *Lexer) readNumber(pos token.Position) (token.Token, error) {
	start := l.pos
	isFloat := false

	for isDigit(l.char) {
		l.readChar()
	}

	if l.char == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.char) {
			l.readChar()
		}
	}

	literal := string(l.input[start:l.pos])

	if isLetter(l.char) || l.char == '.' {
		return token.Token{}, l.errorAt(pos, "invalid number literal %q", literal+string(l.char))
	}

	tok := token.Token{Type: token.NUMBER, Literal: literal, Pos: pos}

	if isFloat {
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return token.Token{}, l.errorAt(pos, "invalid float literal %q", literal).WithOriginal(err)
		}
		tok.Value = value.Float(f)
		return tok, nil
	}

	n, err := strconv.ParseInt(literal, 10, 64)
	if err != nil {
		return token.Token{}, l.errorAt(pos, "invalid integer literal %q", literal).WithOriginal(err)
	}
	tok.Value = value.Int(n)

	return tok, nil
}

func (l *Lexer) readString(pos token.Position) (token.Token, error) {
	start := l.pos
	var sb strings.Builder

	for {
		l.readChar()

		if l.atEnd() || l.char == '\n' {
			return token.Token{}, l.errorAt(pos, "unterminated string literal")
		}

		if l.char == '"' {
			break
		}

		r, err := l.readEscapable(pos)
		if err != nil {
			return token.Token{}, err
		}
		sb.WriteRune(r)
	}

	// Skip the closing quote.
	l.readChar()

	return token.Token{
		Type:    token.STRING,
		Literal: string(l.input[start:l.pos]),
		Value:   value.String(sb.String()),
		Pos:     pos,
	}, nil
}

func (l *Lexer) readCharLiteral(pos token.Position) (token.Token, error) {
	start := l.pos

	l.readChar()
	if l.atEnd() || l.char == '\n' {
		return token.Token{}, l.errorAt(pos, "unterminated character literal")
	}
	if l.char == '\'' {
		return token.Token{}, l.errorAt(pos, "empty character literal")
	}

	r, err := l.readEscapable(pos)
	if err != nil {
		return token.Token{}, err
	}

	l.readChar()
	if l.char != '\'' {
		for !l.atEnd() && l.char != '\n' {
			if l.char == '\'' {
				return token.Token{}, l.errorAt(pos, "character literal must contain exactly one character")
			}
			l.readChar()
		}
		return token.Token{}, l.errorAt(pos, "unterminated character literal")
	}

	// Skip the closing quote.
	l.readChar()

	return token.Token{
		Type:    token.CHAR,
		Literal: string(l.input[start:l.pos]),
		Value:   value.Char(r),
		Pos:     pos,
	}, nil
}

// readEscapable decodes the current character, consuming a backslash escape if present.
func (l *Lexer) readEscapable(pos token.Position) (rune, error) {
	if l.char != '\\' {
		return l.char, nil
	}

	l.readChar()
	switch l.char {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case '\\', '"', '\'':
		return l.char, nil
	default:
		if l.atEnd() {
			return 0, l.errorAt(pos, "unterminated escape sequence")
		}
		return 0, l.errorAt(l.position(), "unknown escape sequence \\%c", l.char)
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.atEnd() {
		switch {
		case isWhitespace(l.char):
			l.readChar()
		case l.char == ';':
			for !l.atEnd() && l.char != '\n' {
				l.readChar()
			}
		default:
			return
		}
	}
}

func (l *Lexer) errorAt(pos token.Position, format string, args ...any) fault.Fault {
	return fault.Newf(fault.LexCode, format+" at %s", append(args, pos)...).
		WithMetadata(fault.PositionMetadata{Offset: pos.Offset, Line: pos.Line, Column: pos.Column})
}

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
