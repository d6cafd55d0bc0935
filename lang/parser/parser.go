package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang/ast"
	"github.com/thisisjab/defscript/lang/token"
	"github.com/thisisjab/defscript/lang/value"
)

// Parser builds syntax trees from a token sequence, one statement at a time.
// Grammar, from lowest to highest precedence:
//
//	statement  -> DEFINE IDENT TYPE expr | ASSIGN IDENT expr | expr
//	expr       -> and (OR and)*
//	and        -> equality (AND equality)*
//	equality   -> comparison ((EQ|NEQ) comparison)*
//	comparison -> additive ((LT|LTE|GT|GTE) additive)*
//	additive   -> term ((ADD|SUB) term)*
//	term       -> unary ((MUL|DIV|FDIV|MOD) unary)*
//	unary      -> (NOT|SUB) unary | factor
//	factor     -> NUMBER | IDENT | STRING | CHAR | TRUE | FALSE | '(' expr ')'
type Parser struct {
	tokens   []token.Token
	pos      int
	curToken token.Token
}

var binaryOperators = map[token.TokenType]ast.Operator{
	token.ADD:  ast.OpAdd,
	token.SUB:  ast.OpSub,
	token.MUL:  ast.OpMul,
	token.DIV:  ast.OpDiv,
	token.FDIV: ast.OpFDiv,
	token.MOD:  ast.OpMod,
	token.EQ:   ast.OpEq,
	token.NEQ:  ast.OpNeq,
	token.LT:   ast.OpLt,
	token.LTE:  ast.OpLte,
	token.GT:   ast.OpGt,
	token.GTE:  ast.OpGte,
	token.AND:  ast.OpAnd,
	token.OR:   ast.OpOr,
}

// New creates a parser over tokens. A trailing EOF token is added if missing.
func New(tokens []token.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != token.EOF {
		var pos token.Position
		if len(tokens) > 0 {
			pos = tokens[len(tokens)-1].Pos
		}
		tokens = append(slices.Clip(tokens), token.Token{Type: token.EOF, Pos: pos})
	}

	p := &Parser{tokens: tokens}
	p.curToken = tokens[0]

	return p
}

// Parse parses the first statement of tokens. Any tokens after it are ignored;
// use Parser.ParseProgram to consume every statement.
func Parse(tokens []token.Token) (ast.Node, error) {
	return New(tokens).ParseStatement()
}

func (p *Parser) nextToken() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.curToken = p.tokens[p.pos]
}

// AtEnd reports whether every statement has been consumed.
func (p *Parser) AtEnd() bool {
	return p.curToken.Type == token.EOF
}

// eat consumes the current token if it has the expected type.
func (p *Parser) eat(expected token.TokenType) (token.Token, error) {
	tok := p.curToken
	if tok.Type != expected {
		return tok, p.errorAt(tok, expected.String(), fmt.Sprintf("expected %s, found %s", expected, tok))
	}

	p.nextToken()
	return tok, nil
}

// ParseStatement consumes exactly one statement and leaves the remaining tokens
// for the next call. It returns a nil node when no tokens are left.
func (p *Parser) ParseStatement() (ast.Node, error) {
	switch p.curToken.Type {
	case token.EOF:
		return nil, nil
	case token.DEFINE:
		return p.parseDefine()
	case token.ASSIGN:
		return p.parseAssign()
	default:
		return p.parseExpr()
	}
}

// ParseProgram parses statements until the end of input.
func (p *Parser) ParseProgram() ([]ast.Node, error) {
	var nodes []ast.Node

	for !p.AtEnd() {
		n, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}

func (p *Parser) parseDefine() (ast.Node, error) {
	if _, err := p.eat(token.DEFINE); err != nil {
		return nil, err
	}

	name, err := p.eat(token.IDENT)
	if err != nil {
		return nil, err
	}

	typeTok, err := p.eat(token.TYPE)
	if err != nil {
		return nil, err
	}

	kind, ok := value.ParseKind(typeTok.Literal)
	if !ok {
		return nil, p.errorAt(typeTok, token.TYPE.String(), fmt.Sprintf("unknown type %q", typeTok.Literal))
	}

	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.Define{Name: name.Literal, Type: kind, Value: init}, nil
}

func (p *Parser) parseAssign() (ast.Node, error) {
	if _, err := p.eat(token.ASSIGN); err != nil {
		return nil, err
	}

	name, err := p.eat(token.IDENT)
	if err != nil {
		return nil, err
	}

	v, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &ast.Assign{Name: name.Literal, Value: v}, nil
}

func (p *Parser) parseExpr() (ast.Node, error) {
	return p.parseBinary(p.parseAnd, token.OR)
}

func (p *Parser) parseAnd() (ast.Node, error) {
	return p.parseBinary(p.parseEquality, token.AND)
}

func (p *Parser) parseEquality() (ast.Node, error) {
	return p.parseBinary(p.parseComparison, token.EQ, token.NEQ)
}

func (p *Parser) parseComparison() (ast.Node, error) {
	return p.parseBinary(p.parseAdditive, token.LT, token.LTE, token.GT, token.GTE)
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	return p.parseBinary(p.parseTerm, token.ADD, token.SUB)
}

func (p *Parser) parseTerm() (ast.Node, error) {
	return p.parseBinary(p.parseUnary, token.MUL, token.DIV, token.FDIV, token.MOD)
}

// parseBinary parses one left-associative precedence level: next (op next)*.
func (p *Parser) parseBinary(next func() (ast.Node, error), ops ...token.TokenType) (ast.Node, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for slices.Contains(ops, p.curToken.Type) {
		opTok, err := p.eat(p.curToken.Type)
		if err != nil {
			return nil, err
		}

		right, err := next()
		if err != nil {
			return nil, err
		}

		left = &ast.BinOp{Left: left, Op: binaryOperators[opTok.Type], Right: right}
	}

	return left, nil
}

func (p *Parser) parseUnary() (ast.Node, error) {
	var op ast.Operator
	switch p.curToken.Type {
	case token.NOT:
		op = ast.OpNot
	case token.SUB:
		op = ast.OpNeg
	default:
		return p.parseFactor()
	}

	if _, err := p.eat(p.curToken.Type); err != nil {
		return nil, err
	}

	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &ast.UnaryOp{Op: op, Operand: operand}, nil
}

func (p *Parser) parseFactor() (ast.Node, error) {
	tok := p.curToken

	switch tok.Type {
	case token.NUMBER:
		if _, err := p.eat(token.NUMBER); err != nil {
			return nil, err
		}
		return &ast.Number{Value: tok.Value}, nil

	case token.IDENT:
		if _, err := p.eat(token.IDENT); err != nil {
			return nil, err
		}
		return &ast.Identifier{Name: tok.Literal}, nil

	case token.STRING:
		if _, err := p.eat(token.STRING); err != nil {
			return nil, err
		}
		s, _ := tok.Value.(value.String)
		return &ast.String{Value: string(s)}, nil

	case token.CHAR:
		if _, err := p.eat(token.CHAR); err != nil {
			return nil, err
		}
		c, _ := tok.Value.(value.Char)
		return &ast.Char{Value: rune(c)}, nil

	case token.TRUE, token.FALSE:
		if _, err := p.eat(tok.Type); err != nil {
			return nil, err
		}
		return &ast.Boolean{Literal: strings.ToLower(tok.Literal)}, nil

	case token.LPAREN:
		return p.parseParenthesized()

	default:
		return nil, p.errorAt(tok, "expression", fmt.Sprintf("unexpected token %s", tok))
	}
}

func (p *Parser) parseParenthesized() (ast.Node, error) {
	open, err := p.eat(token.LPAREN)
	if err != nil {
		return nil, err
	}

	inner, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if _, err := p.eat(token.RPAREN); err != nil {
		return nil, p.errorAt(p.curToken, token.RPAREN.String(),
			fmt.Sprintf("unclosed parenthesis opened at %s: expected RPAREN, found %s", open.Pos, p.curToken))
	}

	return inner, nil
}

func (p *Parser) errorAt(tok token.Token, expected, msg string) fault.Fault {
	return fault.New(fault.ParseCode, msg+" at "+tok.Pos.String()).
		WithMetadata(fault.PositionMetadata{
			Offset:   tok.Pos.Offset,
			Line:     tok.Pos.Line,
			Column:   tok.Pos.Column,
			Expected: expected,
			Found:    tok.String(),
		})
}
