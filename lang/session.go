// Package lang ties the lexer, parser and interpreter together into sessions
// that keep their bindings between inputs.
package lang

import (
	"log/slog"

	"github.com/thisisjab/defscript/lang/interpreter"
	"github.com/thisisjab/defscript/lang/lexer"
	"github.com/thisisjab/defscript/lang/parser"
	"github.com/thisisjab/defscript/lang/value"
)

// Session evaluates source text against a persistent environment.
// A Session is not safe for concurrent use.
type Session struct {
	interpreter *interpreter.Interpreter
	logger      *slog.Logger
}

func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Session{
		interpreter: interpreter.New(logger),
		logger:      logger,
	}
}

// Exec tokenizes and parses the whole of src before evaluating its statements
// in order. Evaluation stops at the first failing statement; the values of
// the statements before it are returned along with the error and their
// bindings stay in place. Lex and parse errors evaluate nothing.
func (s *Session) Exec(src string) ([]value.Value, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}

	nodes, err := parser.New(tokens).ParseProgram()
	if err != nil {
		return nil, err
	}

	results := make([]value.Value, 0, len(nodes))
	for _, node := range nodes {
		v, err := s.interpreter.Eval(node)
		if err != nil {
			s.logger.Debug("statement failed", "statement", node.String(), "error", err)
			return results, err
		}
		results = append(results, v)
	}

	return results, nil
}

// Bindings returns a copy of every variable visible to the session.
func (s *Session) Bindings() map[string]value.Value {
	return s.interpreter.Environment().Snapshot()
}

// Reset drops every binding.
func (s *Session) Reset() {
	s.interpreter = interpreter.New(s.logger)
}
