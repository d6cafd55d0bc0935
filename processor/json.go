package processor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/thisisjab/defscript/entity"
)

const defaultStatementField = "statement"

type JsonStatementProcessorConfig struct {
	Name           string `yaml:"-"`
	StatementField string `yaml:"statement_field"`
}

// JsonStatementProcessor is a simple JSON processor. It parses JSON lines and extracts the statement,
// and any other fields will be considered as metadata.
type JsonStatementProcessor struct {
	cfg JsonStatementProcessorConfig
}

// NewJsonStatementProcessor creates a new instance of JsonStatementProcessor.
func NewJsonStatementProcessor(cfg JsonStatementProcessorConfig) (*JsonStatementProcessor, error) {
	if cfg.StatementField == "" {
		cfg.StatementField = defaultStatementField
	}

	return &JsonStatementProcessor{cfg: cfg}, nil
}

func (p *JsonStatementProcessor) Name() string {
	return p.cfg.Name
}

// Process parses a JSON line and extracts the statement and metadata.
func (p *JsonStatementProcessor) Process(record entity.Evaluation) (entity.Evaluation, error) {
	data := make(map[string]any)

	if err := json.Unmarshal(record.RawData, &data); err != nil {
		return record, fmt.Errorf("cannot parse json line: %w", err)
	}

	val, ok := data[p.cfg.StatementField]
	statement, isString := val.(string)
	if !ok || !isString {
		return record, errors.New("statement field is missing or not a string")
	}
	delete(data, p.cfg.StatementField)

	return withStatement(record, statement, data), nil
}
