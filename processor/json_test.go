package processor

import (
	"testing"

	"github.com/thisisjab/defscript/entity"
)

func TestJsonStatementProcessor(t *testing.T) {
	p, err := NewJsonStatementProcessor(JsonStatementProcessorConfig{Name: "json"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := entity.Evaluation{
		Source:   "events",
		RawData:  []byte(`{"statement": " define total int 10 ", "user": "ada", "attempt": 2}`),
		Metadata: map[string]any{"host": "a"},
	}

	processed, err := p.Process(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if processed.Statement != "define total int 10" {
		t.Fatalf("expected trimmed statement, got %q", processed.Statement)
	}
	if processed.Source != "events" {
		t.Fatalf("expected source to be kept, got %q", processed.Source)
	}
	if _, ok := processed.Metadata["statement"]; ok {
		t.Fatal("expected statement field to be removed from metadata")
	}
	if processed.Metadata["user"] != "ada" || processed.Metadata["attempt"] != float64(2) || processed.Metadata["host"] != "a" {
		t.Fatalf("unexpected metadata %v", processed.Metadata)
	}
	if len(record.Metadata) != 1 {
		t.Fatalf("expected input metadata to be left alone, got %v", record.Metadata)
	}
}

func TestJsonStatementProcessorCustomField(t *testing.T) {
	p, _ := NewJsonStatementProcessor(JsonStatementProcessorConfig{StatementField: "expr"})

	processed, err := p.Process(entity.Evaluation{RawData: []byte(`{"expr": "1 + 2"}`)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed.Statement != "1 + 2" {
		t.Fatalf("expected statement from custom field, got %q", processed.Statement)
	}
}

func TestJsonStatementProcessorErrors(t *testing.T) {
	p, _ := NewJsonStatementProcessor(JsonStatementProcessorConfig{})

	for i, raw := range []string{`not json`, `{"other": 1}`, `{"statement": 5}`} {
		if _, err := p.Process(entity.Evaluation{RawData: []byte(raw)}); err == nil {
			t.Fatalf("#%d - expected error for %s", i, raw)
		}
	}
}
