package entity

import (
	"time"

	"github.com/google/uuid"
)

type EvaluationStatus uint8

const (
	EvaluationStatusPending EvaluationStatus = iota
	EvaluationStatusSucceeded
	EvaluationStatusFailed
)

func (s EvaluationStatus) String() string {
	return [...]string{"PENDING", "SUCCEEDED", "FAILED"}[s]
}

// Evaluation follows one line of input through the engine. Sources fill in
// Source, RawData and Timestamp; processors turn RawData into Statement and
// Metadata; the engine records the outcome of evaluating the statement.
type Evaluation struct {
	ID        uuid.UUID      `json:"id"`
	Source    string         `json:"source"`
	RawData   []byte         `json:"-"`
	Statement string         `json:"statement"`
	Result    string         `json:"result,omitempty"`
	Kind      string         `json:"kind,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (e Evaluation) Status() EvaluationStatus {
	switch {
	case e.ErrorCode != "":
		return EvaluationStatusFailed
	case e.Kind != "":
		return EvaluationStatusSucceeded
	default:
		return EvaluationStatusPending
	}
}
