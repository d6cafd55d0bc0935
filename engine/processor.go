package engine

import (
	"errors"
	"log/slog"
	"maps"

	"github.com/google/uuid"
	"github.com/thisisjab/defscript/entity"
	"github.com/thisisjab/defscript/fault"
	"github.com/thisisjab/defscript/lang"
)

// StatementProcessor is an interface that defines the contract for statement processors.
type StatementProcessor interface {
	Process(record entity.Evaluation) (entity.Evaluation, error)
}

// pipeline runs the records of one source through its processors and its own
// session. Statements of a source depend on each other's bindings, so a
// pipeline handles one record at a time.
type pipeline struct {
	source     StatementSource
	processors map[string]StatementProcessor
	session    *lang.Session
	logger     *slog.Logger
}

func newPipeline(logger *slog.Logger, src StatementSource, processors map[string]StatementProcessor) *pipeline {
	logger = logger.With("source", src.Name())

	return &pipeline{
		source:     src,
		processors: processors,
		session:    lang.NewSession(logger),
		logger:     logger,
	}
}

// handle returns the finished record, and false when there was nothing to
// evaluate.
func (p *pipeline) handle(record entity.Evaluation) (entity.Evaluation, bool) {
	record.ID = uuid.New()
	record.Source = p.source.Name()

	record, err := p.process(record)
	if err != nil {
		p.logger.Error("Failed to process statement", "record_id", record.ID, "error", err)
		record.ErrorCode = string(fault.BadInputCode)
		record.Error = err.Error()
		return record, true
	}

	results, err := p.session.Exec(record.Statement)
	if err != nil {
		p.logger.Debug("statement failed", "record_id", record.ID, "error", err)
		return withFailure(record, err), true
	}

	if len(results) == 0 {
		return record, false
	}

	last := results[len(results)-1]
	record.Result = last.String()
	record.Kind = last.Kind().String()

	p.logger.Debug("evaluated statement", "record_id", record.ID, "result", record.Result)

	return record, true
}

func (p *pipeline) process(record entity.Evaluation) (entity.Evaluation, error) {
	for _, name := range p.source.ProcessorNames() {
		proc := p.processors[name]
		if proc == nil {
			p.logger.Warn("Processor not found", "processor", name)
			continue
		}

		processed, err := proc.Process(record)
		if err != nil {
			return record, err
		}

		record = processed
	}

	return record, nil
}

func withFailure(record entity.Evaluation, err error) entity.Evaluation {
	record.ErrorCode = string(fault.CodeOf(err))
	record.Error = err.Error()

	var f fault.Fault
	if errors.As(err, &f) {
		if pos, ok := f.Metadata().(fault.PositionMetadata); ok {
			metadata := make(map[string]any, len(record.Metadata)+1)
			maps.Copy(metadata, record.Metadata)
			metadata["error_position"] = pos
			record.Metadata = metadata
		}
	}

	return record
}
