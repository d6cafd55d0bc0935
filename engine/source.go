package engine

import (
	"context"

	"github.com/thisisjab/defscript/entity"
)

// StatementSource is an interface that defines the contract for statement sources (providers).
// Provide sends records in the order their statements must be evaluated and
// returns when the source is exhausted or ctx is cancelled.
type StatementSource interface {
	Name() string
	Provide(ctx context.Context, ch chan<- entity.Evaluation) error
	ProcessorNames() []string
}
