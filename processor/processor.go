// Package processor turns the raw lines read by sources into statements.
package processor

import (
	"maps"
	"strings"

	"github.com/thisisjab/defscript/entity"
)

// withStatement returns a copy of record carrying statement, with metadata
// merged over whatever earlier processors attached.
func withStatement(record entity.Evaluation, statement string, metadata map[string]any) entity.Evaluation {
	record.Statement = strings.TrimSpace(statement)

	if len(metadata) > 0 {
		merged := make(map[string]any, len(record.Metadata)+len(metadata))
		maps.Copy(merged, record.Metadata)
		maps.Copy(merged, metadata)
		record.Metadata = merged
	}

	return record
}
