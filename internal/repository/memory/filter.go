// Package memory holds process-local repositories. They back unit tests and
// the degraded mode used when no database is configured.
package memory

import (
	"fmt"

	"medscribe-be/internal/repository/specification"
)

// ErrUnsupportedSpecification is returned for specifications that only make sense in SQL.
type ErrUnsupportedSpecification struct {
	Spec specification.Specification
}

func (e ErrUnsupportedSpecification) Error() string {
	return fmt.Sprintf("memory repository: unsupported specification %T", e.Spec)
}

func paginate[T any](items []T, specs []specification.Specification) []T {
	for _, spec := range specs {
		p, ok := spec.(specification.Pagination)
		if !ok {
			continue
		}
		if p.Offset > 0 {
			if p.Offset >= len(items) {
				return nil
			}
			items = items[p.Offset:]
		}
		if p.Limit > 0 && len(items) > p.Limit {
			items = items[:p.Limit]
		}
	}
	return items
}
