package contract

import (
	"context"
	"time"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/repository/specification"
)

type CaseRepository interface {
	Create(ctx context.Context, c *entity.Case) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Case, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Case, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MarkIndexed and MarkInsights only add derived data; raw content is never rewritten.
	MarkIndexed(ctx context.Context, caseId string, chunkCount int, at time.Time) error
	ClearIndexed(ctx context.Context, caseId string) error
	MarkInsights(ctx context.Context, caseId string, path string, at time.Time) error
}
