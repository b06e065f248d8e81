package contract

import (
	"context"

	"medscribe-be/internal/entity"
)

type MemorySummaryRepository interface {
	Create(ctx context.Context, summary *entity.MemorySummary) error
	// SearchSimilar is always filtered by the (user, case) pair.
	SearchSimilar(ctx context.Context, embedding []float32, userId, caseId string, limit int) ([]*entity.ScoredMemorySummary, error)
	// ListByPair returns entries newest first, at most limit rows.
	ListByPair(ctx context.Context, userId, caseId string, limit int) ([]*entity.MemorySummary, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	Count(ctx context.Context, userId, caseId string) (int64, error)
}
