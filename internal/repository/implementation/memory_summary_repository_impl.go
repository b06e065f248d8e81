package implementation

import (
	"context"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/mapper"
	"medscribe-be/internal/model"
	"medscribe-be/internal/repository/contract"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type MemorySummaryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryMapper
}

func NewMemorySummaryRepository(db *gorm.DB) contract.MemorySummaryRepository {
	return &MemorySummaryRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryMapper(),
	}
}

func (r *MemorySummaryRepositoryImpl) Create(ctx context.Context, summary *entity.MemorySummary) error {
	return r.db.WithContext(ctx).Create(r.mapper.ToModel(summary)).Error
}

func (r *MemorySummaryRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, userId, caseId string, limit int) ([]*entity.ScoredMemorySummary, error) {
	if limit <= 0 {
		limit = 3
	}

	// Cosine distance in pgvector is 1 - cosine_similarity
	type result struct {
		model.MemorySummary
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table(model.MemorySummary{}.TableName()).
		Select("conversation_memory.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("user_id = ? AND case_id = ?", userId, caseId).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*entity.ScoredMemorySummary, len(results))
	for i, res := range results {
		scored[i] = &entity.ScoredMemorySummary{
			Summary:    r.mapper.ToEntity(&res.MemorySummary),
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}

func (r *MemorySummaryRepositoryImpl) ListByPair(ctx context.Context, userId, caseId string, limit int) ([]*entity.MemorySummary, error) {
	var models []*model.MemorySummary
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND case_id = ?", userId, caseId).
		Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.MemorySummary, len(models))
	for i, m := range models {
		out[i] = r.mapper.ToEntity(m)
	}
	return out, nil
}

func (r *MemorySummaryRepositoryImpl) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.MemorySummary{})
	return res.RowsAffected, res.Error
}

func (r *MemorySummaryRepositoryImpl) Count(ctx context.Context, userId, caseId string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MemorySummary{}).
		Where("user_id = ? AND case_id = ?", userId, caseId).
		Count(&count).Error
	return count, err
}
