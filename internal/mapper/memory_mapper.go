package mapper

import (
	"medscribe-be/internal/entity"
	"medscribe-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type MemoryMapper struct{}

func NewMemoryMapper() *MemoryMapper {
	return &MemoryMapper{}
}

func (m *MemoryMapper) ToEntity(s *model.MemorySummary) *entity.MemorySummary {
	if s == nil {
		return nil
	}
	return &entity.MemorySummary{
		Id:        s.Id,
		UserId:    s.UserId,
		CaseId:    s.CaseId,
		Summary:   s.Summary,
		Embedding: s.Embedding.Slice(),
		CreatedAt: s.CreatedAt,
	}
}

func (m *MemoryMapper) ToModel(s *entity.MemorySummary) *model.MemorySummary {
	if s == nil {
		return nil
	}
	return &model.MemorySummary{
		Id:        s.Id,
		UserId:    s.UserId,
		CaseId:    s.CaseId,
		Summary:   s.Summary,
		Embedding: pgvector.NewVector(s.Embedding),
		CreatedAt: s.CreatedAt,
	}
}
