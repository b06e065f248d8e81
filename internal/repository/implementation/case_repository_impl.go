package implementation

import (
	"context"
	"errors"
	"time"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/mapper"
	"medscribe-be/internal/model"
	"medscribe-be/internal/repository/contract"
	"medscribe-be/internal/repository/specification"

	"gorm.io/gorm"
)

type CaseRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.CaseMapper
}

func NewCaseRepository(db *gorm.DB) contract.CaseRepository {
	return &CaseRepositoryImpl{
		db:     db,
		mapper: mapper.NewCaseMapper(),
	}
}

func (r *CaseRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *CaseRepositoryImpl) Create(ctx context.Context, c *entity.Case) error {
	m := r.mapper.ToModel(c)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*c = *r.mapper.ToEntity(m)
	return nil
}

func (r *CaseRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Case, error) {
	var m model.Case
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *CaseRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Case, error) {
	var models []*model.Case
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *CaseRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Case{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *CaseRepositoryImpl) MarkIndexed(ctx context.Context, caseId string, chunkCount int, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Case{}).
		Where("id = ?", caseId).
		Updates(map[string]interface{}{"indexed_at": at, "chunk_count": chunkCount}).Error
}

func (r *CaseRepositoryImpl) ClearIndexed(ctx context.Context, caseId string) error {
	return r.db.WithContext(ctx).Model(&model.Case{}).
		Where("id = ?", caseId).
		Updates(map[string]interface{}{"indexed_at": nil, "chunk_count": 0}).Error
}

func (r *CaseRepositoryImpl) MarkInsights(ctx context.Context, caseId string, path string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Case{}).
		Where("id = ?", caseId).
		Updates(map[string]interface{}{"insights_path": path, "insights_at": at}).Error
}
