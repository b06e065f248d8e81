package implementation

import (
	"context"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/mapper"
	"medscribe-be/internal/model"
	"medscribe-be/internal/repository/contract"
	"medscribe-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationMapper(),
	}
}

func (r *ConversationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationRepositoryImpl) Create(ctx context.Context, turn *entity.ConversationTurn) error {
	m := r.mapper.ToModel(turn)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ConversationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error) {
	var models []*model.ConversationTurn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	turns := make([]*entity.ConversationTurn, len(models))
	for i, m := range models {
		turns[i] = r.mapper.ToEntity(m)
	}
	return turns, nil
}

func (r *ConversationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ConversationTurn{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *ConversationRepositoryImpl) DeleteByUser(ctx context.Context, userId string, caseId string) (int64, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userId)
	if caseId != "" {
		query = specification.ByCaseRef{CaseID: caseId}.Apply(query)
	}
	res := query.Delete(&model.ConversationTurn{})
	return res.RowsAffected, res.Error
}
