package contract

import (
	"context"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/repository/specification"
)

type ConversationRepository interface {
	Create(ctx context.Context, turn *entity.ConversationTurn) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// DeleteByUser is the only removal path. An empty caseId clears every turn of the user.
	DeleteByUser(ctx context.Context, userId string, caseId string) (int64, error)
}
