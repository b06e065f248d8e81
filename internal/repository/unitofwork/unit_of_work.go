package unitofwork

import (
	"context"

	"medscribe-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	CaseRepository() contract.CaseRepository
	ConversationRepository() contract.ConversationRepository
	MemorySummaryRepository() contract.MemorySummaryRepository
}
