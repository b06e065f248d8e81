package unitofwork

import (
	"context"

	"medscribe-be/internal/repository/contract"
	"medscribe-be/internal/repository/memory"
)

// MemoryRepositoryFactory serves the in-process repositories used when no
// database is configured and in tests. Every unit of work shares the same
// stores; Begin/Commit/Rollback are no-ops.
type MemoryRepositoryFactory struct {
	cases         *memory.CaseRepository
	conversations *memory.ConversationRepository
	summaries     *memory.MemorySummaryRepository
}

func NewMemoryRepositoryFactory() *MemoryRepositoryFactory {
	return &MemoryRepositoryFactory{
		cases:         memory.NewCaseRepository(),
		conversations: memory.NewConversationRepository(),
		summaries:     memory.NewMemorySummaryRepository(),
	}
}

func (f *MemoryRepositoryFactory) NewUnitOfWork(ctx context.Context) UnitOfWork {
	return &memoryUnitOfWork{f: f}
}

type memoryUnitOfWork struct {
	f *MemoryRepositoryFactory
}

func (u *memoryUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *memoryUnitOfWork) Commit() error                   { return nil }
func (u *memoryUnitOfWork) Rollback() error                 { return nil }

func (u *memoryUnitOfWork) CaseRepository() contract.CaseRepository {
	return u.f.cases
}

func (u *memoryUnitOfWork) ConversationRepository() contract.ConversationRepository {
	return u.f.conversations
}

func (u *memoryUnitOfWork) MemorySummaryRepository() contract.MemorySummaryRepository {
	return u.f.summaries
}
