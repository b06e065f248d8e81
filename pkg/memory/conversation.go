// Package memory implements the two conversation memories: the append-only
// short-term turn log and the bounded long-term summary store.
package memory

import (
	"context"
	"fmt"
	"time"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/repository/contract"
	"medscribe-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationMemory struct {
	repo contract.ConversationRepository
}

func NewConversationMemory(repo contract.ConversationRepository) *ConversationMemory {
	return &ConversationMemory{repo: repo}
}

// Load returns at most limit turns, most recent first. An empty caseId loads
// across all of the user's cases.
func (m *ConversationMemory) Load(ctx context.Context, userId, caseId string, limit int) ([]*entity.ConversationTurn, error) {
	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.ByCaseRef{CaseID: caseId},
		specification.NewestFirst{},
	}
	if limit > 0 {
		specs = append(specs, specification.Pagination{Limit: limit})
	}
	return m.repo.FindAll(ctx, specs...)
}

type SaveTurnInput struct {
	UserId  string
	CaseId  string
	CaseIds []string
	Query   string
	Answer  string
	Intent  string
}

// Save appends one turn. Turns are never edited afterwards.
func (m *ConversationMemory) Save(ctx context.Context, in SaveTurnInput) (*entity.ConversationTurn, error) {
	if in.UserId == "" {
		return nil, fmt.Errorf("save turn: user id is required")
	}
	caseId := in.CaseId
	if caseId == "" && len(in.CaseIds) == 1 {
		caseId = in.CaseIds[0]
	}
	turn := &entity.ConversationTurn{
		Id:        uuid.NewString(),
		UserId:    in.UserId,
		CaseId:    caseId,
		CaseIds:   in.CaseIds,
		Query:     in.Query,
		Answer:    in.Answer,
		Intent:    in.Intent,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.repo.Create(ctx, turn); err != nil {
		return nil, err
	}
	return turn, nil
}

func (m *ConversationMemory) Clear(ctx context.Context, userId, caseId string) (int64, error) {
	return m.repo.DeleteByUser(ctx, userId, caseId)
}

// FormatHistory renders newest-first turns in chronological order for a prompt.
func FormatHistory(turns []*entity.ConversationTurn) []string {
	out := make([]string, 0, len(turns))
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		out = append(out, fmt.Sprintf("User: %s\nAssistant: %s", t.Query, t.Answer))
	}
	return out
}
