package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/repository/contract"
	"medscribe-be/internal/repository/specification"
)

type ConversationRepository struct {
	mu    sync.RWMutex
	turns []entity.ConversationTurn
}

var _ contract.ConversationRepository = (*ConversationRepository)(nil)

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{}
}

func (r *ConversationRepository) Create(ctx context.Context, turn *entity.ConversationTurn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	cp := *turn
	cp.CaseIds = slices.Clone(turn.CaseIds)
	r.turns = append(r.turns, cp)
	return nil
}

func referencesCase(t *entity.ConversationTurn, caseId string) bool {
	return t.CaseId == caseId || slices.Contains(t.CaseIds, caseId)
}

func (r *ConversationRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error) {
	r.mu.RLock()
	out := make([]*entity.ConversationTurn, 0, len(r.turns))
	for i := range r.turns {
		cp := r.turns[i]
		out = append(out, &cp)
	}
	r.mu.RUnlock()

	keep := func(pred func(*entity.ConversationTurn) bool) {
		filtered := out[:0]
		for _, t := range out {
			if pred(t) {
				filtered = append(filtered, t)
			}
		}
		out = filtered
	}

	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.UserOwnedBy:
			keep(func(t *entity.ConversationTurn) bool { return t.UserId == s.UserID })
		case specification.ByCaseRef:
			if s.CaseID != "" {
				keep(func(t *entity.ConversationTurn) bool { return referencesCase(t, s.CaseID) })
			}
		case specification.NewestFirst:
			// turns are stored in insertion order; reversing first keeps the
			// later insert ahead when timestamps tie
			slices.Reverse(out)
			sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
		case specification.OrderBy:
			if s.Field != "created_at" {
				return nil, ErrUnsupportedSpecification{Spec: spec}
			}
			sort.SliceStable(out, func(i, j int) bool {
				if s.Desc {
					return out[i].CreatedAt.After(out[j].CreatedAt)
				}
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			})
		case specification.Pagination:
		default:
			return nil, ErrUnsupportedSpecification{Spec: spec}
		}
	}
	return paginate(out, specs), nil
}

func (r *ConversationRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	turns, err := r.FindAll(ctx, specs...)
	return int64(len(turns)), err
}

func (r *ConversationRepository) DeleteByUser(ctx context.Context, userId string, caseId string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	kept := r.turns[:0]
	for i := range r.turns {
		t := &r.turns[i]
		if t.UserId == userId && (caseId == "" || referencesCase(t, caseId)) {
			deleted++
			continue
		}
		kept = append(kept, *t)
	}
	r.turns = kept
	return deleted, nil
}
