package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/repository/contract"
)

type MemorySummaryRepository struct {
	mu      sync.RWMutex
	entries map[string]entity.MemorySummary
}

var _ contract.MemorySummaryRepository = (*MemorySummaryRepository)(nil)

func NewMemorySummaryRepository() *MemorySummaryRepository {
	return &MemorySummaryRepository{entries: make(map[string]entity.MemorySummary)}
}

func (r *MemorySummaryRepository) Create(ctx context.Context, summary *entity.MemorySummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[summary.Id] = *summary
	return nil
}

func (r *MemorySummaryRepository) byPair(userId, caseId string) []*entity.MemorySummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entity.MemorySummary
	for _, e := range r.entries {
		if e.UserId == userId && e.CaseId == caseId {
			cp := e
			out = append(out, &cp)
		}
	}
	return out
}

func (r *MemorySummaryRepository) SearchSimilar(ctx context.Context, embedding []float32, userId, caseId string, limit int) ([]*entity.ScoredMemorySummary, error) {
	if limit <= 0 {
		limit = 3
	}
	pair := r.byPair(userId, caseId)
	scored := make([]*entity.ScoredMemorySummary, len(pair))
	for i, e := range pair {
		scored[i] = &entity.ScoredMemorySummary{Summary: e, Similarity: cosine(embedding, e.Embedding)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Similarity == scored[j].Similarity {
			return scored[i].Summary.CreatedAt.After(scored[j].Summary.CreatedAt)
		}
		return scored[i].Similarity > scored[j].Similarity
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (r *MemorySummaryRepository) ListByPair(ctx context.Context, userId, caseId string, limit int) ([]*entity.MemorySummary, error) {
	pair := r.byPair(userId, caseId)
	sort.SliceStable(pair, func(i, j int) bool {
		if pair[i].CreatedAt.Equal(pair[j].CreatedAt) {
			return pair[i].Id > pair[j].Id
		}
		return pair[i].CreatedAt.After(pair[j].CreatedAt)
	})
	if limit > 0 && len(pair) > limit {
		pair = pair[:limit]
	}
	return pair, nil
}

func (r *MemorySummaryRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.entries[id]; ok {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

func (r *MemorySummaryRepository) Count(ctx context.Context, userId, caseId string) (int64, error) {
	return int64(len(r.byPair(userId, caseId))), nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
