package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/repository/contract"
	"medscribe-be/pkg/embedding"

	"github.com/google/uuid"
)

type LongTermConfig struct {
	MaxSummaries int
	TopK         int
	// ScanLimit caps how many entries a single cleanup reads.
	ScanLimit int
	Now       func() time.Time
}

type LongTermMemory struct {
	repo     contract.MemorySummaryRepository
	embedder embedding.EmbeddingProvider
	cfg      LongTermConfig
}

func NewLongTermMemory(repo contract.MemorySummaryRepository, embedder embedding.EmbeddingProvider, cfg LongTermConfig) *LongTermMemory {
	if cfg.MaxSummaries <= 0 {
		cfg.MaxSummaries = 20
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.ScanLimit <= 0 {
		cfg.ScanLimit = 1000
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &LongTermMemory{repo: repo, embedder: embedder, cfg: cfg}
}

// SaveSummary embeds and stores a summary, then evicts the oldest entries of
// the pair beyond maxSummaries. A non-positive maxSummaries uses the configured bound.
func (m *LongTermMemory) SaveSummary(ctx context.Context, userId, caseId, summary string, maxSummaries int) error {
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return nil
	}

	res, err := m.embedder.Generate(ctx, summary, embedding.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("embed summary: %w", err)
	}

	entry := &entity.MemorySummary{
		Id:        uuid.NewString(),
		UserId:    userId,
		CaseId:    caseId,
		Summary:   summary,
		Embedding: res.Embedding.Values,
		CreatedAt: m.cfg.Now(),
	}
	if err := m.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}

	if _, err := m.Cleanup(ctx, userId, caseId, maxSummaries); err != nil {
		return fmt.Errorf("cleanup summaries: %w", err)
	}
	return nil
}

// Search returns the summaries most similar to query for the pair.
func (m *LongTermMemory) Search(ctx context.Context, query, userId, caseId string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = m.cfg.TopK
	}
	res, err := m.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := m.repo.SearchSimilar(ctx, res.Embedding.Values, userId, caseId, topK)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(scored))
	for _, s := range scored {
		out = append(out, s.Summary.Summary)
	}
	return out, nil
}

// Cleanup keeps only the maxSummaries newest entries of the pair. Calling it
// again without new inserts deletes nothing.
func (m *LongTermMemory) Cleanup(ctx context.Context, userId, caseId string, maxSummaries int) (int64, error) {
	if maxSummaries <= 0 {
		maxSummaries = m.cfg.MaxSummaries
	}

	entries, err := m.repo.ListByPair(ctx, userId, caseId, m.cfg.ScanLimit)
	if err != nil {
		return 0, err
	}
	if len(entries) <= maxSummaries {
		return 0, nil
	}

	stale := entries[maxSummaries:]
	ids := make([]string, len(stale))
	for i, e := range stale {
		ids[i] = e.Id
	}
	return m.repo.DeleteByIDs(ctx, ids)
}
