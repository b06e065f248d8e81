package vector

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"medscribe-be/pkg/embedding"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type memoryEntry struct {
	chunk     Chunk
	embedding []float32
}

// MemoryIndex is a process-local Index. The server falls back to it only
// when no database is configured, and reports that as degraded.
type MemoryIndex struct {
	mu          sync.RWMutex
	embedder    embedding.EmbeddingProvider
	collection  string
	collections map[string]map[string]bool // name -> indexed payload fields
	entries     map[string]memoryEntry     // chunk id -> entry
	byCase      map[string][]string        // case id -> chunk ids
}

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex(embedder embedding.EmbeddingProvider, collection string) *MemoryIndex {
	return &MemoryIndex{
		embedder:    embedder,
		collection:  collection,
		collections: make(map[string]map[string]bool),
		entries:     make(map[string]memoryEntry),
		byCase:      make(map[string][]string),
	}
}

func (m *MemoryIndex) Collection() string {
	return m.collection
}

func (m *MemoryIndex) EnsureCollection(ctx context.Context, name string) error {
	if !validCollectionName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	fields, ok := m.collections[name]
	if !ok {
		fields = make(map[string]bool)
		m.collections[name] = fields
	}
	fields[FieldUserID] = true
	fields[FieldCaseID] = true
	return nil
}

// CollectionCount returns how many collections exist.
func (m *MemoryIndex) CollectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections)
}

// HasPayloadIndex reports whether field is indexed in the named collection.
func (m *MemoryIndex) HasPayloadIndex(name, field string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.collections[name][field]
}

func (m *MemoryIndex) Upsert(ctx context.Context, userID, caseID string, chunks []string, metadata map[string]interface{}) ([]string, error) {
	if err := validateUpsert(userID, caseID); err != nil {
		return nil, err
	}

	// embed outside the lock
	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, text := range chunks {
		g.Go(func() error {
			res, err := m.embedder.Generate(gctx, text, embedding.TaskRetrievalDocument)
			if err != nil {
				return fmt.Errorf("embed chunk %d: %w", i, err)
			}
			vectors[i] = res.Embedding.Values
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ids := make([]string, len(chunks))
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, text := range chunks {
		ids[i] = uuid.NewString()
		m.entries[ids[i]] = memoryEntry{
			chunk: Chunk{
				ID:       ids[i],
				UserID:   userID,
				CaseID:   caseID,
				Text:     text,
				Metadata: metadata,
			},
			embedding: vectors[i],
		}
		m.byCase[caseID] = append(m.byCase[caseID], ids[i])
	}
	return ids, nil
}

func (m *MemoryIndex) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	if q.UserID == "" {
		return nil, ErrUserRequired
	}

	res, err := m.embedder.Generate(ctx, q.Text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	m.mu.RLock()
	var results []SearchResult
	for _, e := range m.entries {
		if e.chunk.UserID != q.UserID {
			continue
		}
		if q.CaseID != "" && e.chunk.CaseID != q.CaseID {
			continue
		}
		results = append(results, SearchResult{
			Chunk: e.chunk,
			Score: cosineSimilarity(res.Embedding.Values, e.embedding),
		})
	}
	m.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].ID < results[j].ID
		}
		return results[i].Score > results[j].Score
	})

	if topK := normalizeTopK(q.TopK); len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MemoryIndex) DeleteByCase(ctx context.Context, caseID string) (int64, error) {
	if caseID == "" {
		return 0, ErrCaseRequired
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.byCase[caseID]
	for _, id := range ids {
		delete(m.entries, id)
	}
	delete(m.byCase, caseID)
	return int64(len(ids)), nil
}

func (m *MemoryIndex) CountByUser(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUserRequired
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, e := range m.entries {
		if e.chunk.UserID == userID {
			n++
		}
	}
	return n, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
