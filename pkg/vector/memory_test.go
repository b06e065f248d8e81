package vector

import (
	"context"
	"sync"
	"testing"

	"medscribe-be/pkg/embedding/embeddingtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex() *MemoryIndex {
	return NewMemoryIndex(embeddingtest.New(256), "medscribe_cases")
}

func TestMemoryIndexUserIsolation(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex()

	text := "LDL: 145 mg/dL (ref 0-130)"
	_, err := idx.Upsert(ctx, "userA", "caseA", []string{text}, nil)
	require.NoError(t, err)
	_, err = idx.Upsert(ctx, "userB", "caseB", []string{text, "HDL: 40 mg/dL"}, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		query  SearchQuery
		wantN  int
		wantBy string
	}{
		{name: "no case filter", query: SearchQuery{Text: "LDL", UserID: "userA", TopK: 10}, wantN: 1, wantBy: "userA"},
		{name: "own case", query: SearchQuery{Text: "LDL", UserID: "userA", CaseID: "caseA", TopK: 10}, wantN: 1, wantBy: "userA"},
		{name: "other users case id", query: SearchQuery{Text: "LDL", UserID: "userA", CaseID: "caseB", TopK: 10}, wantN: 0},
		{name: "user b", query: SearchQuery{Text: "LDL", UserID: "userB", TopK: 10}, wantN: 2, wantBy: "userB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := idx.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, results, tt.wantN)
			for _, r := range results {
				assert.Equal(t, tt.wantBy, r.UserID)
			}
		})
	}
}

func TestMemoryIndexSearchRequiresUser(t *testing.T) {
	_, err := newTestIndex().Search(context.Background(), SearchQuery{Text: "LDL"})
	assert.ErrorIs(t, err, ErrUserRequired)
}

func TestMemoryIndexRanking(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex()

	_, err := idx.Upsert(ctx, "u1", "c1", []string{
		"HAEMATOLOGY: Haemoglobin 13.5 g/dL",
		"LIPID PROFILE: LDL cholesterol 145 mg/dL",
		"URINE: colour pale yellow",
	}, map[string]interface{}{"report_type": "lab"})
	require.NoError(t, err)

	results, err := idx.Search(ctx, SearchQuery{Text: "LDL cholesterol", UserID: "u1", TopK: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Contains(t, results[0].Text, "LDL")
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.Equal(t, "lab", results[0].Metadata["report_type"])
}

func TestMemoryIndexDeleteByCase(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex()

	_, err := idx.Upsert(ctx, "u1", "c1", []string{"a", "b"}, nil)
	require.NoError(t, err)
	_, err = idx.Upsert(ctx, "u1", "c2", []string{"c"}, nil)
	require.NoError(t, err)

	n, err := idx.DeleteByCase(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := idx.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	n, err = idx.DeleteByCase(ctx, "c1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryIndexUpsertValidation(t *testing.T) {
	idx := newTestIndex()
	_, err := idx.Upsert(context.Background(), "", "c1", []string{"x"}, nil)
	assert.ErrorIs(t, err, ErrUserRequired)
	_, err = idx.Upsert(context.Background(), "u1", "", []string{"x"}, nil)
	assert.ErrorIs(t, err, ErrCaseRequired)
}

func TestMemoryIndexUpsertEmbedFailure(t *testing.T) {
	emb := embeddingtest.New(8)
	emb.Fail = true
	idx := NewMemoryIndex(emb, "medscribe_cases")

	_, err := idx.Upsert(context.Background(), "u1", "c1", []string{"x"}, nil)
	assert.Error(t, err)

	count, err := idx.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEnsureCollectionIdempotent(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, idx.EnsureCollection(ctx, "medscribe_cases"))
		}()
	}
	wg.Wait()
	require.NoError(t, idx.EnsureCollection(ctx, "medscribe_cases"))

	assert.Equal(t, 1, idx.CollectionCount())
	assert.True(t, idx.HasPayloadIndex("medscribe_cases", FieldUserID))
	assert.True(t, idx.HasPayloadIndex("medscribe_cases", FieldCaseID))
}

func TestCollectionNameValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "plain", input: "medscribe_cases", valid: true},
		{name: "uppercase", input: "Cases", valid: false},
		{name: "injection", input: "cases; DROP TABLE cases", valid: false},
		{name: "empty", input: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, validCollectionName(tt.input))
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
}
