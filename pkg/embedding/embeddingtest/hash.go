// Package embeddingtest provides a deterministic embedder for tests.
package embeddingtest

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"unicode"

	"medscribe-be/pkg/embedding"
)

// HashProvider builds bag-of-words vectors by hashing lowercased tokens into
// Dim buckets. Texts sharing words get a positive cosine similarity.
type HashProvider struct {
	Dim   int
	Fail  bool
	calls atomic.Int64
}

func New(dim int) *HashProvider {
	return &HashProvider{Dim: dim}
}

func (h *HashProvider) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	h.calls.Add(1)
	if h.Fail {
		return nil, errors.New("embedding backend unavailable")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, h.Dim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		vec[f.Sum32()%uint32(h.Dim)] += 1
	}

	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: embedding.NormalizeVector(vec)},
	}, nil
}

func (h *HashProvider) Calls() int64 {
	return h.calls.Load()
}
