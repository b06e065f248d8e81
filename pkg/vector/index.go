// Package vector stores embedded case chunks. Every read is scoped to one
// user; case filtering is optional and narrows within that user.
package vector

import (
	"context"
	"errors"
	"regexp"
)

var (
	ErrUserRequired      = errors.New("vector: user id is required")
	ErrCaseRequired      = errors.New("vector: case id is required")
	ErrInvalidCollection = errors.New("vector: invalid collection name")
)

// Indexed payload fields. Both are created by EnsureCollection.
const (
	FieldUserID = "user_id"
	FieldCaseID = "case_id"
)

var collectionNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

func validCollectionName(name string) bool {
	return collectionNamePattern.MatchString(name)
}

type Chunk struct {
	ID       string                 `json:"id"`
	UserID   string                 `json:"user_id"`
	CaseID   string                 `json:"case_id"`
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type SearchResult struct {
	Chunk
	Score float64 `json:"score"`
}

type SearchQuery struct {
	Text   string
	UserID string
	CaseID string // optional
	TopK   int
}

type Index interface {
	// Collection names the chunk collection this index writes to.
	Collection() string
	// EnsureCollection is idempotent and tolerates concurrent creators.
	EnsureCollection(ctx context.Context, name string) error
	// Upsert embeds and writes chunks as one batch, returning the new chunk ids.
	Upsert(ctx context.Context, userID, caseID string, chunks []string, metadata map[string]interface{}) ([]string, error)
	Search(ctx context.Context, q SearchQuery) ([]SearchResult, error)
	// DeleteByCase removes every chunk of the case regardless of user.
	DeleteByCase(ctx context.Context, caseID string) (int64, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

func validateUpsert(userID, caseID string) error {
	if userID == "" {
		return ErrUserRequired
	}
	if caseID == "" {
		return ErrCaseRequired
	}
	return nil
}

func normalizeTopK(topK int) int {
	if topK <= 0 {
		return 5
	}
	return topK
}
