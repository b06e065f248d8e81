// Package artifact persists per-case ingestion outputs under cases/{id}/.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrNotFound   = errors.New("artifact not found")
	ErrInvalidKey = errors.New("invalid artifact key")
)

const (
	RawFile      = "raw.txt"
	CleanedFile  = "cleaned.json"
	PanelsFile   = "panels.json"
	InsightsFile = "insights.json"
)

type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

func CaseKey(caseID, file string) string {
	return path.Join("cases", caseID, file)
}

func RawKey(caseID string) string      { return CaseKey(caseID, RawFile) }
func CleanedKey(caseID string) string  { return CaseKey(caseID, CleanedFile) }
func PanelsKey(caseID string) string   { return CaseKey(caseID, PanelsFile) }
func InsightsKey(caseID string) string { return CaseKey(caseID, InsightsFile) }

// cleanKey rejects absolute keys and keys escaping the store root.
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}

func PutJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Put(ctx, key, data, "application/json")
}

func GetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
