package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseKeys(t *testing.T) {
	assert.Equal(t, "cases/abc/raw.txt", RawKey("abc"))
	assert.Equal(t, "cases/abc/cleaned.json", CleanedKey("abc"))
	assert.Equal(t, "cases/abc/panels.json", PanelsKey("abc"))
	assert.Equal(t, "cases/abc/insights.json", InsightsKey("abc"))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := s.Exists(ctx, InsightsKey("c1"))
	require.NoError(t, err)
	assert.False(t, ok)

	payload := map[string]interface{}{"summary": "LDL rose by 10"}
	require.NoError(t, PutJSON(ctx, s, InsightsKey("c1"), payload))

	ok, err = s.Exists(ctx, InsightsKey("c1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.FileExists(t, filepath.Join(root, "cases", "c1", "insights.json"))

	var got map[string]interface{}
	require.NoError(t, GetJSON(ctx, s, InsightsKey("c1"), &got))
	assert.Equal(t, "LDL rose by 10", got["summary"])

	entries, err := os.ReadDir(filepath.Join(root, "cases", "c1"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, s.Delete(ctx, InsightsKey("c1")))
	require.NoError(t, s.Delete(ctx, InsightsKey("c1")))
	_, err = s.Get(ctx, InsightsKey("c1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tests := []string{"", "/etc/passwd", "../outside.txt", "cases/../../x", "."}
	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			err := s.Put(context.Background(), key, []byte("x"), "text/plain")
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}
