package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 20, cfg.Rag.MaxSummaries)
	assert.Equal(t, 5, cfg.Rag.DefaultTopK)
	assert.Equal(t, 3, cfg.Rag.MemoryTopK)
	assert.Equal(t, 1000, cfg.Rag.CleanupScanLimit)
	assert.Equal(t, "three_label", cfg.Rag.IntentTaxonomy)
	assert.Contains(t, cfg.Rag.EmergencyKeywords, "chest pain")
	assert.Contains(t, cfg.Rag.AggregateTerms, "compare")
	assert.False(t, cfg.DocumentAI.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LTM_MAX_SUMMARIES", "7")
	t.Setenv("EMERGENCY_KEYWORDS", "stroke, ,seizure")
	t.Setenv("INTENT_TAXONOMY", "two_label")
	t.Setenv("RAG_FAITHFULNESS_ENABLED", "false")
	t.Setenv("CAPABILITY_TIMEOUT", "5s")
	t.Setenv("DOCUMENTAI_PROJECT_ID", "proj")
	t.Setenv("DOCUMENTAI_PROCESSOR_ID", "proc")

	cfg := Load()

	assert.Equal(t, 7, cfg.Rag.MaxSummaries)
	assert.Equal(t, []string{"stroke", "seizure"}, cfg.Rag.EmergencyKeywords)
	assert.Equal(t, "two_label", cfg.Rag.IntentTaxonomy)
	assert.False(t, cfg.Rag.FaithfulnessEnabled)
	assert.Equal(t, 5*time.Second, cfg.Ai.CapabilityTimeout)
	assert.True(t, cfg.DocumentAI.Enabled())
}

func TestGetEnvAsListFallback(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{name: "empty", value: "", want: []string{"a"}},
		{name: "only separators", value: " , ,", want: []string{"a"}},
		{name: "values", value: "x,y", want: []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_LIST", tt.value)
			assert.Equal(t, tt.want, getEnvAsList("TEST_LIST", []string{"a"}))
		})
	}
}
