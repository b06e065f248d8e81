package pipeline

import (
	"context"
	"fmt"
	"strings"

	"medscribe-be/internal/constant"
	"medscribe-be/pkg/llm"
	"medscribe-be/pkg/memory"
)

// Summarizer compresses a SummaryJob and stores it in long-term memory.
// It runs on the worker, never on the request path.
type Summarizer struct {
	llmProvider  llm.LLMProvider
	ltm          *memory.LongTermMemory
	maxSummaries int
}

func NewSummarizer(llmProvider llm.LLMProvider, ltm *memory.LongTermMemory, maxSummaries int) *Summarizer {
	return &Summarizer{llmProvider: llmProvider, ltm: ltm, maxSummaries: maxSummaries}
}

func (s *Summarizer) Summarize(ctx context.Context, job SummaryJob) error {
	if strings.TrimSpace(job.Text) == "" {
		return nil
	}
	out, err := s.llmProvider.Generate(ctx, fmt.Sprintf(constant.SummarizerPrompt, job.Text), llm.WithTemperature(0.0))
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}
	return s.ltm.SaveSummary(ctx, job.UserID, job.CaseID, strings.TrimSpace(out), s.maxSummaries)
}
