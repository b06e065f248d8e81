// Package faithfulness verifies a draft answer against the context it was built from.
package faithfulness

import (
	"context"
	"fmt"
	"strings"

	"medscribe-be/internal/constant"
	"medscribe-be/pkg/llm"
)

type Status string

const (
	StatusFaithful     Status = "faithful"
	StatusNotFaithful  Status = "not_faithful"
	StatusInsufficient Status = "insufficient_grounding"
	StatusError        Status = "error"
)

type Sources struct {
	Chunks    []string
	ShortTerm []string
	LongTerm  []string
}

// Combined joins every source. Blank means there is nothing to ground on.
func (s Sources) Combined() string {
	return strings.Join([]string{
		strings.Join(s.Chunks, "\n"),
		strings.Join(s.ShortTerm, "\n"),
		strings.Join(s.LongTerm, "\n"),
	}, "\n")
}

type Verdict struct {
	Response string
	Status   Status
}

type Checker struct {
	llmProvider llm.LLMProvider
}

func NewChecker(llmProvider llm.LLMProvider) *Checker {
	return &Checker{llmProvider: llmProvider}
}

// Check never fails: capability errors are appended to the response inline.
func (c *Checker) Check(ctx context.Context, response string, src Sources) Verdict {
	sources := src.Combined()
	if strings.TrimSpace(sources) == "" {
		return Verdict{Response: constant.InsufficientGrounding, Status: StatusInsufficient}
	}

	prompt := fmt.Sprintf(constant.FaithfulnessPrompt, sources, response)
	raw, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0), llm.WithMaxTokens(10))
	if err != nil {
		return Verdict{
			Response: response + "\n\n" + fmt.Sprintf(constant.FaithfulnessErrorMarker, err),
			Status:   StatusError,
		}
	}

	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "not") {
		return Verdict{
			Response: response + "\n\n" + constant.FaithfulnessDisclaimer,
			Status:   StatusNotFaithful,
		}
	}
	return Verdict{Response: response, Status: StatusFaithful}
}
