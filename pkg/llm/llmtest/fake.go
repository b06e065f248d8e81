// Package llmtest provides a scripted LLMProvider for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"medscribe-be/pkg/llm"
)

// Rule answers any prompt containing Match.
type Rule struct {
	Match  string
	Answer string
	Err    error
}

// FakeProvider replies from its rules in order; unmatched prompts get Default.
type FakeProvider struct {
	mu      sync.Mutex
	Rules   []Rule
	Default string
	Prompts []string
}

func New(rules ...Rule) *FakeProvider {
	return &FakeProvider{Rules: rules}
}

func (f *FakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	var sb strings.Builder
	for _, m := range history {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return f.Generate(ctx, sb.String(), options...)
}

func (f *FakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.mu.Lock()
	f.Prompts = append(f.Prompts, prompt)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	for _, r := range f.Rules {
		if strings.Contains(prompt, r.Match) {
			return r.Answer, r.Err
		}
	}
	return f.Default, nil
}

// Calls returns how many prompts were sent.
func (f *FakeProvider) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}

// CallsMatching counts prompts containing substr.
func (f *FakeProvider) CallsMatching(substr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.Prompts {
		if strings.Contains(p, substr) {
			n++
		}
	}
	return n
}
