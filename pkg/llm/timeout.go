package llm

import (
	"context"
	"time"
)

// TimeoutProvider bounds every call on the wrapped provider.
type TimeoutProvider struct {
	next    LLMProvider
	timeout time.Duration
}

func WithCallTimeout(next LLMProvider, timeout time.Duration) LLMProvider {
	if timeout <= 0 {
		return next
	}
	return &TimeoutProvider{next: next, timeout: timeout}
}

func (p *TimeoutProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.next.Chat(ctx, history, options...)
}

func (p *TimeoutProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.next.Generate(ctx, prompt, options...)
}
