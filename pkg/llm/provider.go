package llm

import (
	"context"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one chat turn in a provider-agnostic format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Option func(*Options)

// Options carries per-call overrides. A nil Temperature leaves the
// provider default in place; zero is a valid, deterministic setting.
type Options struct {
	Temperature *float64
	MaxTokens   int
	Model       string
}

// Resolve applies opts over defaults.
func Resolve(defaults Options, opts ...Option) Options {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TemperatureOr returns the requested temperature or fallback when none was set.
func (o Options) TemperatureOr(fallback float64) float64 {
	if o.Temperature == nil {
		return fallback
	}
	return *o.Temperature
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = &temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
