package faithfulness

import (
	"context"
	"errors"
	"strings"
	"testing"

	"medscribe-be/internal/constant"
	"medscribe-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	grounded := Sources{Chunks: []string{"LDL: 145 mg/dL"}}

	tests := []struct {
		name       string
		src        Sources
		answer     string
		err        error
		wantStatus Status
		wantSuffix string
		wantCalls  int
	}{
		{name: "faithful", src: grounded, answer: "Faithful", wantStatus: StatusFaithful, wantSuffix: "draft", wantCalls: 1},
		{name: "not faithful", src: grounded, answer: "Not Faithful", wantStatus: StatusNotFaithful, wantSuffix: constant.FaithfulnessDisclaimer, wantCalls: 1},
		{name: "lowercase not", src: grounded, answer: "  not faithful.", wantStatus: StatusNotFaithful, wantSuffix: constant.FaithfulnessDisclaimer, wantCalls: 1},
		{name: "error", src: grounded, err: errors.New("deadline exceeded"), wantStatus: StatusError, wantSuffix: "[faithfulness check error: deadline exceeded]", wantCalls: 1},
		{name: "memory only counts", src: Sources{LongTerm: []string{"told LDL high"}}, answer: "Faithful", wantStatus: StatusFaithful, wantSuffix: "draft", wantCalls: 1},
		{name: "no sources", src: Sources{Chunks: []string{" "}}, wantStatus: StatusInsufficient, wantSuffix: constant.InsufficientGrounding, wantCalls: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := llmtest.New(llmtest.Rule{Match: "fact-checker", Answer: tt.answer, Err: tt.err})
			v := NewChecker(fake).Check(context.Background(), "draft", tt.src)

			assert.Equal(t, tt.wantStatus, v.Status)
			assert.True(t, strings.HasSuffix(v.Response, tt.wantSuffix), v.Response)
			assert.Equal(t, tt.wantCalls, fake.Calls())
		})
	}
}

func TestCheckPromptCarriesSources(t *testing.T) {
	fake := llmtest.New()
	fake.Default = "Faithful"
	NewChecker(fake).Check(context.Background(), "LDL is high", Sources{
		Chunks:    []string{"LDL: 145 mg/dL"},
		ShortTerm: []string{"User: hi\nAssistant: hello"},
	})
	assert.Equal(t, 1, fake.CallsMatching("LDL: 145 mg/dL"))
	assert.Equal(t, 1, fake.CallsMatching("User: hi"))
}
