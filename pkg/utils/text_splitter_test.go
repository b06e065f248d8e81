package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		size      int
		overlap   int
		wantCount int
	}{
		{name: "short text", text: "LDL: 145 mg/dL", size: 100, overlap: 10, wantCount: 1},
		{name: "no size", text: "anything", size: 0, overlap: 0, wantCount: 1},
		{name: "exact words", text: "aaaa bbbb cccc dddd", size: 10, overlap: 0, wantCount: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, SplitText(tt.text, tt.size, tt.overlap), tt.wantCount)
		})
	}
}

func TestSplitTextBreaksOnWhitespace(t *testing.T) {
	chunks := SplitText("aaaa bbbb cccc dddd", 10, 0)
	assert.Equal(t, []string{"aaaa bbbb", " cccc dddd"}, chunks)
}

func TestSplitTextCoversInputWithMultibyteRunes(t *testing.T) {
	text := strings.Repeat("µmol/L ", 40)
	chunks := SplitText(text, 32, 8)

	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 32)
		assert.True(t, utf8.ValidString(c))
	}
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
	assert.True(t, strings.HasPrefix(text, chunks[0]))
}
