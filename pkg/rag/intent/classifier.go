// Package intent labels chat queries. A fixed regex pass runs first and only
// unmatched queries reach the model.
package intent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"medscribe-be/internal/constant"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/pkg/llm"
)

type Source string

const (
	SourcePattern  Source = "pattern"
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

type Result struct {
	Intent string
	Source Source
}

type Classifier struct {
	patterns    []*regexp.Regexp
	llmProvider llm.LLMProvider
	taxonomy    string
	logger      logger.ILogger
}

// NewClassifier compiles patterns case-insensitively. With the two-label
// taxonomy the model is never consulted.
func NewClassifier(patterns []string, llmProvider llm.LLMProvider, taxonomy string, log logger.ILogger) (*Classifier, error) {
	switch taxonomy {
	case "":
		taxonomy = constant.IntentTaxonomyThreeLabel
	case constant.IntentTaxonomyThreeLabel, constant.IntentTaxonomyTwoLabel:
	default:
		return nil, fmt.Errorf("unknown intent taxonomy %q", taxonomy)
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("intent pattern %q: %w", p, err)
		}
		compiled = append(compiled, re)
	}

	return &Classifier{
		patterns:    compiled,
		llmProvider: llmProvider,
		taxonomy:    taxonomy,
		logger:      log,
	}, nil
}

func (c *Classifier) Taxonomy() string {
	return c.taxonomy
}

// MatchesListReports runs only the regex pass.
func (c *Classifier) MatchesListReports(query string) bool {
	for _, re := range c.patterns {
		if re.MatchString(query) {
			return true
		}
	}
	return false
}

func (c *Classifier) Classify(ctx context.Context, query string) Result {
	if c.MatchesListReports(query) {
		return Result{Intent: constant.IntentListReports, Source: SourcePattern}
	}

	if c.taxonomy == constant.IntentTaxonomyTwoLabel {
		return Result{Intent: constant.IntentOther, Source: SourcePattern}
	}

	if c.llmProvider == nil {
		return Result{Intent: constant.IntentReportQuestion, Source: SourceFallback}
	}

	prompt := fmt.Sprintf(constant.IntentClassifierPrompt, query)
	raw, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0), llm.WithMaxTokens(10))
	if err != nil {
		c.logger.Warn("INTENT", "Model classification failed, defaulting to report question", map[string]interface{}{
			"error": err.Error(),
		})
		return Result{Intent: constant.IntentReportQuestion, Source: SourceFallback}
	}

	label := normalizeLabel(raw)
	switch label {
	case constant.IntentReportQuestion, constant.IntentGeneralHealth:
		return Result{Intent: label, Source: SourceModel}
	}

	c.logger.Warn("INTENT", "Unrecognized model label, defaulting to report question", map[string]interface{}{
		"label": raw,
	})
	return Result{Intent: constant.IntentReportQuestion, Source: SourceFallback}
}

var labelCleaner = regexp.MustCompile(`[^A-Z_]+`)

// normalizeLabel accepts answers like "general_health." or "Intent: REPORT QUESTION".
func normalizeLabel(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "INTENT:")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	return labelCleaner.ReplaceAllString(s, "")
}
