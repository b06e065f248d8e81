package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medscribe-be/internal/constant"
	"medscribe-be/internal/dto"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/pkg/llm"
)

const reportSummaryModule = "REPORT_SUMMARY"

const (
	StepSummarization = "summarization"
	StepToneChecking  = "tone_checking"
	StepTranslation   = "translation"
	StepExplanation   = "explanation"
	StepAdvice        = "recommendations"

	stepCompleted = "completed"
	stepSkipped   = "skipped"
	stepFailed    = "failed"
)

// IReportSummaryService produces a patient-facing summary of one stored
// report: summarize, then optionally soften the tone, then optionally translate.
// A term glossary and next-step recommendations can be requested alongside.
type IReportSummaryService interface {
	Summarize(ctx context.Context, userId, caseId string, req *dto.ReportSummaryRequest) (*dto.ReportSummaryResponse, error)
}

type reportSummaryService struct {
	caseService     ICaseService
	llmProvider     llm.LLMProvider
	defaultLanguage string
	timeout         time.Duration
	logger          logger.ILogger
}

func NewReportSummaryService(
	caseService ICaseService,
	llmProvider llm.LLMProvider,
	defaultLanguage string,
	timeout time.Duration,
	log logger.ILogger,
) IReportSummaryService {
	return &reportSummaryService{
		caseService:     caseService,
		llmProvider:     llmProvider,
		defaultLanguage: strings.TrimSpace(defaultLanguage),
		timeout:         timeout,
		logger:          log,
	}
}

// Summarize fails only on ownership or a missing case. A failing step leaves
// an inline marker in its field and the later steps work on what is left.
func (s *reportSummaryService) Summarize(ctx context.Context, userId, caseId string, req *dto.ReportSummaryRequest) (*dto.ReportSummaryResponse, error) {
	c, err := s.caseService.GetOwned(ctx, userId, caseId)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.CleanedText) == "" {
		return nil, fmt.Errorf("%w: cleaned text of %s", ErrArtifactMissing, caseId)
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = s.defaultLanguage
	}
	toneCheck := req.ToneCheck == nil || *req.ToneCheck

	res := &dto.ReportSummaryResponse{
		CaseId:   caseId,
		Language: language,
		Steps:    make(map[string]dto.ReportSummaryStep, 5),
	}

	var ok bool
	res.Summary, ok = s.step(ctx, res, StepSummarization,
		fmt.Sprintf(constant.ReportSummaryPrompt, c.CleanedText), constant.ReportSummaryErrorMarker)
	final := res.Summary

	switch {
	case !ok:
		res.Steps[StepToneChecking] = dto.ReportSummaryStep{Status: stepSkipped, Error: "no summary"}
	case !toneCheck:
		res.Steps[StepToneChecking] = dto.ReportSummaryStep{Status: stepSkipped}
	default:
		toned, toneOk := s.step(ctx, res, StepToneChecking,
			fmt.Sprintf(constant.TonePrompt, res.Summary), constant.ToneErrorMarker)
		res.TonedSummary = toned
		if toneOk {
			final = toned
		}
	}

	switch {
	case language == "":
		res.Steps[StepTranslation] = dto.ReportSummaryStep{Status: stepSkipped}
	case !ok:
		res.Steps[StepTranslation] = dto.ReportSummaryStep{Status: stepSkipped, Error: "no summary"}
	default:
		res.Translation, _ = s.step(ctx, res, StepTranslation,
			fmt.Sprintf(constant.TranslationPrompt, language, final), constant.TranslationErrorMarker)
	}

	if req.ExplainTerms {
		s.explainTerms(ctx, res, c.CleanedText)
	} else {
		res.Steps[StepExplanation] = dto.ReportSummaryStep{Status: stepSkipped}
	}
	if req.Recommendations {
		res.Recommendations, _ = s.step(ctx, res, StepAdvice,
			fmt.Sprintf(constant.RecommendationPrompt, c.CleanedText), constant.AdviceErrorMarker)
	} else {
		res.Steps[StepAdvice] = dto.ReportSummaryStep{Status: stepSkipped}
	}

	s.logger.Info(reportSummaryModule, "Report summarized", map[string]interface{}{
		"user_id":  userId,
		"case_id":  caseId,
		"language": language,
		"steps":    res.Steps,
	})
	return res, nil
}

// step runs one generation call and records its outcome under name.
func (s *reportSummaryService) step(ctx context.Context, res *dto.ReportSummaryResponse, name, prompt, marker string) (string, bool) {
	cctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := s.llmProvider.Generate(cctx, prompt, llm.WithTemperature(0.2))
	out = strings.TrimSpace(out)
	if err == nil && out == "" {
		err = fmt.Errorf("empty %s output", name)
	}
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		s.logger.Warn(reportSummaryModule, "Step failed", map[string]interface{}{"step": name, "error": err.Error()})
		res.Steps[name] = dto.ReportSummaryStep{Status: stepFailed, DurationMs: elapsed, Error: err.Error()}
		return fmt.Sprintf(marker, err), false
	}
	res.Steps[name] = dto.ReportSummaryStep{Status: stepCompleted, DurationMs: elapsed}
	return out, true
}

// explainTerms fills res.Terms from "term: explanation" lines. Output with no
// such line counts as a failed step.
func (s *reportSummaryService) explainTerms(ctx context.Context, res *dto.ReportSummaryResponse, text string) {
	out, ok := s.step(ctx, res, StepExplanation, fmt.Sprintf(constant.TermExplainerPrompt, text), "%v")
	if !ok {
		return
	}
	terms := ParseTermLines(out)
	if len(terms) == 0 {
		step := res.Steps[StepExplanation]
		step.Status = stepFailed
		step.Error = "no term lines in model output"
		res.Steps[StepExplanation] = step
		return
	}
	res.Terms = terms
}

// ParseTermLines reads "term: explanation" lines, tolerating list bullets.
func ParseTermLines(out string) map[string]string {
	terms := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimLeft(strings.TrimSpace(line), "-*• ")
		term, explanation, found := strings.Cut(line, ":")
		term = strings.Trim(strings.TrimSpace(term), "*\"")
		explanation = strings.TrimSpace(explanation)
		if !found || term == "" || explanation == "" {
			continue
		}
		terms[term] = explanation
	}
	return terms
}
