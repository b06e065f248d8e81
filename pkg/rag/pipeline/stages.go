package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medscribe-be/internal/constant"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/pkg/llm"
	"medscribe-be/pkg/rag/faithfulness"
	"medscribe-be/pkg/rag/intent"
	"medscribe-be/pkg/vector"

	"golang.org/x/sync/errgroup"
)

const (
	StageSafety        = "safety_check"
	StageIntent        = "intent_classification"
	StageRetriever     = "retriever"
	StageGeneralHealth = "general_health"
	StageReasoning     = "reasoning"
	StageTone          = "tone_adjustment"
	StageTranslation   = "translation"
	StageAdvice        = "advice_annotation"
	StageSummarization = "summarization"
	StageFaithfulness  = "faithfulness_check"
)

// Stage reads and updates the shared state. Stages turn capability failures
// into inline markers instead of returning errors.
type Stage interface {
	Name() string
	Run(ctx context.Context, s *State)
}

var errEmptyTranslation = errors.New("empty translation")

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

type SafetyStage struct {
	keywords []string
}

func NewSafetyStage(keywords []string) *SafetyStage {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &SafetyStage{keywords: lowered}
}

func (st *SafetyStage) Name() string { return StageSafety }

func (st *SafetyStage) IsEmergency(query string) bool {
	q := strings.ToLower(query)
	for _, k := range st.keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

func (st *SafetyStage) Run(ctx context.Context, s *State) {
	if st.IsEmergency(s.Query) {
		s.Response = constant.EmergencyResponse
		s.End = true
	}
}

type IntentStage struct {
	classifier *intent.Classifier
}

func NewIntentStage(classifier *intent.Classifier) *IntentStage {
	return &IntentStage{classifier: classifier}
}

func (st *IntentStage) Name() string { return StageIntent }

func (st *IntentStage) Run(ctx context.Context, s *State) {
	if s.Intent != "" {
		return
	}
	s.Intent = st.classifier.Classify(ctx, s.Query).Intent
}

type RetrieverStage struct {
	index   vector.Index
	timeout time.Duration
}

func NewRetrieverStage(index vector.Index, timeout time.Duration) *RetrieverStage {
	return &RetrieverStage{index: index, timeout: timeout}
}

func (st *RetrieverStage) Name() string { return StageRetriever }

// Run searches each resolved case and concatenates results in case order.
// No cases means no search and an empty document list.
func (st *RetrieverStage) Run(ctx context.Context, s *State) {
	s.Docs = nil
	if len(s.CaseIDs) == 0 {
		return
	}

	// a failing case must not cancel the others
	perCase := make([][]vector.SearchResult, len(s.CaseIDs))
	var g errgroup.Group
	for i, caseID := range s.CaseIDs {
		g.Go(func() error {
			cctx, cancel := withTimeout(ctx, st.timeout)
			defer cancel()
			res, err := st.index.Search(cctx, vector.SearchQuery{
				Text:   s.Query,
				UserID: s.UserID,
				CaseID: caseID,
				TopK:   s.TopK,
			})
			if err != nil {
				return fmt.Errorf("case %s: %w", caseID, err)
			}
			perCase[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.RetrievalError = fmt.Sprintf(constant.RetrievalErrorMarker, err)
	}
	for _, res := range perCase {
		s.Docs = append(s.Docs, res...)
	}
}

type ReasoningStage struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
}

func NewReasoningStage(llmProvider llm.LLMProvider, timeout time.Duration) *ReasoningStage {
	return &ReasoningStage{llmProvider: llmProvider, timeout: timeout}
}

func (st *ReasoningStage) Name() string { return StageReasoning }

func orPlaceholder(parts []string, placeholder string) string {
	joined := strings.TrimSpace(strings.Join(parts, "\n"))
	if joined == "" {
		return placeholder
	}
	return joined
}

func BuildReasoningPrompt(s *State) string {
	return fmt.Sprintf(constant.ReasoningPrompt,
		s.Query,
		orPlaceholder(s.DocTexts(), constant.NoReportContextPlaceholder),
		orPlaceholder(s.History, constant.NoShortTermPlaceholder),
		orPlaceholder(s.LongMemory, constant.NoLongTermPlaceholder),
	)
}

func (st *ReasoningStage) Run(ctx context.Context, s *State) {
	if len(s.Docs) == 0 && len(s.History) == 0 && len(s.LongMemory) == 0 {
		s.Reasoning = constant.ReasoningFallback
		return
	}

	cctx, cancel := withTimeout(ctx, st.timeout)
	defer cancel()

	out, err := st.llmProvider.Generate(cctx, BuildReasoningPrompt(s))
	if err != nil {
		s.Reasoning = fmt.Sprintf(constant.ReasoningErrorMarker, err)
		s.ReasoningFailed = true
		return
	}
	s.Reasoning = strings.TrimSpace(out)
	if s.Reasoning == "" {
		s.Reasoning = constant.ReasoningFallback
	}
}

type GeneralHealthStage struct {
	llmProvider llm.LLMProvider
	timeout     time.Duration
}

func NewGeneralHealthStage(llmProvider llm.LLMProvider, timeout time.Duration) *GeneralHealthStage {
	return &GeneralHealthStage{llmProvider: llmProvider, timeout: timeout}
}

func (st *GeneralHealthStage) Name() string { return StageGeneralHealth }

func (st *GeneralHealthStage) Run(ctx context.Context, s *State) {
	cctx, cancel := withTimeout(ctx, st.timeout)
	defer cancel()

	out, err := st.llmProvider.Generate(cctx, fmt.Sprintf(constant.GeneralHealthPrompt, s.Query), llm.WithTemperature(0.3))
	if err != nil {
		s.GeneralAnswer = fmt.Sprintf(constant.GeneralHealthErrorMarker, err)
		return
	}
	s.GeneralAnswer = strings.TrimSpace(out)
}

type ToneStage struct {
	enabled bool
}

func NewToneStage(enabled bool) *ToneStage {
	return &ToneStage{enabled: enabled}
}

func (st *ToneStage) Name() string { return StageTone }

func (st *ToneStage) Run(ctx context.Context, s *State) {
	if !st.enabled {
		s.Simplified = s.Reasoning
		return
	}
	s.Simplified = constant.ToneAdjustmentPrefix + "\n" + s.Reasoning
}

// TranslationStage rewrites the patient-facing text into another language.
// An empty language leaves the text as is.
type TranslationStage struct {
	llmProvider llm.LLMProvider
	language    string
	timeout     time.Duration
}

func NewTranslationStage(llmProvider llm.LLMProvider, language string, timeout time.Duration) *TranslationStage {
	return &TranslationStage{llmProvider: llmProvider, language: strings.TrimSpace(language), timeout: timeout}
}

func (st *TranslationStage) Name() string { return StageTranslation }

func (st *TranslationStage) Run(ctx context.Context, s *State) {
	if st.language == "" || strings.TrimSpace(s.Simplified) == "" {
		return
	}
	cctx, cancel := withTimeout(ctx, st.timeout)
	defer cancel()

	out, err := st.llmProvider.Generate(cctx,
		fmt.Sprintf(constant.TranslationPrompt, st.language, s.Simplified),
		llm.WithTemperature(0.0),
	)
	out = strings.TrimSpace(out)
	if err != nil || out == "" {
		if err == nil {
			err = errEmptyTranslation
		}
		s.Simplified += "\n\n" + fmt.Sprintf(constant.TranslationErrorMarker, err)
		return
	}
	s.Translated = true
	s.Simplified = out
}

type AdviceStage struct{}

func NewAdviceStage() *AdviceStage {
	return &AdviceStage{}
}

func (st *AdviceStage) Name() string { return StageAdvice }

// Run passes general-health answers through; they carry their own disclaimer.
// A retrieval failure is shown to the user here and nowhere upstream, so it
// never reaches the reasoning text that feeds long-term memory.
func (st *AdviceStage) Run(ctx context.Context, s *State) {
	if s.Intent == constant.IntentGeneralHealth {
		s.Response = s.GeneralAnswer
		return
	}
	body := s.Simplified
	if s.RetrievalError != "" {
		body += "\n\n" + s.RetrievalError
	}
	s.Response = body + "\n\n" + constant.AdviceFooter
}

// SummaryJob is everything the background summarizer needs.
type SummaryJob struct {
	UserID string `json:"user_id"`
	CaseID string `json:"case_id"`
	Text   string `json:"text"`
}

// SummaryScheduler hands summarization off the request path.
type SummaryScheduler interface {
	ScheduleSummary(ctx context.Context, job SummaryJob) error
}

type SummarizationStage struct {
	scheduler     SummaryScheduler
	historyWindow int
	logger        logger.ILogger
}

func NewSummarizationStage(scheduler SummaryScheduler, historyWindow int, log logger.ILogger) *SummarizationStage {
	if historyWindow <= 0 {
		historyWindow = 3
	}
	return &SummarizationStage{scheduler: scheduler, historyWindow: historyWindow, logger: log}
}

func (st *SummarizationStage) Name() string { return StageSummarization }

// SummaryText joins the last few history turns with the current reasoning.
func SummaryText(history []string, reasoning string, window int) string {
	if len(history) > window {
		history = history[len(history)-window:]
	}
	return strings.Join(history, "\n") + "\n" + reasoning
}

// Summarizable reports whether the reasoning is model output worth keeping.
// Fallback text and error markers would otherwise resurface as memory.
func Summarizable(s *State) bool {
	r := strings.TrimSpace(s.Reasoning)
	if r == "" || s.ReasoningFailed {
		return false
	}
	return !strings.HasPrefix(r, constant.ReasoningFallback)
}

func (st *SummarizationStage) Run(ctx context.Context, s *State) {
	if st.scheduler == nil || s.PrimaryCaseID() == "" || !Summarizable(s) {
		return
	}
	job := SummaryJob{
		UserID: s.UserID,
		CaseID: s.PrimaryCaseID(),
		Text:   SummaryText(s.History, s.Reasoning, st.historyWindow),
	}
	if err := st.scheduler.ScheduleSummary(ctx, job); err != nil {
		st.logger.Warn("RAG_PIPELINE", "Failed to schedule summary", map[string]interface{}{
			"user_id": s.UserID,
			"case_id": job.CaseID,
			"error":   err.Error(),
		})
		return
	}
	s.SummaryScheduled = true
}

type FaithfulnessStage struct {
	checker *faithfulness.Checker
	timeout time.Duration
}

func NewFaithfulnessStage(checker *faithfulness.Checker, timeout time.Duration) *FaithfulnessStage {
	return &FaithfulnessStage{checker: checker, timeout: timeout}
}

func (st *FaithfulnessStage) Name() string { return StageFaithfulness }

func (st *FaithfulnessStage) Run(ctx context.Context, s *State) {
	cctx, cancel := withTimeout(ctx, st.timeout)
	defer cancel()

	v := st.checker.Check(cctx, s.Response, faithfulness.Sources{
		Chunks:    s.DocTexts(),
		ShortTerm: s.History,
		LongTerm:  s.LongMemory,
	})
	s.Response = v.Response
	s.Faithfulness = v.Status
}
