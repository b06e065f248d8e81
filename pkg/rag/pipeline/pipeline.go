// Package pipeline runs the conversational stage graph over one State:
//
//	safety_check -> intent_classification -> retriever -> reasoning ->
//	tone_adjustment -> translation -> advice_annotation -> summarization ->
//	faithfulness_check
//
// General-health queries take general_health -> advice_annotation instead.
package pipeline

import (
	"context"
	"time"

	"medscribe-be/internal/constant"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/pkg/llm"
	"medscribe-be/pkg/rag/faithfulness"
	"medscribe-be/pkg/rag/intent"
	"medscribe-be/pkg/vector"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const moduleName = "RAG_PIPELINE"

type Config struct {
	EmergencyKeywords   []string
	ToneStepEnabled     bool
	TranslationLanguage string
	FaithfulnessEnabled bool
	HistoryWindow       int
	CapabilityTimeout   time.Duration
}

type Deps struct {
	Classifier *intent.Classifier
	Index      vector.Index
	LLM        llm.LLMProvider
	Scheduler  SummaryScheduler
	Logger     logger.ILogger
}

// Stages lets callers swap individual nodes. A nil stage is skipped.
type Stages struct {
	Safety        Stage
	Intent        Stage
	Retriever     Stage
	GeneralHealth Stage
	Reasoning     Stage
	Tone          Stage
	Translation   Stage
	Advice        Stage
	Summarization Stage
	Faithfulness  Stage
}

type Pipeline struct {
	stages Stages
	logger logger.ILogger
	tracer trace.Tracer
}

func New(cfg Config, deps Deps) *Pipeline {
	stages := Stages{
		Safety:        NewSafetyStage(cfg.EmergencyKeywords),
		Intent:        NewIntentStage(deps.Classifier),
		Retriever:     NewRetrieverStage(deps.Index, cfg.CapabilityTimeout),
		GeneralHealth: NewGeneralHealthStage(deps.LLM, cfg.CapabilityTimeout),
		Reasoning:     NewReasoningStage(deps.LLM, cfg.CapabilityTimeout),
		Tone:          NewToneStage(cfg.ToneStepEnabled),
		Advice:        NewAdviceStage(),
		Summarization: NewSummarizationStage(deps.Scheduler, cfg.HistoryWindow, deps.Logger),
	}
	if cfg.TranslationLanguage != "" {
		stages.Translation = NewTranslationStage(deps.LLM, cfg.TranslationLanguage, cfg.CapabilityTimeout)
	}
	if cfg.FaithfulnessEnabled {
		stages.Faithfulness = NewFaithfulnessStage(faithfulness.NewChecker(deps.LLM), cfg.CapabilityTimeout)
	}
	return NewWithStages(stages, deps.Logger)
}

func NewWithStages(stages Stages, log logger.ILogger) *Pipeline {
	return &Pipeline{
		stages: stages,
		logger: log,
		tracer: otel.Tracer("rag-pipeline"),
	}
}

func (p *Pipeline) run(ctx context.Context, stage Stage, s *State) {
	if stage == nil {
		return
	}
	if s.End {
		p.logger.Debug(moduleName, "Stage skipped after early exit", map[string]interface{}{
			"stage": stage.Name(),
		})
		return
	}

	ctx, span := p.tracer.Start(ctx, "pipeline."+stage.Name())
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", s.UserID),
		attribute.String("intent", s.Intent),
		attribute.Int("case.count", len(s.CaseIDs)),
	)

	start := time.Now()
	stage.Run(ctx, s)
	s.Trace = append(s.Trace, stage.Name())

	span.SetAttributes(attribute.Bool("early_exit", s.End))
	p.logger.Debug(moduleName, "Stage finished", map[string]interface{}{
		"stage":       stage.Name(),
		"duration_ms": time.Since(start).Milliseconds(),
		"docs":        len(s.Docs),
	})
}

// RunPreamble runs safety_check and intent_classification. Callers inspect
// State.End and State.Intent before deciding whether to continue.
func (p *Pipeline) RunPreamble(ctx context.Context, s *State) {
	p.run(ctx, p.stages.Safety, s)
	p.run(ctx, p.stages.Intent, s)
}

// RunBranch runs the stages that follow intent classification.
func (p *Pipeline) RunBranch(ctx context.Context, s *State) {
	if s.Intent == constant.IntentGeneralHealth {
		p.run(ctx, p.stages.GeneralHealth, s)
		p.run(ctx, p.stages.Advice, s)
		return
	}

	p.run(ctx, p.stages.Retriever, s)
	p.run(ctx, p.stages.Reasoning, s)
	p.run(ctx, p.stages.Tone, s)
	p.run(ctx, p.stages.Translation, s)
	p.run(ctx, p.stages.Advice, s)
	// response is final apart from the faithfulness suffix
	p.run(ctx, p.stages.Summarization, s)
	p.run(ctx, p.stages.Faithfulness, s)
}

// Run executes the whole graph and returns the same state.
func (p *Pipeline) Run(ctx context.Context, s *State) *State {
	p.RunPreamble(ctx, s)
	p.RunBranch(ctx, s)

	p.logger.Info(moduleName, "Pipeline completed", map[string]interface{}{
		"user_id":      s.UserID,
		"intent":       s.Intent,
		"stages":       s.Trace,
		"early_exit":   s.End,
		"faithfulness": string(s.Faithfulness),
	})
	return s
}
