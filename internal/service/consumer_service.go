package service

import (
	"context"
	"errors"

	"medscribe-be/internal/dto"
	"medscribe-be/internal/pkg/logger"
	ragpipeline "medscribe-be/pkg/rag/pipeline"
	"medscribe-be/pkg/worker"
)

const moduleWorker = "WORKER"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	queue          *worker.Queue
	indexService   IIndexService
	insightService IInsightService
	summarizer     *ragpipeline.Summarizer
	logger         logger.ILogger
}

func NewConsumerService(
	queue *worker.Queue,
	indexService IIndexService,
	insightService IInsightService,
	summarizer *ragpipeline.Summarizer,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		queue:          queue,
		indexService:   indexService,
		insightService: insightService,
		summarizer:     summarizer,
		logger:         log,
	}
}

// Consume registers every task handler and starts the worker pool.
func (cs *consumerService) Consume(ctx context.Context) error {
	cs.queue.Register(TaskIndexCase, cs.handleIndexCase)
	cs.queue.Register(TaskComputeInsights, cs.handleComputeInsights)
	cs.queue.Register(TaskRebuildUserIndex, cs.handleRebuildUserIndex)
	cs.queue.Register(TaskSaveSummary, cs.handleSaveSummary)
	return cs.queue.Start(ctx)
}

func (cs *consumerService) handleIndexCase(ctx context.Context, task worker.Task) error {
	var payload dto.IndexCaseTask
	if err := task.Decode(&payload); err != nil {
		return cs.drop(task, err)
	}
	_, err := cs.indexService.IndexCase(ctx, payload.CaseId, false)
	return cs.settle(task, err)
}

func (cs *consumerService) handleComputeInsights(ctx context.Context, task worker.Task) error {
	var payload dto.ComputeInsightsTask
	if err := task.Decode(&payload); err != nil {
		return cs.drop(task, err)
	}
	return cs.settle(task, cs.insightService.Compute(ctx, payload.CaseId))
}

func (cs *consumerService) handleRebuildUserIndex(ctx context.Context, task worker.Task) error {
	var payload dto.RebuildUserIndexTask
	if err := task.Decode(&payload); err != nil {
		return cs.drop(task, err)
	}
	return cs.indexService.RebuildUser(ctx, payload.UserId)
}

func (cs *consumerService) handleSaveSummary(ctx context.Context, task worker.Task) error {
	var job ragpipeline.SummaryJob
	if err := task.Decode(&job); err != nil {
		return cs.drop(task, err)
	}
	return cs.summarizer.Summarize(ctx, job)
}

// drop logs a malformed payload and acks it; retrying cannot fix it.
func (cs *consumerService) drop(task worker.Task, err error) error {
	cs.logger.Error(moduleWorker, "Dropping malformed task", map[string]interface{}{
		"task_id":   task.ID,
		"task_type": task.Type,
		"error":     err.Error(),
	})
	return nil
}

// settle treats a vanished case as done.
func (cs *consumerService) settle(task worker.Task, err error) error {
	if errors.Is(err, ErrCaseNotFound) {
		cs.logger.Warn(moduleWorker, "Case no longer exists", map[string]interface{}{
			"task_id":   task.ID,
			"task_type": task.Type,
			"task_key":  task.Key,
		})
		return nil
	}
	return err
}
