package service

import (
	"context"

	"medscribe-be/internal/dto"
	ragpipeline "medscribe-be/pkg/rag/pipeline"
)

const (
	TaskIndexCase        = "index_case"
	TaskComputeInsights  = "compute_insights"
	TaskRebuildUserIndex = "rebuild_user_index"
	TaskSaveSummary      = "save_summary"
)

// TaskEnqueuer is satisfied by *worker.Queue.
type TaskEnqueuer interface {
	Enqueue(ctx context.Context, taskType, key string, payload interface{}) error
}

type IPublisherService interface {
	PublishIndexCase(ctx context.Context, caseId string) error
	PublishComputeInsights(ctx context.Context, caseId string) error
	PublishRebuildUserIndex(ctx context.Context, userId string) error
	// ScheduleSummary makes the service usable as the pipeline's SummaryScheduler.
	ScheduleSummary(ctx context.Context, job ragpipeline.SummaryJob) error
}

type publisherService struct {
	queue TaskEnqueuer
}

func NewPublisherService(queue TaskEnqueuer) IPublisherService {
	return &publisherService{
		queue: queue,
	}
}

// Ledger keys: one in-flight index build or insight run per case, one
// rebuild per user.

func (p *publisherService) PublishIndexCase(ctx context.Context, caseId string) error {
	return p.queue.Enqueue(ctx, TaskIndexCase, "index:"+caseId, dto.IndexCaseTask{CaseId: caseId})
}

func (p *publisherService) PublishComputeInsights(ctx context.Context, caseId string) error {
	return p.queue.Enqueue(ctx, TaskComputeInsights, "insights:"+caseId, dto.ComputeInsightsTask{CaseId: caseId})
}

func (p *publisherService) PublishRebuildUserIndex(ctx context.Context, userId string) error {
	return p.queue.Enqueue(ctx, TaskRebuildUserIndex, "rebuild:"+userId, dto.RebuildUserIndexTask{UserId: userId})
}

func (p *publisherService) ScheduleSummary(ctx context.Context, job ragpipeline.SummaryJob) error {
	return p.queue.Enqueue(ctx, TaskSaveSummary, "", job)
}
