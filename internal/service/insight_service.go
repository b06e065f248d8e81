package service

import (
	"context"
	"fmt"
	"time"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/internal/repository/specification"
	"medscribe-be/internal/repository/unitofwork"
	"medscribe-be/pkg/artifact"
	"medscribe-be/pkg/events"
	"medscribe-be/pkg/insight"
	pkgNats "medscribe-be/pkg/nats"
)

const insightModule = "INSIGHT"

type IInsightService interface {
	// Compute writes cases/{id}/insights.json once; later calls are no-ops.
	Compute(ctx context.Context, caseId string) error
}

type insightService struct {
	uowFactory     unitofwork.RepositoryFactory
	store          artifact.Store
	eventPublisher pkgNats.EventPublisher
	logger         logger.ILogger
	now            func() time.Time
}

func NewInsightService(
	uowFactory unitofwork.RepositoryFactory,
	store artifact.Store,
	eventPublisher pkgNats.EventPublisher,
	log logger.ILogger,
) IInsightService {
	return &insightService{
		uowFactory:     uowFactory,
		store:          store,
		eventPublisher: eventPublisher,
		logger:         log,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *insightService) Compute(ctx context.Context, caseId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	c, err := uow.CaseRepository().FindOne(ctx, specification.ByID{ID: caseId})
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: %s", ErrCaseNotFound, caseId)
	}

	key := artifact.InsightsKey(caseId)
	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		if c.InsightsAt == nil {
			return uow.CaseRepository().MarkInsights(ctx, caseId, key, s.now())
		}
		return nil
	}

	previous, err := uow.CaseRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: c.UserId},
		specification.UploadedBefore{CaseID: caseId},
		specification.MostRecentlyUploaded{},
	)
	if err != nil {
		return err
	}
	var prevId string
	var prevPanels []entity.Panel
	if previous != nil {
		prevId = previous.Id
		prevPanels = previous.Panels
	}

	report := insight.Build(c.UserId, caseId, c.Panels, prevId, prevPanels, s.now())
	if err := artifact.PutJSON(ctx, s.store, key, report); err != nil {
		return err
	}
	if err := uow.CaseRepository().MarkInsights(ctx, caseId, key, report.GeneratedAt); err != nil {
		return err
	}

	s.logger.Info(insightModule, "Insights computed", map[string]interface{}{
		"user_id":     c.UserId,
		"case_id":     caseId,
		"previous_id": prevId,
		"analytes":    len(report.Values),
	})
	if err := s.eventPublisher.Publish(ctx, events.InsightsReady(c.UserId, caseId, key)); err != nil {
		s.logger.Warn(insightModule, "Failed to publish INSIGHTS_READY", map[string]interface{}{"case_id": caseId, "error": err.Error()})
	}
	return nil
}
