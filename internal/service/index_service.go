package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"medscribe-be/internal/dto"
	"medscribe-be/internal/entity"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/internal/repository/specification"
	"medscribe-be/internal/repository/unitofwork"
	"medscribe-be/pkg/artifact"
	"medscribe-be/pkg/events"
	"medscribe-be/pkg/ingest"
	pkgNats "medscribe-be/pkg/nats"
	"medscribe-be/pkg/vector"
)

const indexModule = "INDEX"

type IIndexService interface {
	// IndexCase is a no-op for an already indexed case unless force is set.
	IndexCase(ctx context.Context, caseId string, force bool) (int, error)
	RebuildUser(ctx context.Context, userId string) error
	Cleanup(ctx context.Context, userId, caseId string) (*dto.VectorCleanupResponse, error)
	RequestRebuild(ctx context.Context, requesterId, userId string) (*dto.IndexRebuildResponse, error)
	Status(ctx context.Context, requesterId, userId string) (*dto.IndexStatusResponse, error)
}

type indexService struct {
	uowFactory       unitofwork.RepositoryFactory
	index            vector.Index
	store            artifact.Store
	caseService      ICaseService
	publisherService IPublisherService
	eventPublisher   pkgNats.EventPublisher
	chunkChars       int
	logger           logger.ILogger
	locks            *caseLocks
}

// caseLocks serializes builds of one case. DeleteByCase and Upsert of two
// overlapping builds would otherwise interleave and leave every chunk twice.
type caseLocks struct {
	mu    sync.Mutex
	cases map[string]*caseLock
}

type caseLock struct {
	sync.Mutex
	refs int
}

func newCaseLocks() *caseLocks {
	return &caseLocks{cases: make(map[string]*caseLock)}
}

func (l *caseLocks) lock(caseId string) func() {
	l.mu.Lock()
	cl, ok := l.cases[caseId]
	if !ok {
		cl = &caseLock{}
		l.cases[caseId] = cl
	}
	cl.refs++
	l.mu.Unlock()

	cl.Lock()
	return func() {
		cl.Unlock()
		l.mu.Lock()
		cl.refs--
		if cl.refs == 0 {
			delete(l.cases, caseId)
		}
		l.mu.Unlock()
	}
}

func NewIndexService(
	uowFactory unitofwork.RepositoryFactory,
	index vector.Index,
	store artifact.Store,
	caseService ICaseService,
	publisherService IPublisherService,
	eventPublisher pkgNats.EventPublisher,
	chunkChars int,
	log logger.ILogger,
) IIndexService {
	if chunkChars <= 0 {
		chunkChars = 1500
	}
	return &indexService{
		uowFactory:       uowFactory,
		index:            index,
		store:            store,
		caseService:      caseService,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		chunkChars:       chunkChars,
		logger:           log,
		locks:            newCaseLocks(),
	}
}

func (s *indexService) IndexCase(ctx context.Context, caseId string, force bool) (int, error) {
	unlock := s.locks.lock(caseId)
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	c, err := uow.CaseRepository().FindOne(ctx, specification.ByID{ID: caseId})
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, fmt.Errorf("%w: %s", ErrCaseNotFound, caseId)
	}
	if c.IndexedAt != nil && !force {
		s.logger.Debug(indexModule, "Case already indexed", map[string]interface{}{"case_id": caseId})
		return c.ChunkCount, nil
	}

	chunks := ingest.BuildChunks(s.sections(ctx, c), c.Panels, s.chunkChars)

	// re-indexing replaces, never appends
	if _, err := s.index.DeleteByCase(ctx, caseId); err != nil {
		return 0, fmt.Errorf("clear chunks of %s: %w", caseId, err)
	}
	if len(chunks) > 0 {
		metadata := map[string]interface{}{
			"report_type": c.ReportType,
			"uploaded_at": c.UploadedAt.Format(time.RFC3339),
		}
		if _, err := s.index.Upsert(ctx, c.UserId, caseId, chunks, metadata); err != nil {
			return 0, fmt.Errorf("upsert chunks of %s: %w", caseId, err)
		}
	}
	if err := uow.CaseRepository().MarkIndexed(ctx, caseId, len(chunks), time.Now().UTC()); err != nil {
		return 0, err
	}

	s.logger.Info(indexModule, "Case indexed", map[string]interface{}{
		"user_id": c.UserId,
		"case_id": caseId,
		"chunks":  len(chunks),
	})
	if err := s.eventPublisher.Publish(ctx, events.CaseIndexed(c.UserId, caseId, len(chunks))); err != nil {
		s.logger.Warn(indexModule, "Failed to publish CASE_INDEXED", map[string]interface{}{"case_id": caseId, "error": err.Error()})
	}
	return len(chunks), nil
}

// sections prefers the stored cleaned payload and falls back to re-detecting
// sections from the cleaned text on the case row.
func (s *indexService) sections(ctx context.Context, c *entity.Case) map[string]string {
	var payload ingest.CleanedPayload
	err := artifact.GetJSON(ctx, s.store, artifact.CleanedKey(c.Id), &payload)
	if err == nil && len(payload.Sections) > 0 {
		return payload.Sections
	}
	if err != nil && !errors.Is(err, artifact.ErrNotFound) {
		s.logger.Warn(indexModule, "Failed to read cleaned payload", map[string]interface{}{"case_id": c.Id, "error": err.Error()})
	}
	return ingest.DetectSections(c.CleanedText)
}

func (s *indexService) RebuildUser(ctx context.Context, userId string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	cases, err := uow.CaseRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.MostRecentlyUploaded{},
	)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	for _, c := range cases {
		if err := uow.CaseRepository().ClearIndexed(ctx, c.Id); err != nil {
			uow.Rollback()
			return err
		}
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	var failed int
	for _, c := range cases {
		if _, err := s.IndexCase(ctx, c.Id, true); err != nil {
			failed++
			s.logger.Error(indexModule, "Rebuild failed for case", map[string]interface{}{
				"user_id": userId,
				"case_id": c.Id,
				"error":   err.Error(),
			})
		}
	}
	s.logger.Info(indexModule, "User index rebuilt", map[string]interface{}{
		"user_id": userId,
		"cases":   len(cases),
		"failed":  failed,
	})
	if failed > 0 {
		return fmt.Errorf("rebuild %s: %d of %d cases failed", userId, failed, len(cases))
	}
	return nil
}

func (s *indexService) Cleanup(ctx context.Context, userId, caseId string) (*dto.VectorCleanupResponse, error) {
	if _, err := s.caseService.GetOwned(ctx, userId, caseId); err != nil {
		return nil, err
	}
	unlock := s.locks.lock(caseId)
	defer unlock()

	deleted, err := s.index.DeleteByCase(ctx, caseId)
	if err != nil {
		return nil, err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.CaseRepository().ClearIndexed(ctx, caseId); err != nil {
		return nil, err
	}
	return &dto.VectorCleanupResponse{
		CaseId:  caseId,
		Deleted: deleted,
		Message: fmt.Sprintf("Deleted %d chunks for case %s", deleted, caseId),
	}, nil
}

func (s *indexService) RequestRebuild(ctx context.Context, requesterId, userId string) (*dto.IndexRebuildResponse, error) {
	if requesterId != userId {
		return nil, ErrUserMismatch
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.CaseRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.PublishRebuildUserIndex(ctx, userId); err != nil {
		return nil, err
	}
	return &dto.IndexRebuildResponse{
		UserId:  userId,
		Cases:   int(count),
		Message: "Index rebuild scheduled",
	}, nil
}

func (s *indexService) Status(ctx context.Context, requesterId, userId string) (*dto.IndexStatusResponse, error) {
	if requesterId != userId {
		return nil, ErrUserMismatch
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	cases, err := uow.CaseRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.MostRecentlyUploaded{},
	)
	if err != nil {
		return nil, err
	}
	total, err := s.index.CountByUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	res := &dto.IndexStatusResponse{
		UserId:      userId,
		TotalChunks: total,
		Cases:       make([]*dto.CaseIndexStatus, 0, len(cases)),
	}
	for _, c := range cases {
		res.Cases = append(res.Cases, &dto.CaseIndexStatus{
			CaseId:     c.Id,
			Indexed:    c.IndexedAt != nil,
			ChunkCount: c.ChunkCount,
		})
	}
	return res, nil
}
