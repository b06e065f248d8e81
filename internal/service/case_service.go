package service

import (
	"context"
	"errors"
	"fmt"

	"medscribe-be/internal/dto"
	"medscribe-be/internal/entity"
	"medscribe-be/internal/repository/specification"
	"medscribe-be/internal/repository/unitofwork"
	"medscribe-be/pkg/artifact"
	"medscribe-be/pkg/ingest"
	"medscribe-be/pkg/insight"
)

type ICaseService interface {
	List(ctx context.Context, userId string) ([]*dto.CaseSummaryResponse, error)
	// GetOwned returns ErrCaseNotFound or ErrCaseForbidden before any data is read.
	GetOwned(ctx context.Context, userId, caseId string) (*entity.Case, error)
	Meta(ctx context.Context, userId, caseId string) (*dto.CaseMetaResponse, error)
	Raw(ctx context.Context, userId, caseId string) (*dto.CaseRawResponse, error)
	Panels(ctx context.Context, userId, caseId string) (*dto.CasePanelsResponse, error)
	Cleaned(ctx context.Context, userId, caseId string) (*ingest.CleanedPayload, error)
	Insights(ctx context.Context, userId, caseId string) (*insight.Report, error)
}

type caseService struct {
	uowFactory unitofwork.RepositoryFactory
	store      artifact.Store
}

func NewCaseService(uowFactory unitofwork.RepositoryFactory, store artifact.Store) ICaseService {
	return &caseService{
		uowFactory: uowFactory,
		store:      store,
	}
}

func (s *caseService) List(ctx context.Context, userId string) ([]*dto.CaseSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	cases, err := uow.CaseRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.MostRecentlyUploaded{},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.CaseSummaryResponse, 0, len(cases))
	for _, c := range cases {
		res = append(res, &dto.CaseSummaryResponse{
			CaseId:     c.Id,
			ReportType: c.ReportType,
			ReportName: c.ReportName,
			UploadedAt: c.UploadedAt,
			Indexed:    c.IndexedAt != nil,
		})
	}
	return res, nil
}

func (s *caseService) GetOwned(ctx context.Context, userId, caseId string) (*entity.Case, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	// looked up without the user filter so a foreign case is 403, not 404
	c, err := uow.CaseRepository().FindOne(ctx, specification.ByID{ID: caseId})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseId)
	}
	if !c.OwnedBy(userId) {
		return nil, fmt.Errorf("%w: %s", ErrCaseForbidden, caseId)
	}
	return c, nil
}

func (s *caseService) Meta(ctx context.Context, userId, caseId string) (*dto.CaseMetaResponse, error) {
	c, err := s.GetOwned(ctx, userId, caseId)
	if err != nil {
		return nil, err
	}
	return &dto.CaseMetaResponse{
		CaseId:       c.Id,
		UserId:       c.UserId,
		UploadedAt:   c.UploadedAt,
		ReportType:   c.ReportType,
		ReportName:   c.ReportName,
		MimeType:     c.MimeType,
		Pages:        c.Pages,
		OcrUsed:      c.OcrUsed,
		Metadata:     c.Metadata,
		RawPath:      c.RawPath,
		CleanedPath:  c.CleanedPath,
		PanelsPath:   c.PanelsPath,
		InsightsPath: c.InsightsPath,
		IndexedAt:    c.IndexedAt,
		ChunkCount:   c.ChunkCount,
		InsightsAt:   c.InsightsAt,
	}, nil
}

func (s *caseService) Raw(ctx context.Context, userId, caseId string) (*dto.CaseRawResponse, error) {
	if _, err := s.GetOwned(ctx, userId, caseId); err != nil {
		return nil, err
	}
	data, err := s.store.Get(ctx, artifact.RawKey(caseId))
	if err != nil {
		return nil, artifactError(err, artifact.RawFile)
	}
	return &dto.CaseRawResponse{CaseId: caseId, Text: string(data)}, nil
}

func (s *caseService) Panels(ctx context.Context, userId, caseId string) (*dto.CasePanelsResponse, error) {
	if _, err := s.GetOwned(ctx, userId, caseId); err != nil {
		return nil, err
	}
	var panels []entity.Panel
	if err := artifact.GetJSON(ctx, s.store, artifact.PanelsKey(caseId), &panels); err != nil {
		return nil, artifactError(err, artifact.PanelsFile)
	}
	if panels == nil {
		panels = []entity.Panel{}
	}
	return &dto.CasePanelsResponse{CaseId: caseId, Panels: panels}, nil
}

func (s *caseService) Cleaned(ctx context.Context, userId, caseId string) (*ingest.CleanedPayload, error) {
	if _, err := s.GetOwned(ctx, userId, caseId); err != nil {
		return nil, err
	}
	var payload ingest.CleanedPayload
	if err := artifact.GetJSON(ctx, s.store, artifact.CleanedKey(caseId), &payload); err != nil {
		return nil, artifactError(err, artifact.CleanedFile)
	}
	return &payload, nil
}

func (s *caseService) Insights(ctx context.Context, userId, caseId string) (*insight.Report, error) {
	if _, err := s.GetOwned(ctx, userId, caseId); err != nil {
		return nil, err
	}
	var report insight.Report
	if err := artifact.GetJSON(ctx, s.store, artifact.InsightsKey(caseId), &report); err != nil {
		return nil, artifactError(err, artifact.InsightsFile)
	}
	return &report, nil
}

func artifactError(err error, file string) error {
	if errors.Is(err, artifact.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrArtifactMissing, file)
	}
	return err
}
