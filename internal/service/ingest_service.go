package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medscribe-be/internal/dto"
	"medscribe-be/internal/entity"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/internal/repository/unitofwork"
	"medscribe-be/pkg/artifact"
	"medscribe-be/pkg/events"
	"medscribe-be/pkg/ingest"
	pkgNats "medscribe-be/pkg/nats"

	"github.com/google/uuid"
)

const ingestModule = "INGEST"

type IIngestService interface {
	Process(ctx context.Context, userId, fileName, contentType string, data []byte) (*dto.IngestResponse, error)
}

type ingestService struct {
	uowFactory       unitofwork.RepositoryFactory
	store            artifact.Store
	extractor        ingest.Extractor
	publisherService IPublisherService
	eventPublisher   pkgNats.EventPublisher
	logger           logger.ILogger
}

func NewIngestService(
	uowFactory unitofwork.RepositoryFactory,
	store artifact.Store,
	extractor ingest.Extractor,
	publisherService IPublisherService,
	eventPublisher pkgNats.EventPublisher,
	log logger.ILogger,
) IIngestService {
	return &ingestService{
		uowFactory:       uowFactory,
		store:            store,
		extractor:        extractor,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

func (s *ingestService) Process(ctx context.Context, userId, fileName, contentType string, data []byte) (*dto.IngestResponse, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if err := ingest.ValidateMimeType(contentType); err != nil {
		return nil, err
	}
	mimeType := ingest.NormalizeMimeType(contentType)

	extraction, err := s.extractor.Extract(ctx, data, mimeType)
	switch {
	case errors.Is(err, ingest.ErrEmptyDocument):
		return nil, ErrEmptyUpload
	case errors.Is(err, ingest.ErrExtractorUnavailable):
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedMedia, err)
	case err != nil:
		return nil, fmt.Errorf("extract %s: %w", fileName, err)
	}
	if strings.TrimSpace(extraction.Text) == "" {
		return nil, ErrEmptyUpload
	}

	validation := ingest.ValidateReport(extraction.Text)
	if !validation.IsMedical {
		s.logger.Info(ingestModule, "Rejected non-medical upload", map[string]interface{}{
			"user_id":   userId,
			"file_name": fileName,
			"hits":      validation.Hits,
			"blacklist": validation.BlacklistHits,
		})
		return nil, fmt.Errorf("%w: %s", ErrNotMedicalReport, strings.Join(validation.Reasons, "; "))
	}

	cleaned := ingest.Normalize(extraction.Text)
	cleaned.Signals.OCRNeeded = cleaned.Signals.OCRNeeded && !extraction.OCRUsed
	panels := ingest.ParsePanels(cleaned.CleanedText)
	meta := ingest.InferReportMeta(cleaned.CleanedText)

	caseId := uuid.NewString()
	if err := s.writeArtifacts(ctx, caseId, extraction.Text, cleaned, panels); err != nil {
		return nil, err
	}

	c := &entity.Case{
		Id:          caseId,
		UserId:      userId,
		UploadedAt:  time.Now().UTC(),
		ReportType:  meta.ReportType,
		ReportName:  reportName(fileName, meta.ReportType),
		MimeType:    mimeType,
		Pages:       extraction.Pages,
		OcrUsed:     extraction.OCRUsed,
		CleanedText: cleaned.CleanedText,
		Panels:      panels,
		Metadata: map[string]interface{}{
			"file_name":       fileName,
			"hospital":        meta.Hospital,
			"doctor":          meta.Doctor,
			"validation_hits": validation.Hits,
		},
		RawPath:     artifact.RawKey(caseId),
		CleanedPath: artifact.CleanedKey(caseId),
		PanelsPath:  artifact.PanelsKey(caseId),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.CaseRepository().Create(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Info(ingestModule, "Case ingested", map[string]interface{}{
		"user_id":     userId,
		"case_id":     caseId,
		"report_type": c.ReportType,
		"panels":      len(panels),
	})

	// Enrichment is best effort; the case already exists.
	if err := s.publisherService.PublishIndexCase(ctx, caseId); err != nil {
		s.logger.Warn(ingestModule, "Failed to enqueue index build", map[string]interface{}{"case_id": caseId, "error": err.Error()})
	}
	if err := s.publisherService.PublishComputeInsights(ctx, caseId); err != nil {
		s.logger.Warn(ingestModule, "Failed to enqueue insights", map[string]interface{}{"case_id": caseId, "error": err.Error()})
	}
	if err := s.eventPublisher.Publish(ctx, events.CaseIngested(userId, caseId, c.ReportType)); err != nil {
		s.logger.Warn(ingestModule, "Failed to publish CASE_INGESTED", map[string]interface{}{"case_id": caseId, "error": err.Error()})
	}

	return &dto.IngestResponse{
		CaseId:     caseId,
		ReportType: c.ReportType,
		Panels:     len(panels),
		Message:    "Report processed successfully",
	}, nil
}

func (s *ingestService) writeArtifacts(ctx context.Context, caseId, raw string, cleaned ingest.CleanedPayload, panels []entity.Panel) error {
	if err := s.store.Put(ctx, artifact.RawKey(caseId), []byte(raw), "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("write raw text: %w", err)
	}
	if err := artifact.PutJSON(ctx, s.store, artifact.CleanedKey(caseId), cleaned); err != nil {
		return fmt.Errorf("write cleaned payload: %w", err)
	}
	if panels == nil {
		panels = []entity.Panel{}
	}
	if err := artifact.PutJSON(ctx, s.store, artifact.PanelsKey(caseId), panels); err != nil {
		return fmt.Errorf("write panels: %w", err)
	}
	return nil
}

func reportName(fileName, reportType string) string {
	if reportType != "" && reportType != ingest.UnknownReport {
		return reportType
	}
	if name := strings.TrimSpace(fileName); name != "" {
		return name
	}
	return ingest.UnknownReport
}
