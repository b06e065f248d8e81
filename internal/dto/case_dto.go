package dto

import (
	"time"

	"medscribe-be/internal/entity"
)

type CaseSummaryResponse struct {
	CaseId     string    `json:"case_id"`
	ReportType string    `json:"report_type"`
	ReportName string    `json:"report_name"`
	UploadedAt time.Time `json:"uploaded_at"`
	Indexed    bool      `json:"indexed"`
}

type CaseMetaResponse struct {
	CaseId       string                 `json:"case_id"`
	UserId       string                 `json:"user_id"`
	UploadedAt   time.Time              `json:"uploaded_at"`
	ReportType   string                 `json:"report_type"`
	ReportName   string                 `json:"report_name"`
	MimeType     string                 `json:"mime_type"`
	Pages        int                    `json:"pages"`
	OcrUsed      bool                   `json:"ocr_used"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	RawPath      string                 `json:"raw_path"`
	CleanedPath  string                 `json:"cleaned_path"`
	PanelsPath   string                 `json:"panels_path"`
	InsightsPath string                 `json:"insights_path,omitempty"`
	IndexedAt    *time.Time             `json:"indexed_at,omitempty"`
	ChunkCount   int                    `json:"chunk_count"`
	InsightsAt   *time.Time             `json:"insights_at,omitempty"`
}

type CaseRawResponse struct {
	CaseId string `json:"case_id"`
	Text   string `json:"text"`
}

type CasePanelsResponse struct {
	CaseId string         `json:"case_id"`
	Panels []entity.Panel `json:"panels"`
}
