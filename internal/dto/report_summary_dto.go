package dto

type ReportSummaryRequest struct {
	ToneCheck       *bool  `json:"tone_check"`
	Language        string `json:"language" validate:"omitempty,max=40"`
	ExplainTerms    bool   `json:"explain_terms"`
	Recommendations bool   `json:"recommendations"`
}

type ReportSummaryStep struct {
	Status     string `json:"status"` // completed, skipped or failed
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type ReportSummaryResponse struct {
	CaseId       string                       `json:"case_id"`
	Summary      string                       `json:"summary"`
	TonedSummary string                       `json:"toned_summary,omitempty"`
	Translation  string                       `json:"translation,omitempty"`
	Language     string                       `json:"language,omitempty"`
	// term -> plain-language explanation
	Terms           map[string]string            `json:"terms,omitempty"`
	Recommendations string                       `json:"recommendations,omitempty"`
	Steps        map[string]ReportSummaryStep `json:"processing_steps"`
}
