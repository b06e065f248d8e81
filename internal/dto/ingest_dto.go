package dto

type IngestResponse struct {
	CaseId     string `json:"case_id"`
	ReportType string `json:"report_type"`
	Panels     int    `json:"panels"`
	Message    string `json:"message"`
}

