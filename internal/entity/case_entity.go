package entity

import "time"

type Case struct {
	Id           string
	UserId       string
	UploadedAt   time.Time
	ReportType   string
	ReportName   string
	MimeType     string
	Pages        int
	OcrUsed      bool
	CleanedText  string
	Panels       []Panel
	Metadata     map[string]interface{}
	RawPath      string
	CleanedPath  string
	PanelsPath   string
	InsightsPath string
	IndexedAt    *time.Time
	ChunkCount   int
	InsightsAt   *time.Time
}

// OwnedBy reports whether userId owns the case.
func (c *Case) OwnedBy(userId string) bool {
	return c != nil && c.UserId == userId
}

type Panel struct {
	Name  string    `json:"name"`
	Items []LabItem `json:"items"`
}

type LabItem struct {
	Name    string   `json:"name"`
	Result  *float64 `json:"result"`
	Unit    string   `json:"unit,omitempty"`
	RefLow  *float64 `json:"ref_low,omitempty"`
	RefHigh *float64 `json:"ref_high,omitempty"`
	RefText string   `json:"ref_text,omitempty"`
	Flag    string   `json:"flag,omitempty"`
}
