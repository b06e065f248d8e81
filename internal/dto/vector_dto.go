package dto

type VectorCleanupResponse struct {
	CaseId  string `json:"case_id"`
	Deleted int64  `json:"deleted"`
	Message string `json:"message"`
}

type IndexRebuildResponse struct {
	UserId  string `json:"user_id"`
	Cases   int    `json:"cases"`
	Message string `json:"message"`
}

type CaseIndexStatus struct {
	CaseId     string `json:"case_id"`
	Indexed    bool   `json:"indexed"`
	ChunkCount int    `json:"chunk_count"`
}

type IndexStatusResponse struct {
	UserId      string             `json:"user_id"`
	TotalChunks int64              `json:"total_chunks"`
	Cases       []*CaseIndexStatus `json:"cases"`
}

type HealthResponse struct {
	Status   string   `json:"status"`
	Degraded []string `json:"degraded"`
}
