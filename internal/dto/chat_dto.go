package dto

type ChatRequest struct {
	Query  string `json:"query" validate:"required"`
	CaseId string `json:"case_id"`
	TopK   int    `json:"top_k" validate:"gte=0,lte=50"`
}

type ChatMeta struct {
	CaseIds      []string `json:"case_ids"`
	UserId       string   `json:"user_id"`
	Mode         string   `json:"mode"`
	Intent       string   `json:"intent,omitempty"`
	Faithfulness string   `json:"faithfulness,omitempty"`
}

type MemoryUsed struct {
	ShortTerm []string `json:"short_term"`
	LongTerm  []string `json:"long_term"`
}

// ChatResponse is returned as-is, without the success envelope.
type ChatResponse struct {
	Query      string     `json:"query"`
	Answer     string     `json:"answer"`
	Meta       ChatMeta   `json:"meta"`
	MemoryUsed MemoryUsed `json:"memory_used"`
}

type QueryRequest struct {
	Query  string `json:"query" validate:"required"`
	CaseId string `json:"case_id"`
	TopK   int    `json:"top_k" validate:"gte=0,lte=50"`
}

type QueryResult struct {
	Chunk  string  `json:"chunk"`
	Score  float64 `json:"score"`
	CaseId string  `json:"case_id"`
}

type QueryResponse struct {
	Query   string        `json:"query"`
	Results []QueryResult `json:"results"`
}
