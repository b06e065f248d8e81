package entity

import "time"

// MemorySummary is a long-term memory entry for one (user, case) pair.
type MemorySummary struct {
	Id        string
	UserId    string
	CaseId    string
	Summary   string
	Embedding []float32
	CreatedAt time.Time
}

type ScoredMemorySummary struct {
	Summary    *MemorySummary
	Similarity float64
}
