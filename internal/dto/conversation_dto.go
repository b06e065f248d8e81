package dto

import "time"

type ConversationTurnResponse struct {
	Id        string    `json:"id"`
	CaseId    string    `json:"case_id,omitempty"`
	CaseIds   []string  `json:"case_ids"`
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Intent    string    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ConversationHistoryResponse struct {
	Success bool                        `json:"success"`
	History []*ConversationTurnResponse `json:"history"`
}

type ClearConversationResponse struct {
	Deleted int64 `json:"deleted"`
}
