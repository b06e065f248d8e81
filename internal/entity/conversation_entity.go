package entity

import "time"

// ConversationTurn is one append-only (query, answer) exchange.
type ConversationTurn struct {
	Id        string
	UserId    string
	CaseId    string
	CaseIds   []string
	Query     string
	Answer    string
	Intent    string
	CreatedAt time.Time
}
