package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type MemorySummary struct {
	Id        string          `gorm:"type:varchar(64);primaryKey"`
	UserId    string          `gorm:"type:varchar(128);not null;index:idx_memory_pair,priority:1"`
	CaseId    string          `gorm:"type:varchar(64);not null;index:idx_memory_pair,priority:2"`
	Summary   string          `gorm:"type:text"`
	Embedding pgvector.Vector `gorm:"type:vector"`
	CreatedAt time.Time       `gorm:"not null;index"`
}

func (MemorySummary) TableName() string {
	return "conversation_memory"
}
