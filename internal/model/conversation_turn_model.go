package model

import (
	"time"

	"gorm.io/datatypes"
)

type ConversationTurn struct {
	Id        string         `gorm:"type:varchar(64);primaryKey"`
	UserId    string         `gorm:"type:varchar(128);not null;index:idx_turns_user_created,priority:1"`
	CaseId    string         `gorm:"type:varchar(64);index"`
	CaseIds   datatypes.JSON `gorm:"type:jsonb"`
	Query     string         `gorm:"type:text"`
	Answer    string         `gorm:"type:text"`
	Intent    string         `gorm:"type:varchar(32)"`
	CreatedAt time.Time      `gorm:"not null;index:idx_turns_user_created,priority:2,sort:desc"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}
