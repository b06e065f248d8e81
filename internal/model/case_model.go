package model

import (
	"time"

	"gorm.io/datatypes"
)

type Case struct {
	Id           string         `gorm:"type:varchar(64);primaryKey"`
	UserId       string         `gorm:"type:varchar(128);not null;index:idx_cases_user_uploaded,priority:1"`
	UploadedAt   time.Time      `gorm:"not null;index:idx_cases_user_uploaded,priority:2,sort:desc"`
	ReportType   string         `gorm:"type:varchar(64)"`
	ReportName   string         `gorm:"type:varchar(255)"`
	MimeType     string         `gorm:"type:varchar(64)"`
	Pages        int            `gorm:"default:0"`
	OcrUsed      bool           `gorm:"default:false"`
	CleanedText  string         `gorm:"type:text"`
	Panels       datatypes.JSON `gorm:"type:jsonb"`
	Metadata     datatypes.JSON `gorm:"type:jsonb"`
	RawPath      string         `gorm:"type:varchar(512)"`
	CleanedPath  string         `gorm:"type:varchar(512)"`
	PanelsPath   string         `gorm:"type:varchar(512)"`
	InsightsPath string         `gorm:"type:varchar(512)"`
	IndexedAt    *time.Time
	ChunkCount   int `gorm:"default:0"`
	InsightsAt   *time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Case) TableName() string {
	return "cases"
}
