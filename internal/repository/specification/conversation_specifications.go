package specification

import (
	"encoding/json"

	"gorm.io/gorm"
)

// ByCaseRef matches turns whose primary case or case list references the id.
type ByCaseRef struct {
	CaseID string
}

func (s ByCaseRef) Apply(db *gorm.DB) *gorm.DB {
	if s.CaseID == "" {
		return db
	}
	arr, _ := json.Marshal([]string{s.CaseID})
	return db.Where("(case_id = ? OR case_ids @> ?::jsonb)", s.CaseID, string(arr))
}

// NewestFirst orders rows by creation time descending.
type NewestFirst struct{}

func (s NewestFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
