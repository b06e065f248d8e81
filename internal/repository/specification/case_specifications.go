package specification

import (
	"gorm.io/gorm"
)

// MostRecentlyUploaded orders cases newest first.
type MostRecentlyUploaded struct{}

func (s MostRecentlyUploaded) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("uploaded_at DESC").Order("id DESC")
}

// ExcludingCase drops one case id from the result.
type ExcludingCase struct {
	CaseID string
}

func (s ExcludingCase) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id <> ?", s.CaseID)
}

// UploadedBefore keeps cases uploaded strictly before the reference case.
type UploadedBefore struct {
	CaseID string
}

func (s UploadedBefore) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("uploaded_at < (SELECT uploaded_at FROM cases WHERE id = ?)", s.CaseID)
}
