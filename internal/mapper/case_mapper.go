package mapper

import (
	"encoding/json"
	"log"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/model"

	"gorm.io/datatypes"
)

type CaseMapper struct{}

func NewCaseMapper() *CaseMapper {
	return &CaseMapper{}
}

func (m *CaseMapper) ToEntity(c *model.Case) *entity.Case {
	if c == nil {
		return nil
	}

	var panels []entity.Panel
	if len(c.Panels) > 0 {
		if err := json.Unmarshal(c.Panels, &panels); err != nil {
			log.Printf("[WARN] Case %s has unreadable panels: %v", c.Id, err)
		}
	}

	var metadata map[string]interface{}
	if len(c.Metadata) > 0 {
		if err := json.Unmarshal(c.Metadata, &metadata); err != nil {
			log.Printf("[WARN] Case %s has unreadable metadata: %v", c.Id, err)
		}
	}

	return &entity.Case{
		Id:           c.Id,
		UserId:       c.UserId,
		UploadedAt:   c.UploadedAt,
		ReportType:   c.ReportType,
		ReportName:   c.ReportName,
		MimeType:     c.MimeType,
		Pages:        c.Pages,
		OcrUsed:      c.OcrUsed,
		CleanedText:  c.CleanedText,
		Panels:       panels,
		Metadata:     metadata,
		RawPath:      c.RawPath,
		CleanedPath:  c.CleanedPath,
		PanelsPath:   c.PanelsPath,
		InsightsPath: c.InsightsPath,
		IndexedAt:    c.IndexedAt,
		ChunkCount:   c.ChunkCount,
		InsightsAt:   c.InsightsAt,
	}
}

func (m *CaseMapper) ToModel(c *entity.Case) *model.Case {
	if c == nil {
		return nil
	}

	return &model.Case{
		Id:           c.Id,
		UserId:       c.UserId,
		UploadedAt:   c.UploadedAt,
		ReportType:   c.ReportType,
		ReportName:   c.ReportName,
		MimeType:     c.MimeType,
		Pages:        c.Pages,
		OcrUsed:      c.OcrUsed,
		CleanedText:  c.CleanedText,
		Panels:       toJSON(c.Panels),
		Metadata:     toJSON(c.Metadata),
		RawPath:      c.RawPath,
		CleanedPath:  c.CleanedPath,
		PanelsPath:   c.PanelsPath,
		InsightsPath: c.InsightsPath,
		IndexedAt:    c.IndexedAt,
		ChunkCount:   c.ChunkCount,
		InsightsAt:   c.InsightsAt,
	}
}

func (m *CaseMapper) ToEntities(cases []*model.Case) []*entity.Case {
	entities := make([]*entity.Case, len(cases))
	for i, c := range cases {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func toJSON(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return nil
	}
	return datatypes.JSON(b)
}
