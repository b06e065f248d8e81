package mapper

import (
	"encoding/json"

	"medscribe-be/internal/entity"
	"medscribe-be/internal/model"
)

type ConversationMapper struct{}

func NewConversationMapper() *ConversationMapper {
	return &ConversationMapper{}
}

func (m *ConversationMapper) ToEntity(t *model.ConversationTurn) *entity.ConversationTurn {
	if t == nil {
		return nil
	}

	var caseIds []string
	if len(t.CaseIds) > 0 {
		_ = json.Unmarshal(t.CaseIds, &caseIds)
	}

	return &entity.ConversationTurn{
		Id:        t.Id,
		UserId:    t.UserId,
		CaseId:    t.CaseId,
		CaseIds:   caseIds,
		Query:     t.Query,
		Answer:    t.Answer,
		Intent:    t.Intent,
		CreatedAt: t.CreatedAt,
	}
}

func (m *ConversationMapper) ToModel(t *entity.ConversationTurn) *model.ConversationTurn {
	if t == nil {
		return nil
	}

	return &model.ConversationTurn{
		Id:        t.Id,
		UserId:    t.UserId,
		CaseId:    t.CaseId,
		CaseIds:   toJSON(t.CaseIds),
		Query:     t.Query,
		Answer:    t.Answer,
		Intent:    t.Intent,
		CreatedAt: t.CreatedAt,
	}
}
