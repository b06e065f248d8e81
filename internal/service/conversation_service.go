package service

import (
	"context"

	"medscribe-be/internal/dto"
	"medscribe-be/pkg/memory"
)

const defaultHistoryLimit = 50

type IConversationService interface {
	History(ctx context.Context, userId, caseId string, limit int) (*dto.ConversationHistoryResponse, error)
	// Clear drops every turn of the user, or only those referencing caseId.
	Clear(ctx context.Context, userId, caseId string) (*dto.ClearConversationResponse, error)
}

type conversationService struct {
	stm *memory.ConversationMemory
}

func NewConversationService(stm *memory.ConversationMemory) IConversationService {
	return &conversationService{
		stm: stm,
	}
}

func (s *conversationService) History(ctx context.Context, userId, caseId string, limit int) (*dto.ConversationHistoryResponse, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	turns, err := s.stm.Load(ctx, userId, caseId, limit)
	if err != nil {
		return nil, err
	}

	history := make([]*dto.ConversationTurnResponse, 0, len(turns))
	for _, t := range turns {
		history = append(history, &dto.ConversationTurnResponse{
			Id:        t.Id,
			CaseId:    t.CaseId,
			CaseIds:   nonNil(t.CaseIds),
			Query:     t.Query,
			Answer:    t.Answer,
			Intent:    t.Intent,
			Timestamp: t.CreatedAt,
		})
	}
	return &dto.ConversationHistoryResponse{Success: true, History: history}, nil
}

func (s *conversationService) Clear(ctx context.Context, userId, caseId string) (*dto.ClearConversationResponse, error) {
	deleted, err := s.stm.Clear(ctx, userId, caseId)
	if err != nil {
		return nil, err
	}
	return &dto.ClearConversationResponse{Deleted: deleted}, nil
}
