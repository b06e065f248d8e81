package service

import (
	"context"
	"strings"

	"medscribe-be/internal/dto"
	"medscribe-be/internal/pkg/logger"
	"medscribe-be/pkg/ai/router"
	"medscribe-be/pkg/vector"
)

const chatModule = "CHAT"

type IChatService interface {
	Chat(ctx context.Context, userId string, req *dto.ChatRequest) (*dto.ChatResponse, error)
	// Query returns raw retrieval hits without generation.
	Query(ctx context.Context, userId string, req *dto.QueryRequest) (*dto.QueryResponse, error)
}

type chatService struct {
	caseService ICaseService
	router      *router.Router
	index       vector.Index
	defaultTopK int
	logger      logger.ILogger
}

func NewChatService(
	caseService ICaseService,
	r *router.Router,
	index vector.Index,
	defaultTopK int,
	log logger.ILogger,
) IChatService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &chatService{
		caseService: caseService,
		router:      r,
		index:       index,
		defaultTopK: defaultTopK,
		logger:      log,
	}
}

func (s *chatService) Chat(ctx context.Context, userId string, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	caseId := strings.TrimSpace(req.CaseId)
	// the resolver trusts an explicit id, so ownership is settled here
	if caseId != "" {
		if _, err := s.caseService.GetOwned(ctx, userId, caseId); err != nil {
			return nil, err
		}
	}

	res, err := s.router.Execute(ctx, router.ChatInput{
		UserID: userId,
		Query:  req.Query,
		CaseID: caseId,
		TopK:   req.TopK,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(chatModule, "Chat turn answered", map[string]interface{}{
		"user_id":  userId,
		"mode":     string(res.Mode),
		"intent":   res.Intent,
		"case_ids": res.CaseIDs,
		"stages":   res.Stages,
	})

	return &dto.ChatResponse{
		Query:  res.Query,
		Answer: res.Reply,
		Meta: dto.ChatMeta{
			CaseIds:      nonNil(res.CaseIDs),
			UserId:       userId,
			Mode:         string(res.Mode),
			Intent:       res.Intent,
			Faithfulness: res.Faithfulness,
		},
		MemoryUsed: dto.MemoryUsed{
			ShortTerm: nonNil(res.ShortTerm),
			LongTerm:  nonNil(res.LongTerm),
		},
	}, nil
}

func (s *chatService) Query(ctx context.Context, userId string, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	caseId := strings.TrimSpace(req.CaseId)
	if caseId != "" {
		if _, err := s.caseService.GetOwned(ctx, userId, caseId); err != nil {
			return nil, err
		}
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}

	hits, err := s.index.Search(ctx, vector.SearchQuery{
		Text:   req.Query,
		UserID: userId,
		CaseID: caseId,
		TopK:   topK,
	})
	if err != nil {
		return nil, err
	}

	res := &dto.QueryResponse{Query: req.Query, Results: make([]dto.QueryResult, 0, len(hits))}
	for _, h := range hits {
		res.Results = append(res.Results, dto.QueryResult{Chunk: h.Text, Score: h.Score, CaseId: h.CaseID})
	}
	return res, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
