package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"medscribe-be/pkg/utils"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1"
	geminiModel   = "text-embedding-004"
)

type GeminiProvider struct {
	ApiKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

func NewGeminiProvider(apiKey string) EmbeddingProvider {
	return &GeminiProvider{
		ApiKey:  apiKey,
		Model:   geminiModel,
		BaseURL: geminiBaseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"task_type,omitempty"`
}

// Gemini separates document and query embeddings, so taskType is forwarded.
func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	req := geminiEmbedRequest{
		Model:    "models/" + p.Model,
		Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
		TaskType: taskType,
	}

	var resp EmbeddingResponse
	endpoint := fmt.Sprintf("%s/models/%s:embedContent", p.BaseURL, p.Model)
	if err := utils.PostJSON(ctx, p.Client, "gemini", endpoint, map[string]string{"x-goog-api-key": p.ApiKey}, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini: empty embedding for task %q", taskType)
	}
	return newResponse(resp.Embedding.Values), nil
}
