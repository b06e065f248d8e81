package ollama

import (
	"context"
	"net/http"
	"time"

	"medscribe-be/pkg/llm"
	"medscribe-be/pkg/utils"
)

// defaultTemperature keeps report answers close to the given data.
const defaultTemperature = 0.2

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = (*OllamaProvider)(nil)

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client:    &http.Client{Timeout: 120 * time.Second},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []llm.Message `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

// Temperature is always sent so that 0 reaches the server.
type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message llm.Message `json:"message"`
	Done    bool        `json:"done"`
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Resolve(llm.Options{Model: o.ModelName}, opts...)

	messages := make([]llm.Message, len(history))
	for i, msg := range history {
		// "model" is the Gemini spelling of the assistant role
		if msg.Role == "model" {
			msg.Role = llm.RoleAssistant
		}
		messages[i] = msg
	}

	req := chatRequest{
		Model:    options.Model,
		Messages: messages,
		Options: chatOptions{
			Temperature: options.TemperatureOr(defaultTemperature),
			NumPredict:  options.MaxTokens,
		},
	}

	var resp chatResponse
	if err := utils.PostJSON(ctx, o.Client, "ollama", o.BaseURL+"/api/chat", nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}
