package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/WesselKoorn/ask-youtube-anything/internal/config"
)

const (
	openAIBaseURL        = "https://api.openai.com/v1"
	openAIEmbeddingModel = "text-embedding-ada-002"
	openAIChatModel      = "gpt-3.5-turbo"

	openAITemperature = 0.7
	openAITimeout     = 120 * time.Second
)

// OpenAIClient implements Embedder and ChatModel against the OpenAI API.
type OpenAIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type openAIEmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIChatMsg `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIChatMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewOpenAIClient(cfg *config.Config) (*OpenAIClient, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	return &OpenAIClient{
		httpClient: &http.Client{Timeout: openAITimeout},
		baseURL:    openAIBaseURL,
		apiKey:     cfg.OpenAIAPIKey,
	}, nil
}

func (c *OpenAIClient) Close() error { return nil }

// Embed sends all texts in one request. The response carries an index per
// embedding; vectors are placed by it so ordering survives any internal
// parallelism on the provider side.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp openAIEmbeddingResponse
	err := c.post(ctx, "/embeddings", openAIEmbeddingRequest{
		Model: openAIEmbeddingModel,
		Input: texts,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("openai embeddings: %s (%s)", resp.Error.Message, resp.Error.Type)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("openai embedding index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("no embedding data received for input %d", i)
		}
	}
	return vectors, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]openAIChatMsg, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		if role == RoleModel {
			role = "assistant"
		}
		msgs = append(msgs, openAIChatMsg{Role: role, Content: msg.Content})
	}

	var resp openAIChatResponse
	err := c.post(ctx, "/chat/completions", openAIChatRequest{
		Model:       openAIChatModel,
		Messages:    msgs,
		Temperature: openAITemperature,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", fmt.Errorf("openai chat: %s (%s)", resp.Error.Message, resp.Error.Type)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai: request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai: %s returned %d: %s", path, resp.StatusCode, truncate(string(data), 200))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("openai: decode response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
