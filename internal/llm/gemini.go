package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/WesselKoorn/ask-youtube-anything/internal/config"
)

const (
	geminiChatModel      = "gemini-1.5-flash-latest"
	geminiEmbeddingModel = "text-embedding-004"

	geminiTemperature = float32(0.7)
)

// GeminiClient implements Embedder and ChatModel against the Gemini API.
type GeminiClient struct {
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// Embed sends all texts in one batched request. The response aligns
// positionally with the batch contents.
func (c *GeminiClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := c.client.EmbeddingModel(geminiEmbeddingModel)
	batch := em.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	res, err := em.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs", len(res.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range res.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding data received for input %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// Complete runs one chat completion. System messages become the model's
// SystemInstruction; the last user message is sent against the remaining
// history.
func (c *GeminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	model := c.client.GenerativeModel(geminiChatModel)

	temp := geminiTemperature
	model.GenerationConfig = genai.GenerationConfig{Temperature: &temp}

	var turns []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
		case RoleModel:
			turns = append(turns, &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		default:
			turns = append(turns, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(msg.Content)},
			})
		}
	}

	if len(turns) == 0 {
		return "", fmt.Errorf("no user message for chat completion")
	}
	last := turns[len(turns)-1]
	if last.Role != "user" {
		return "", fmt.Errorf("last message in prompt is not from 'user'")
	}

	session := model.StartChat()
	session.History = turns[:len(turns)-1]

	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return "", fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		log.Println("Gemini response was empty or had no valid candidates.")
		return "", nil
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			out.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}
	return out.String(), nil
}
