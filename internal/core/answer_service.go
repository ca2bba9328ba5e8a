package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/WesselKoorn/ask-youtube-anything/internal/config"
	"github.com/WesselKoorn/ask-youtube-anything/internal/llm"
	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
	"github.com/WesselKoorn/ask-youtube-anything/internal/store"
)

const (
	// TopK is how many chunks ground one answer.
	TopK = 5

	// FallbackAnswer replaces an empty model response.
	FallbackAnswer = "No answer"

	answerSystemInstruction = "You are a helpful assistant who uses the provided context from YouTube videos to answer questions. " +
		"Provide as much detail as needed, and when you do, try to reference the sources in your answer. " +
		"If you're unsure, say so."
)

// AnswerService runs the query path: embed a question, retrieve the
// channel's most relevant chunks, and compose a grounded answer with
// deduplicated source references.
type AnswerService struct {
	embedder llm.Embedder
	chat     llm.ChatModel
	index    store.VectorIndex
	cfg      *config.Config
}

func NewAnswerService(embedder llm.Embedder, chat llm.ChatModel, index store.VectorIndex, cfg *config.Config) *AnswerService {
	return &AnswerService{
		embedder: embedder,
		chat:     chat,
		index:    index,
		cfg:      cfg,
	}
}

// AskQuestion answers a question about one channel's content.
func (s *AnswerService) AskQuestion(ctx context.Context, channelID, question string) (*models.ChatbotAnswer, error) {
	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one question", len(vectors))
	}

	results, err := s.index.Query(ctx, vectors[0], s.cfg.IndexNamespace, channelID, TopK)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}
	log.Printf("Retrieved %d chunks for question on channel %s", len(results), channelID)

	answer, err := s.compose(ctx, question, results)
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// compose builds the grounding context, runs one chat completion, and
// derives the deduplicated reference list.
func (s *AnswerService) compose(ctx context.Context, question string, results []models.SearchResult) (*models.ChatbotAnswer, error) {
	userPrompt := fmt.Sprintf(
		"Here is some context from the user's videos:\n\n%s\n\n"+
			"Now, answer the user's question using *only* the above context.\n"+
			"If it's not covered, say you are unsure.\n\n"+
			"User's question: %q",
		buildContext(results), question)

	answerText, err := s.chat.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: answerSystemInstruction},
		{Role: llm.RoleUser, Content: userPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if strings.TrimSpace(answerText) == "" {
		answerText = FallbackAnswer
	}

	return &models.ChatbotAnswer{
		Answer:     answerText,
		References: buildReferences(results),
	}, nil
}

// buildContext renders one delimited block per search result, blank-line
// separated.
func buildContext(results []models.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for i, res := range results {
		title := res.Metadata.Title
		if title == "" {
			title = "Untitled"
		}
		blocks = append(blocks, fmt.Sprintf(
			"Source #%d\nTitle: %s\nLink: %s\nTranscript snippet: %q",
			i+1, title, models.WatchLink(res.Metadata.VideoID), res.Metadata.Text))
	}
	return strings.Join(blocks, "\n\n")
}

// buildReferences derives the reference list from the search results,
// deduplicated by video ID keeping the first occurrence.
func buildReferences(results []models.SearchResult) []models.Reference {
	seen := make(map[string]struct{}, len(results))
	references := make([]models.Reference, 0, len(results))
	for _, res := range results {
		videoID := res.Metadata.VideoID
		if _, dup := seen[videoID]; dup {
			continue
		}
		seen[videoID] = struct{}{}
		references = append(references, models.Reference{
			VideoID:     videoID,
			Link:        models.WatchLink(videoID),
			Title:       res.Metadata.Title,
			PublishedAt: res.Metadata.PublishedAt,
		})
	}
	return references
}
