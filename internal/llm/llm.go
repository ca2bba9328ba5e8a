// Package llm abstracts the embedding and chat-completion providers behind
// capability interfaces so the pipeline never touches a vendor SDK directly.
package llm

import (
	"context"
	"fmt"

	"github.com/WesselKoorn/ask-youtube-anything/internal/config"
)

// Message is one role-tagged turn of a completion prompt.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem = "system"
	RoleUser   = "user"
	RoleModel  = "model"
)

// Embedder converts a batch of texts into fixed-dimension vectors. Output
// aligns positionally with input: result[i] embeds texts[i].
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatModel produces one text completion for an ordered message list.
// An empty response with a nil error means the model returned no content;
// the caller decides the fallback.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Client bundles both capabilities of one provider.
type Client interface {
	Embedder
	ChatModel
	Close() error
}

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
