package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WesselKoorn/ask-youtube-anything/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewOpenAIClient(&config.Config{OpenAIAPIKey: "sk-test"})
	require.NoError(t, err)
	client.baseURL = srv.URL
	return client
}

func TestOpenAIEmbed(t *testing.T) {
	t.Run("places vectors by response index", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/embeddings", r.URL.Path)
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

			var req openAIEmbeddingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, []string{"alpha", "beta"}, req.Input)

			// Out of order on purpose.
			fmt.Fprint(w, `{"data":[
				{"index":1,"embedding":[0.2,0.2]},
				{"index":0,"embedding":[0.1,0.1]}
			]}`)
		})

		vectors, err := client.Embed(context.Background(), []string{"alpha", "beta"})
		require.NoError(t, err)
		require.Len(t, vectors, 2)
		assert.Equal(t, []float32{0.1, 0.1}, vectors[0])
		assert.Equal(t, []float32{0.2, 0.2}, vectors[1])
	})

	t.Run("empty input short-circuits", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for empty input")
		})
		vectors, err := client.Embed(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
	})

	t.Run("count mismatch is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.1]}]}`)
		})
		_, err := client.Embed(context.Background(), []string{"alpha", "beta"})
		assert.Error(t, err)
	})

	t.Run("api error envelope", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
		})
		_, err := client.Embed(context.Background(), []string{"alpha"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rate limited")
	})

	t.Run("non-200 status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusBadGateway)
		})
		_, err := client.Embed(context.Background(), []string{"alpha"})
		assert.Error(t, err)
	})
}

func TestOpenAIComplete(t *testing.T) {
	t.Run("maps roles and returns the first choice", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)

			var req openAIChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Messages, 3)
			assert.Equal(t, "system", req.Messages[0].Role)
			assert.Equal(t, "assistant", req.Messages[1].Role)
			assert.Equal(t, "user", req.Messages[2].Role)

			fmt.Fprint(w, `{"choices":[{"message":{"content":"the answer"}}]}`)
		})

		got, err := client.Complete(context.Background(), []Message{
			{Role: RoleSystem, Content: "be helpful"},
			{Role: RoleModel, Content: "earlier reply"},
			{Role: RoleUser, Content: "the question"},
		})
		require.NoError(t, err)
		assert.Equal(t, "the answer", got)
	})

	t.Run("no choices means empty answer, not an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"choices":[]}`)
		})
		got, err := client.Complete(context.Background(), []Message{{Role: RoleUser, Content: "q"}})
		require.NoError(t, err)
		assert.Equal(t, "", got)
	})
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(&config.Config{})
	assert.Error(t, err)
}
