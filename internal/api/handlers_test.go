package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WesselKoorn/ask-youtube-anything/internal/core"
	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
	"github.com/WesselKoorn/ask-youtube-anything/internal/youtube"
)

type fakeChannelService struct {
	resolveID  string
	resolveErr error
	stats      *core.IngestStats
	ingestErr  error

	lastURL       string
	lastChannelID string
}

func (f *fakeChannelService) ResolveChannel(ctx context.Context, rawURL string) (string, error) {
	f.lastURL = rawURL
	return f.resolveID, f.resolveErr
}

func (f *fakeChannelService) IngestChannel(ctx context.Context, channelID string) (*core.IngestStats, error) {
	f.lastChannelID = channelID
	return f.stats, f.ingestErr
}

type fakeQuestionService struct {
	answer *models.ChatbotAnswer
	err    error

	lastChannelID string
	lastQuestion  string
}

func (f *fakeQuestionService) AskQuestion(ctx context.Context, channelID, question string) (*models.ChatbotAnswer, error) {
	f.lastChannelID = channelID
	f.lastQuestion = question
	return f.answer, f.err
}

func doRequest(t *testing.T, channels ChannelService, questions QuestionService, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(NewAPIHandler(channels, questions))

	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("{}")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, &fakeChannelService{}, &fakeQuestionService{}, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestResolveChannelHandler(t *testing.T) {
	t.Run("resolves a channel URL", func(t *testing.T) {
		channels := &fakeChannelService{resolveID: "UCabc123"}
		rec := doRequest(t, channels, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/resolve", `{"url":"https://www.youtube.com/@AlexHormozi"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp ResolveChannelResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "UCabc123", resp.ChannelID)
		assert.Equal(t, "https://www.youtube.com/@AlexHormozi", channels.lastURL)
	})

	t.Run("missing URL", func(t *testing.T) {
		rec := doRequest(t, &fakeChannelService{}, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/resolve", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(t, &fakeChannelService{}, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/resolve", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("URL without a handle", func(t *testing.T) {
		channels := &fakeChannelService{
			resolveErr: fmt.Errorf("%w: no handle", core.ErrInvalidChannelURL),
		}
		rec := doRequest(t, channels, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/resolve", `{"url":"https://example.com"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown channel", func(t *testing.T) {
		channels := &fakeChannelService{
			resolveErr: fmt.Errorf("handle %q: %w", "ghost", youtube.ErrChannelNotFound),
		}
		rec := doRequest(t, channels, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/resolve", `{"url":"https://www.youtube.com/@ghost"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		channels := &fakeChannelService{resolveErr: errors.New("quota exceeded")}
		rec := doRequest(t, channels, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/resolve", `{"url":"https://www.youtube.com/@AlexHormozi"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestIngestChannelHandler(t *testing.T) {
	t.Run("returns run stats", func(t *testing.T) {
		channels := &fakeChannelService{stats: &core.IngestStats{
			RunID: "run-1", Videos: 10, Transcribed: 8, TotalChunks: 40, NewChunks: 12,
		}}
		rec := doRequest(t, channels, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/UCabc123/ingest", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "UCabc123", channels.lastChannelID)

		var stats core.IngestStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, "run-1", stats.RunID)
		assert.Equal(t, 12, stats.NewChunks)
	})

	t.Run("channel without uploads playlist", func(t *testing.T) {
		channels := &fakeChannelService{
			ingestErr: fmt.Errorf("channel UCabc123: %w", youtube.ErrNoUploadsPlaylist),
		}
		rec := doRequest(t, channels, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/UCabc123/ingest", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("ingestion failure", func(t *testing.T) {
		channels := &fakeChannelService{ingestErr: errors.New("embedder unavailable")}
		rec := doRequest(t, channels, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/UCabc123/ingest", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestAskQuestionHandler(t *testing.T) {
	t.Run("answers with references", func(t *testing.T) {
		questions := &fakeQuestionService{answer: &models.ChatbotAnswer{
			Answer: "Charge more.",
			References: []models.Reference{{
				VideoID:     "vid1",
				Link:        "https://www.youtube.com/watch?v=vid1",
				Title:       "Pricing deep dive",
				PublishedAt: "2024-01-15T00:00:00Z",
			}},
		}}
		rec := doRequest(t, &fakeChannelService{}, questions, http.MethodPost,
			"/api/channels/UCabc123/questions", `{"question":"How should I price?"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "UCabc123", questions.lastChannelID)
		assert.Equal(t, "How should I price?", questions.lastQuestion)

		var answer models.ChatbotAnswer
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &answer))
		assert.Equal(t, "Charge more.", answer.Answer)
		require.Len(t, answer.References, 1)
		assert.Equal(t, "https://www.youtube.com/watch?v=vid1", answer.References[0].Link)
	})

	t.Run("empty question", func(t *testing.T) {
		rec := doRequest(t, &fakeChannelService{}, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/UCabc123/questions", `{"question":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := doRequest(t, &fakeChannelService{}, &fakeQuestionService{}, http.MethodPost,
			"/api/channels/UCabc123/questions", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("answer failure", func(t *testing.T) {
		questions := &fakeQuestionService{err: errors.New("model timeout")}
		rec := doRequest(t, &fakeChannelService{}, questions, http.MethodPost,
			"/api/channels/UCabc123/questions", `{"question":"anything"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
