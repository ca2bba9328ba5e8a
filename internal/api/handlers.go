package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/WesselKoorn/ask-youtube-anything/internal/core"
	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
	"github.com/WesselKoorn/ask-youtube-anything/internal/youtube"
)

// ChannelService is the ingestion-path boundary consumed by the handlers.
type ChannelService interface {
	ResolveChannel(ctx context.Context, rawURL string) (string, error)
	IngestChannel(ctx context.Context, channelID string) (*core.IngestStats, error)
}

// QuestionService is the query-path boundary consumed by the handlers.
type QuestionService interface {
	AskQuestion(ctx context.Context, channelID, question string) (*models.ChatbotAnswer, error)
}

type APIHandler struct {
	channels  ChannelService
	questions QuestionService
}

func NewAPIHandler(channels ChannelService, questions QuestionService) *APIHandler {
	return &APIHandler{channels: channels, questions: questions}
}

type ResolveChannelRequest struct {
	URL string `json:"url"`
}

type ResolveChannelResponse struct {
	ChannelID string `json:"channel_id"`
}

func (h *APIHandler) ResolveChannelHandler(w http.ResponseWriter, r *http.Request) {
	var req ResolveChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "Channel URL is required", http.StatusBadRequest)
		return
	}

	channelID, err := h.channels.ResolveChannel(r.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidChannelURL):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, youtube.ErrChannelNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			log.Printf("Error resolving channel URL %s: %v", req.URL, err)
			http.Error(w, "Failed to resolve channel", http.StatusInternalServerError)
		}
		return
	}

	json.NewEncoder(w).Encode(ResolveChannelResponse{ChannelID: channelID})
}

func (h *APIHandler) IngestChannelHandler(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	stats, err := h.channels.IngestChannel(r.Context(), channelID)
	if err != nil {
		switch {
		case errors.Is(err, youtube.ErrNoUploadsPlaylist):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			log.Printf("Error ingesting channel %s: %v", channelID, err)
			http.Error(w, "Failed to ingest channel", http.StatusInternalServerError)
		}
		return
	}

	json.NewEncoder(w).Encode(stats)
}

type AskQuestionRequest struct {
	Question string `json:"question"`
}

func (h *APIHandler) AskQuestionHandler(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var req AskQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		http.Error(w, "Question cannot be empty", http.StatusBadRequest)
		return
	}

	answer, err := h.questions.AskQuestion(r.Context(), channelID, req.Question)
	if err != nil {
		log.Printf("Error answering question for channel %s: %v", channelID, err)
		http.Error(w, "Failed to answer question", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(answer)
}
