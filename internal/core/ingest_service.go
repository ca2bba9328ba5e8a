package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/WesselKoorn/ask-youtube-anything/internal/config"
	"github.com/WesselKoorn/ask-youtube-anything/internal/llm"
	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
	"github.com/WesselKoorn/ask-youtube-anything/internal/store"
	"github.com/WesselKoorn/ask-youtube-anything/internal/youtube"
)

const (
	// fetchBatchSize matches the store's fetch-by-id limit.
	fetchBatchSize = 100
	// upsertBatchSize bounds each upsert payload. Batches go out
	// sequentially, never in parallel.
	upsertBatchSize = 50
)

// ErrInvalidChannelURL is returned when no @handle can be extracted from a
// channel URL.
var ErrInvalidChannelURL = errors.New("could not parse a handle from URL")

// ChannelSource resolves channels and lists their recent uploads.
type ChannelSource interface {
	ResolveChannelID(ctx context.Context, handle string) (string, error)
	UploadsPlaylistID(ctx context.Context, channelID string) (string, error)
	RecentVideos(ctx context.Context, playlistID string, maxResults int64) ([]models.Video, error)
}

// TranscriptSource fetches one video's caption segments.
type TranscriptSource interface {
	Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, error)
}

// IngestStats summarizes one ingestion run.
type IngestStats struct {
	RunID       string `json:"run_id"`
	Videos      int    `json:"videos"`
	Transcribed int    `json:"transcribed"`
	TotalChunks int    `json:"total_chunks"`
	NewChunks   int    `json:"new_chunks"`
}

// IngestService runs the ingestion path: resolve a channel, fetch recent
// videos and transcripts, chunk, drop already-indexed chunks, embed, and
// upsert into the vector index.
type IngestService struct {
	channels    ChannelSource
	transcripts TranscriptSource
	embedder    llm.Embedder
	index       store.VectorIndex
	cfg         *config.Config
}

func NewIngestService(channels ChannelSource, transcripts TranscriptSource, embedder llm.Embedder, index store.VectorIndex, cfg *config.Config) *IngestService {
	return &IngestService{
		channels:    channels,
		transcripts: transcripts,
		embedder:    embedder,
		index:       index,
		cfg:         cfg,
	}
}

// ResolveChannel turns a channel URL into a channel ID.
func (s *IngestService) ResolveChannel(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", fmt.Errorf("%w: empty URL", ErrInvalidChannelURL)
	}
	handle, ok := youtube.ExtractHandle(rawURL)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidChannelURL, rawURL)
	}
	return s.channels.ResolveChannelID(ctx, handle)
}

// IngestChannel ingests the channel's most recent videos into the vector
// index. Videos without a transcript are skipped; zero new chunks is a
// successful no-op.
func (s *IngestService) IngestChannel(ctx context.Context, channelID string) (*IngestStats, error) {
	stats := &IngestStats{RunID: uuid.NewString()}

	playlistID, err := s.channels.UploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	videos, err := s.channels.RecentVideos(ctx, playlistID, s.cfg.MaxVideos)
	if err != nil {
		return nil, err
	}
	stats.Videos = len(videos)
	log.Printf("[run %s] Ingesting %d videos for channel %s", stats.RunID, len(videos), channelID)

	videoIDs := make([]string, 0, len(videos))
	for _, v := range videos {
		videoIDs = append(videoIDs, v.VideoID)
	}
	transcriptions := s.fetchTranscripts(ctx, videoIDs)

	var allChunks []models.Chunk
	for i := range videos {
		transcription, ok := transcriptions[videos[i].VideoID]
		if !ok {
			continue
		}
		videos[i].Transcription = transcription
		stats.Transcribed++
		allChunks = append(allChunks,
			ChunkTranscript(transcription, videos[i].ChannelID, videos[i].VideoID,
				videos[i].Title, videos[i].PublishedAt, s.cfg.ChunkSize)...)
	}
	stats.TotalChunks = len(allChunks)

	newChunks, err := s.filterNewChunks(ctx, allChunks)
	if err != nil {
		return nil, err
	}
	stats.NewChunks = len(newChunks)

	if len(newChunks) == 0 {
		log.Printf("[run %s] No new chunks to upsert.", stats.RunID)
		return stats, nil
	}

	texts := make([]string, len(newChunks))
	for i, c := range newChunks {
		texts[i] = c.Text
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(newChunks), err)
	}
	if len(vectors) != len(newChunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(newChunks))
	}

	records := make([]models.VectorRecord, len(newChunks))
	for i, chunk := range newChunks {
		records[i] = models.VectorRecord{
			ID:     chunk.ID,
			Values: vectors[i],
			Metadata: models.RecordMetadata{
				ChannelID:   chunk.ChannelID,
				VideoID:     chunk.VideoID,
				Title:       chunk.Title,
				Text:        chunk.Text,
				PublishedAt: chunk.PublishedAt,
			},
		}
	}

	for start := 0; start < len(records); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := s.index.Upsert(ctx, records[start:end], s.cfg.IndexNamespace); err != nil {
			return nil, fmt.Errorf("failed to upsert batch %d-%d: %w", start, end, err)
		}
		log.Printf("[run %s] Upserted %d chunks (batch: %d - %d)", stats.RunID, end-start, start, end)
	}

	return stats, nil
}

// fetchTranscripts fans out one fetch per video and joins the results keyed
// by video ID. A failed fetch is isolated: it is logged, the video is left
// out of the map, and the rest of the batch proceeds.
func (s *IngestService) fetchTranscripts(ctx context.Context, videoIDs []string) map[string]string {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(videoIDs))
	)

	for _, videoID := range videoIDs {
		wg.Add(1)
		go func(videoID string) {
			defer wg.Done()
			segments, err := s.transcripts.Fetch(ctx, videoID)
			if err != nil {
				log.Printf("Skipping video %s: %v", videoID, err)
				return
			}
			text := youtube.JoinSegments(segments)
			if text == "" {
				log.Printf("Skipping video %s: empty transcript", videoID)
				return
			}
			mu.Lock()
			results[videoID] = text
			mu.Unlock()
		}(videoID)
	}
	wg.Wait()
	return results
}

// filterNewChunks drops chunks whose IDs already exist in the index,
// checking existence in batches of fetchBatchSize. Input order is preserved.
func (s *IngestService) filterNewChunks(ctx context.Context, chunks []models.Chunk) ([]models.Chunk, error) {
	var unique []models.Chunk
	for start := 0; start < len(chunks); start += fetchBatchSize {
		end := start + fetchBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		ids := make([]string, len(batch))
		for i, c := range batch {
			ids[i] = c.ID
		}
		existing, err := s.index.FetchIDs(ctx, ids, s.cfg.IndexNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing chunk ids: %w", err)
		}
		for _, c := range batch {
			if _, found := existing[c.ID]; !found {
				unique = append(unique, c)
			}
		}
	}
	return unique, nil
}
