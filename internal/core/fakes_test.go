package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/WesselKoorn/ask-youtube-anything/internal/llm"
	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
)

type fakeChannelSource struct {
	videos []models.Video
}

func (f *fakeChannelSource) ResolveChannelID(ctx context.Context, handle string) (string, error) {
	return "UC-" + handle, nil
}

func (f *fakeChannelSource) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	return "UU-" + channelID, nil
}

func (f *fakeChannelSource) RecentVideos(ctx context.Context, playlistID string, maxResults int64) ([]models.Video, error) {
	if int64(len(f.videos)) > maxResults {
		return f.videos[:maxResults], nil
	}
	return f.videos, nil
}

type fakeTranscriptSource struct {
	transcripts map[string]string // videoID -> transcript text
	errs        map[string]error
}

func (f *fakeTranscriptSource) Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	if err, failed := f.errs[videoID]; failed {
		return nil, err
	}
	text, ok := f.transcripts[videoID]
	if !ok {
		return nil, fmt.Errorf("no transcript available for %s", videoID)
	}
	segments := []models.TranscriptSegment{}
	for i, word := range strings.Fields(text) {
		segments = append(segments, models.TranscriptSegment{Text: word, Start: float64(i)})
	}
	return segments, nil
}

// fakeEmbedder returns index-tagged vectors so tests can verify positional
// alignment: the vector for texts[i] is [i, len(texts[i])].
type fakeEmbedder struct {
	calls [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(i), float32(len(text))}
	}
	return vectors, nil
}

// fakeIndex is an in-memory VectorIndex that records every call.
type fakeIndex struct {
	mu           sync.Mutex
	records      map[string]models.VectorRecord // namespace|id -> record
	upsertCalls  [][]models.VectorRecord
	fetchCalls   [][]string
	queryResults []models.SearchResult
	lastQuery    struct {
		namespace string
		channelID string
		topK      int
	}
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: make(map[string]models.VectorRecord)}
}

func (f *fakeIndex) key(namespace, id string) string { return namespace + "|" + id }

func (f *fakeIndex) Upsert(ctx context.Context, records []models.VectorRecord, namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls = append(f.upsertCalls, records)
	for _, rec := range records {
		k := f.key(namespace, rec.ID)
		if _, exists := f.records[k]; exists {
			continue // never overwritten
		}
		f.records[k] = rec
	}
	return nil
}

func (f *fakeIndex) FetchIDs(ctx context.Context, ids []string, namespace string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls = append(f.fetchCalls, ids)
	found := make(map[string]struct{})
	for _, id := range ids {
		if _, ok := f.records[f.key(namespace, id)]; ok {
			found[id] = struct{}{}
		}
	}
	return found, nil
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, namespace, channelID string, topK int) ([]models.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery.namespace = namespace
	f.lastQuery.channelID = channelID
	f.lastQuery.topK = topK
	return f.queryResults, nil
}

func (f *fakeIndex) Close() error { return nil }

type fakeChat struct {
	reply string
	calls [][]llm.Message
}

func (f *fakeChat) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls = append(f.calls, messages)
	return f.reply, nil
}
