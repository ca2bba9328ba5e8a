package models

import "fmt"

// Chunk is a fixed-size run of transcript words. Its ID is derived from
// (channelID, videoID, chunkIndex), so re-chunking the same video always
// yields the same IDs. That determinism is what makes dedup work across runs.
type Chunk struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	ChannelID   string `json:"channel_id"`
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
}

// ChunkID builds the deterministic chunk identifier.
func ChunkID(channelID, videoID string, index int) string {
	return fmt.Sprintf("%s-%s-%d", channelID, videoID, index)
}

// RecordMetadata is the metadata persisted alongside a vector.
type RecordMetadata struct {
	ChannelID   string `json:"channel_id"`
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	PublishedAt string `json:"published_at"`
}

// VectorRecord is the persisted form of a chunk inside the vector index.
// Once upserted, an ID is never overwritten.
type VectorRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata RecordMetadata `json:"metadata"`
}

// SearchResult is one match from a filtered similarity query. Score is a
// store-defined similarity: opaque, higher is more relevant. Optional
// metadata fields are coerced to "" by the index implementations.
type SearchResult struct {
	ID       string         `json:"id"`
	Score    float32        `json:"score"`
	Metadata RecordMetadata `json:"metadata"`
}
