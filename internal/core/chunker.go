package core

import (
	"strings"

	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
)

// DefaultChunkSize is the number of words per chunk.
const DefaultChunkSize = 500

// ChunkTranscript splits a transcription into consecutive runs of chunkSize
// words; the last chunk may be shorter. Chunk IDs are deterministic, so the
// same input always produces the same ordered chunk list. An empty
// transcription yields no chunks.
func ChunkTranscript(transcription, channelID, videoID, title, publishedAt string, chunkSize int) []models.Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	words := strings.Fields(transcription)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]models.Chunk, 0, (len(words)+chunkSize-1)/chunkSize)
	for start, index := 0, 0; start < len(words); start, index = start+chunkSize, index+1 {
		end := start + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, models.Chunk{
			ID:          models.ChunkID(channelID, videoID, index),
			Text:        strings.Join(words[start:end], " "),
			ChannelID:   channelID,
			VideoID:     videoID,
			Title:       title,
			PublishedAt: publishedAt,
		})
	}
	return chunks
}
