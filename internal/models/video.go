package models

// Video is one entry from a channel's uploads playlist. Transcription is
// attached after a separate fetch and stays empty when the video has no
// captions; such videos produce no chunks.
type Video struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ThumbnailURL  string `json:"thumbnail_url"`
	PublishedAt   string `json:"published_at"`
	VideoID       string `json:"video_id"`
	ChannelID     string `json:"channel_id"`
	Transcription string `json:"transcription,omitempty"`
}

// TranscriptSegment is a single timed caption line. Timing is kept for
// callers that want it; the ingestion pipeline only uses the text.
type TranscriptSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}
