package models

// Reference points back at a source video for an answer.
type Reference struct {
	VideoID     string `json:"video_id"`
	Link        string `json:"link"`
	Title       string `json:"title,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// ChatbotAnswer is the grounded answer to one question. References are
// deduplicated by video ID, first occurrence wins.
type ChatbotAnswer struct {
	Answer     string      `json:"answer"`
	References []Reference `json:"references"`
}

// WatchLink builds the canonical watch URL for a video ID.
func WatchLink(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
