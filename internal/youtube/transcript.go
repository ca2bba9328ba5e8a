package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
)

// ErrNoTranscript is returned when a video has no usable caption track.
// Callers treat this per video: the video is skipped, not failed.
var ErrNoTranscript = errors.New("no transcript available")

const (
	ytWatchURL     = "https://www.youtube.com/watch?v="
	ytInnertubeURL = "https://youtubei.googleapis.com/youtubei/v1/player"

	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
	ytDesktopUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	// ytInitialPlayerResponseMarker marks the start of the player response
	// JSON in watch page HTML.
	ytInitialPlayerResponseMarker = "ytInitialPlayerResponse = "
)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl"`
	Gl                string `json:"gl"`
}

type timedText struct {
	Lines []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

// TranscriptClient fetches video transcripts as timed text segments.
// Primary:  scrape watch page ytInitialPlayerResponse -> caption track XML
// Fallback: ANDROID Innertube /player -> captionTracks
type TranscriptClient struct {
	httpClient *http.Client
	langs      []string
}

func NewTranscriptClient(langs []string) *TranscriptClient {
	if len(langs) == 0 {
		langs = []string{"en"}
	}
	return &TranscriptClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		langs:      langs,
	}
}

// Fetch returns the ordered caption segments for a video, or ErrNoTranscript
// when the video has no usable track.
func (c *TranscriptClient) Fetch(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	segments, scrapeErr := c.fetchViaPageScrape(ctx, videoID)
	if scrapeErr == nil {
		return segments, nil
	}

	segments, playerErr := c.fetchViaPlayer(ctx, videoID)
	if playerErr == nil {
		return segments, nil
	}

	return nil, fmt.Errorf("transcript for %s: %w (page scrape: %v, player: %v)",
		videoID, ErrNoTranscript, scrapeErr, playerErr)
}

// JoinSegments concatenates segment text with single spaces, discarding
// timing. Empty segments are skipped.
func JoinSegments(segments []models.TranscriptSegment) string {
	var sb strings.Builder
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String()
}

func (c *TranscriptClient) fetchViaPageScrape(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ytWatchURL+videoID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", ytDesktopUA)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch page: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, errors.New("failed to extract ytInitialPlayerResponse JSON")
	}

	var player playerResponse
	if err := json.Unmarshal(jsonData, &player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return c.segmentsFromPlayer(ctx, &player)
}

func (c *TranscriptClient) fetchViaPlayer(ctx context.Context, videoID string) ([]models.TranscriptSegment, error) {
	reqBody, err := json.Marshal(innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ytInnertubeURL+"?prettyPrint=false", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", ytAndroidUA)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("android innertube: %w", err)
	}
	defer resp.Body.Close()

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("decode player: %w", err)
	}
	return c.segmentsFromPlayer(ctx, &player)
}

func (c *TranscriptClient) segmentsFromPlayer(ctx context.Context, player *playerResponse) ([]models.TranscriptSegment, error) {
	if player.Captions == nil {
		if player.PlayabilityStatus != nil && player.PlayabilityStatus.Reason != "" {
			return nil, fmt.Errorf("captions unavailable: %s", player.PlayabilityStatus.Reason)
		}
		return nil, errors.New("no captions in player response")
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, errors.New("no caption tracks")
	}
	track := pickBestTrack(tracks, c.langs)
	return c.fetchTimedText(ctx, track.BaseURL)
}

// pickBestTrack selects a caption track: manual track in a preferred
// language, then auto-generated in a preferred language, then any English
// track, then the first one.
func pickBestTrack(tracks []captionTrack, langs []string) captionTrack {
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t
			}
		}
	}
	for _, lang := range langs {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}

// fetchTimedText fetches and parses a timedtext XML caption URL into
// ordered segments.
func (c *TranscriptClient) fetchTimedText(ctx context.Context, baseURL string) ([]models.TranscriptSegment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", ytDesktopUA)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch timedtext: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, err
	}
	return parseTimedText(body)
}

func parseTimedText(data []byte) ([]models.TranscriptSegment, error) {
	var tt timedText
	if err := xml.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	segments := make([]models.TranscriptSegment, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		// Caption text is often double-escaped (&amp;#39;); the XML decoder
		// handles the first level, UnescapeString the second.
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text == "" {
			continue
		}
		segments = append(segments, models.TranscriptSegment{
			Text:     text,
			Start:    line.Start,
			Duration: line.Dur,
		})
	}
	if len(segments) == 0 {
		return nil, errors.New("empty transcript segments")
	}
	return segments, nil
}

// extractJSON returns the first balanced {...} object in data, respecting
// string literals and escapes.
func extractJSON(data []byte) []byte {
	start := bytes.IndexByte(data, '{')
	if start < 0 {
		return nil
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(data); i++ {
		c := data[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return data[start : i+1]
				}
			}
		}
	}
	return nil
}
