package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/WesselKoorn/ask-youtube-anything/internal/config"
	"github.com/WesselKoorn/ask-youtube-anything/internal/models"
)

// ErrChannelNotFound is returned when the search endpoint has no channel for
// a handle. Recoverable: the caller can retry with a different URL.
var ErrChannelNotFound = errors.New("no channel found")

// ErrNoUploadsPlaylist is returned when channel details lack an uploads
// playlist reference.
var ErrNoUploadsPlaylist = errors.New("no uploads playlist found")

// Client resolves channel handles and lists recent uploads via the YouTube
// Data API v3, authenticated with a plain API key.
type Client struct {
	service *youtube.Service
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(cfg.YouTubeAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}
	return &Client{service: service}, nil
}

// ExtractHandle pulls the @handle out of a channel URL like
// https://www.youtube.com/@AlexHormozi/featured. The second return is false
// on malformed URLs or URLs without a handle segment.
func ExtractHandle(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}
	for _, part := range strings.Split(u.Path, "/") {
		if strings.HasPrefix(part, "@") && len(part) > 1 {
			return strings.TrimPrefix(part, "@"), true
		}
	}
	return "", false
}

// ResolveChannelID finds a channel ID for a handle via the search endpoint.
// Exactly one result is requested; if the handle is ambiguous the first match
// wins, which may resolve incorrectly. The resolved ID is logged so a wrong
// match is at least visible.
func (c *Client) ResolveChannelID(ctx context.Context, handle string) (string, error) {
	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(handle).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("channel search failed for handle %q: %w", handle, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.ChannelId == "" {
		return "", fmt.Errorf("handle %q: %w", handle, ErrChannelNotFound)
	}

	channelID := resp.Items[0].Id.ChannelId
	log.Printf("Resolved handle %q to channel %s", handle, channelID)
	return channelID, nil
}

// UploadsPlaylistID returns the channel's uploads playlist ID.
func (c *Client) UploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	resp, err := c.service.Channels.List([]string{"contentDetails"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("channel details failed for %s: %w", channelID, err)
	}

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("channel %s: %w", channelID, ErrNoUploadsPlaylist)
	}
	details := resp.Items[0].ContentDetails
	if details == nil || details.RelatedPlaylists == nil || details.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("channel %s: %w", channelID, ErrNoUploadsPlaylist)
	}
	return details.RelatedPlaylists.Uploads, nil
}

// RecentVideos lists up to maxResults videos from an uploads playlist. Only
// a single page is requested; if the API caps the page size below maxResults,
// fewer videos come back.
func (c *Client) RecentVideos(ctx context.Context, playlistID string, maxResults int64) ([]models.Video, error) {
	resp, err := c.service.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(playlistID).
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("playlist items failed for %s: %w", playlistID, err)
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Snippet.ResourceId == nil {
			continue
		}
		thumbnail := ""
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.High != nil {
			thumbnail = item.Snippet.Thumbnails.High.Url
		}
		videos = append(videos, models.Video{
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			ThumbnailURL: thumbnail,
			PublishedAt:  item.Snippet.PublishedAt,
			VideoID:      item.Snippet.ResourceId.VideoId,
			ChannelID:    item.Snippet.ChannelId,
		})
	}
	return videos, nil
}
