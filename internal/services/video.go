package services

import (
	"context"
	"fmt"
	"regexp"

	yt "github.com/kkdai/youtube/v2"
)

var videoIDRegex = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|^)([a-zA-Z0-9_-]{11})(?:[&?].*)?$`)

// VideoService resolves and validates the YouTube video ids attached to
// course chapters.
type VideoService struct {
	client *yt.Client
}

type VideoMetadata struct {
	VideoID      string `json:"video_id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	ThumbnailURL string `json:"thumbnail_url"`
	DurationSec  int    `json:"duration_seconds"`
}

func NewVideoService() *VideoService {
	return &VideoService{client: &yt.Client{}}
}

// ExtractVideoID accepts either a watch URL or a bare 11-character id.
func (s *VideoService) ExtractVideoID(input string) (string, error) {
	matches := videoIDRegex.FindStringSubmatch(input)
	if len(matches) < 2 {
		return "", fmt.Errorf("not a recognizable YouTube video reference: %q", input)
	}
	return matches[1], nil
}

// Lookup fetches metadata for a video id, confirming it exists and is
// playable before it gets attached to a chapter.
func (s *VideoService) Lookup(ctx context.Context, videoID string) (*VideoMetadata, error) {
	video, err := s.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("video lookup failed: %w", err)
	}

	meta := &VideoMetadata{
		VideoID:      videoID,
		Title:        video.Title,
		Author:       video.Author,
		ThumbnailURL: fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", videoID),
		DurationSec:  int(video.Duration.Seconds()),
	}
	if len(video.Thumbnails) > 0 {
		meta.ThumbnailURL = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	return meta, nil
}
