// Package metadata fetches YouTube video metadata and maintains the
// aggregate metadata catalog consumed by the transcription stage.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single yt-dlp invocation.
const DefaultTimeout = 30 * time.Second

var (
	ErrToolNotFound = errors.New("metadata tool not found")
	ErrTimeout      = errors.New("metadata fetch timed out")
	ErrToolFailed   = errors.New("metadata tool failed")
	ErrInvalidJSON  = errors.New("invalid metadata JSON")
)

// Video is the metadata kept for one YouTube video.
type Video struct {
	VideoID         string   `json:"video_id"`
	Title           string   `json:"title"`
	Channel         string   `json:"channel"`
	URL             string   `json:"url"`
	Description     string   `json:"description"`
	DurationSeconds float64  `json:"duration_seconds"`
	UploadDate      string   `json:"upload_date"`
	Tags            []string `json:"tags"`
	Categories      []string `json:"categories"`
	Filename        string   `json:"filename,omitempty"`
}

// FetchError reports which video failed and why.
type FetchError struct {
	VideoID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch metadata for %s: %v", e.VideoID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher returns metadata for a video ID.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*Video, error)
}

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// YTDLP fetches metadata by running yt-dlp --dump-json without downloading media.
type YTDLP struct {
	path    string
	timeout time.Duration
}

// NewYTDLP creates a fetcher for the yt-dlp binary at path.
// An empty path means "yt-dlp" on PATH; a non-positive timeout means DefaultTimeout.
func NewYTDLP(path string, timeout time.Duration) *YTDLP {
	if path == "" {
		path = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &YTDLP{path: path, timeout: timeout}
}

// ytdlpInfo is the subset of yt-dlp's info JSON we read.
type ytdlpInfo struct {
	Title       *string  `json:"title"`
	Channel     string   `json:"channel"`
	Uploader    string   `json:"uploader"`
	Description string   `json:"description"`
	Duration    float64  `json:"duration"`
	UploadDate  string   `json:"upload_date"`
	Tags        []string `json:"tags"`
	Categories  []string `json:"categories"`
}

// waitDelay bounds how long Fetch waits for output pipes after yt-dlp is killed.
const waitDelay = 500 * time.Millisecond

// Fetch runs yt-dlp for one video. All failures are returned as *FetchError.
func (y *YTDLP) Fetch(ctx context.Context, videoID string) (*Video, error) {
	url := WatchURL(videoID)

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, y.path, "--dump-json", "--no-download", "--no-playlist", url)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Wrapper scripts can leave a grandchild holding the output pipes
	// after the kill, so Wait gives up on them shortly after.
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, &FetchError{VideoID: videoID, Err: fmt.Errorf("%w after %s", ErrTimeout, y.timeout)}
		case errors.Is(err, exec.ErrNotFound):
			return nil, &FetchError{VideoID: videoID, Err: fmt.Errorf("%w: %s", ErrToolNotFound, y.path)}
		default:
			msg := strings.TrimSpace(stderr.String())
			return nil, &FetchError{VideoID: videoID, Err: fmt.Errorf("%w: %v: %s", ErrToolFailed, err, msg)}
		}
	}

	video, err := parseInfo(videoID, stdout.Bytes())
	if err != nil {
		return nil, &FetchError{VideoID: videoID, Err: err}
	}
	return video, nil
}

// parseInfo maps yt-dlp JSON onto a Video, applying title and channel fallbacks.
func parseInfo(videoID string, data []byte) (*Video, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	title := "Unknown Title"
	if info.Title != nil {
		title = *info.Title
	}

	channel := info.Channel
	if channel == "" {
		channel = info.Uploader
	}
	if channel == "" {
		channel = "Unknown"
	}

	tags := info.Tags
	if tags == nil {
		tags = []string{}
	}
	categories := info.Categories
	if categories == nil {
		categories = []string{}
	}

	return &Video{
		VideoID:         videoID,
		Title:           title,
		Channel:         channel,
		URL:             WatchURL(videoID),
		Description:     info.Description,
		DurationSeconds: info.Duration,
		UploadDate:      info.UploadDate,
		Tags:            tags,
		Categories:      categories,
	}, nil
}
