package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/mike-a-ellis/mentor-index/internal/content"
)

// DefaultCatalogFile is where the aggregate metadata is written.
const DefaultCatalogFile = "content_metadata.json"

// ErrDirNotFound is returned when the MP3 directory is missing.
var ErrDirNotFound = errors.New("directory does not exist")

// Catalog is the aggregate metadata file for a directory of MP3s.
type Catalog struct {
	TotalFiles int      `json:"total_files"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	FailedIDs  []string `json:"failed_ids"`
	Videos     []Video  `json:"videos"`
}

// ByFilename indexes videos by their MP3 file name.
func (c *Catalog) ByFilename() map[string]Video {
	out := make(map[string]Video, len(c.Videos))
	for _, v := range c.Videos {
		out[v.Filename] = v
	}
	return out
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	var c Catalog
	if err := content.ReadJSON(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes the catalog as indented JSON.
func (c *Catalog) Save(path string) error {
	return content.WriteJSON(path, c)
}

// ListMP3 returns the *.mp3 files in dir sorted by name.
func ListMP3(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.mp3"))
	if err != nil {
		return nil, fmt.Errorf("list mp3 files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Collector builds a catalog by fetching metadata for every MP3 in a directory.
// MP3 files are named by YouTube video ID (e.g. _9rlYITqtuE.mp3).
type Collector struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// NewCollector creates a collector. A nil logger falls back to slog.Default().
func NewCollector(fetcher Fetcher, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{fetcher: fetcher, logger: logger}
}

// Collect fetches metadata for each MP3 in dir. Per-video failures are
// logged and listed in FailedIDs; only a missing directory or a cancelled
// context aborts the run.
func (c *Collector) Collect(ctx context.Context, dir string) (*Catalog, error) {
	files, err := ListMP3(dir)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Found MP3 files", "dir", dir, "count", len(files))

	catalog := &Catalog{
		TotalFiles: len(files),
		FailedIDs:  []string{},
		Videos:     []Video{},
	}

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		videoID := content.Stem(file)
		video, err := c.fetcher.Fetch(ctx, videoID)
		if err != nil {
			c.logger.Warn("Failed to fetch metadata", "video_id", videoID, "error", err)
			catalog.FailedIDs = append(catalog.FailedIDs, videoID)
			continue
		}

		video.Filename = filepath.Base(file)
		catalog.Videos = append(catalog.Videos, *video)
		c.logger.Debug("Fetched metadata", "video_id", videoID, "title", video.Title,
			"progress", fmt.Sprintf("%d/%d", i+1, len(files)))
	}

	catalog.Successful = len(catalog.Videos)
	catalog.Failed = len(catalog.FailedIDs)
	return catalog, nil
}
