package content

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/mike-a-ellis/mentor-index/internal/markdown"
)

// Loader reads documents from transcript and markdown directories.
type Loader struct {
	titles *markdown.TitleExtractor
	logger *slog.Logger
}

// LoadFailure records a file that could not be turned into a document.
type LoadFailure struct {
	Path   string
	Reason string
}

// NewLoader creates a loader. A nil logger falls back to slog.Default().
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		titles: markdown.NewTitleExtractor(),
		logger: logger,
	}
}

// LoadTranscripts reads every *.json transcript in dir.
// A missing directory yields no documents; unreadable files are reported as failures.
func (l *Loader) LoadTranscripts(dir string) ([]Document, []LoadFailure) {
	files, ok := l.glob(dir, "*.json")
	if !ok {
		return nil, nil
	}

	var docs []Document
	var failures []LoadFailure
	for _, path := range files {
		var t Transcript
		if err := ReadJSON(path, &t); err != nil {
			l.logger.Warn("Failed to load transcript", "path", path, "error", err)
			failures = append(failures, LoadFailure{Path: path, Reason: err.Error()})
			continue
		}
		docs = append(docs, TranscriptDocument(Stem(path), &t))
	}

	l.logger.Info("Loaded transcripts", "dir", dir, "count", len(docs))
	return docs, failures
}

// TranscriptDocument converts a transcript file into a document.
func TranscriptDocument(id string, t *Transcript) Document {
	return Document{
		ID:   id,
		Text: t.TranscriptText,
		Metadata: map[string]any{
			"source_type":      SourceTranscript,
			"title":            orDefault(t.Title, "Unknown"),
			"speaker":          orDefault(t.Speaker, "Unknown"),
			"source_url":       t.SourceURL,
			"video_id":         t.VideoID,
			"duration_minutes": math.Round(t.DurationSeconds/60*10) / 10,
		},
	}
}

// LoadMarkdown reads every *.md file in dir as a document of the given source type.
func (l *Loader) LoadMarkdown(dir, sourceType string) ([]Document, []LoadFailure) {
	files, ok := l.glob(dir, "*.md")
	if !ok {
		return nil, nil
	}

	var docs []Document
	var failures []LoadFailure
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("Failed to load markdown file", "path", path, "error", err)
			failures = append(failures, LoadFailure{Path: path, Reason: err.Error()})
			continue
		}

		stem := Stem(path)
		docs = append(docs, Document{
			ID:   fmt.Sprintf("%s_%s", sourceType, stem),
			Text: string(data),
			Metadata: map[string]any{
				"source_type": sourceType,
				"title":       l.titles.Title(data, stem),
				"filename":    filepath.Base(path),
			},
		})
	}

	l.logger.Info("Loaded markdown files", "dir", dir, "source_type", sourceType, "count", len(docs))
	return docs, failures
}

// glob lists files matching pattern in dir, sorted by name.
// Returns false when dir does not exist.
func (l *Loader) glob(dir, pattern string) ([]string, bool) {
	if _, err := os.Stat(dir); err != nil {
		l.logger.Warn("Directory does not exist", "dir", dir)
		return nil, false
	}
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		l.logger.Warn("Invalid glob pattern", "dir", dir, "pattern", pattern, "error", err)
		return nil, false
	}
	sort.Strings(files)
	return files, true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
