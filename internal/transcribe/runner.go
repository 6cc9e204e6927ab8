package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mike-a-ellis/mentor-index/internal/confirm"
	"github.com/mike-a-ellis/mentor-index/internal/content"
	"github.com/mike-a-ellis/mentor-index/internal/metadata"
)

const (
	// MaxUploadBytes is the Whisper API upload limit.
	MaxUploadBytes = 25 * 1024 * 1024

	// PricePerMinute is the Whisper list price in USD.
	PricePerMinute = 0.006

	// MaxTags caps the topic tags copied into a transcript.
	MaxTags = 10
)

// ErrAborted is returned when the operator declines the cost confirmation.
var ErrAborted = errors.New("transcription aborted")

// Options selects which files a run transcribes.
type Options struct {
	MP3Dir       string
	CatalogPath  string
	OutputDir    string
	Limit        int  // 0 means no limit
	SkipExisting bool // skip MP3s whose transcript JSON already exists
}

// Report summarizes a transcription run.
type Report struct {
	WithMetadata     int      // MP3 files that have a catalog entry
	AlreadyDone      int      // skipped because a transcript exists
	TooLarge         []string // skipped because of the upload limit
	Planned          int
	EstimatedMinutes float64
	EstimatedCost    float64
	Successful       int
	Failed           []string
}

// Runner transcribes a directory of MP3s described by a metadata catalog.
type Runner struct {
	transcriber Transcriber
	confirmer   confirm.Confirmer
	logger      *slog.Logger
}

// NewRunner creates a runner. A nil logger falls back to slog.Default().
func NewRunner(transcriber Transcriber, confirmer confirm.Confirmer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		transcriber: transcriber,
		confirmer:   confirmer,
		logger:      logger,
	}
}

// Run transcribes every selected file, writing <stem>.json to OutputDir.
// Per-file failures are recorded in the report; the run continues.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	catalog, err := metadata.LoadCatalog(opts.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load metadata catalog: %w", err)
	}
	byFile := catalog.ByFilename()

	files, err := metadata.ListMP3(opts.MP3Dir)
	if err != nil {
		return nil, err
	}

	report := &Report{TooLarge: []string{}, Failed: []string{}}
	selected, err := r.selectFiles(files, byFile, opts, report)
	if err != nil {
		return nil, err
	}
	report.Planned = len(selected)

	if len(selected) == 0 {
		r.logger.Info("No files to transcribe")
		return report, nil
	}

	var seconds float64
	for _, f := range selected {
		seconds += byFile[filepath.Base(f)].DurationSeconds
	}
	report.EstimatedMinutes = seconds / 60
	report.EstimatedCost = report.EstimatedMinutes * PricePerMinute

	question := fmt.Sprintf("Transcribe %d files (~%.1f minutes, ~$%.2f)?",
		len(selected), report.EstimatedMinutes, report.EstimatedCost)
	ok, err := r.confirmer.Confirm(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("confirm transcription: %w", err)
	}
	if !ok {
		return report, ErrAborted
	}

	for i, file := range selected {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		name := filepath.Base(file)
		r.logger.Info("Transcribing", "file", name, "progress", fmt.Sprintf("%d/%d", i+1, len(selected)))

		if err := r.transcribeOne(ctx, file, byFile[name], opts.OutputDir); err != nil {
			r.logger.Warn("Failed to transcribe", "file", name, "error", err)
			report.Failed = append(report.Failed, name)
			continue
		}
		report.Successful++
	}

	return report, nil
}

// selectFiles applies the catalog filter, skip-existing, the upload limit and
// the file limit, in that order.
func (r *Runner) selectFiles(files []string, byFile map[string]metadata.Video, opts Options, report *Report) ([]string, error) {
	existing := map[string]bool{}
	if opts.SkipExisting {
		done, err := filepath.Glob(filepath.Join(opts.OutputDir, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("list transcripts: %w", err)
		}
		for _, f := range done {
			existing[content.Stem(f)] = true
		}
	}

	var selected []string
	for _, f := range files {
		if _, ok := byFile[filepath.Base(f)]; !ok {
			continue
		}
		report.WithMetadata++

		if existing[content.Stem(f)] {
			report.AlreadyDone++
			continue
		}

		info, err := os.Stat(f)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", f, err)
		}
		if info.Size() > MaxUploadBytes {
			r.logger.Warn("Skipping file over upload limit", "file", filepath.Base(f),
				"size_mb", fmt.Sprintf("%.1f", float64(info.Size())/1024/1024))
			report.TooLarge = append(report.TooLarge, filepath.Base(f))
			continue
		}

		selected = append(selected, f)
	}

	if opts.Limit > 0 && len(selected) > opts.Limit {
		selected = selected[:opts.Limit]
	}
	return selected, nil
}

func (r *Runner) transcribeOne(ctx context.Context, file string, video metadata.Video, outputDir string) error {
	result, err := r.transcriber.Transcribe(ctx, file)
	if err != nil {
		return err
	}

	transcript := NewTranscript(file, video, result)
	out := filepath.Join(outputDir, content.Stem(file)+".json")
	return content.WriteJSON(out, transcript)
}

// NewTranscript combines catalog metadata with a transcription result.
func NewTranscript(sourceFile string, video metadata.Video, result *Result) *content.Transcript {
	tags := video.Tags
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	if tags == nil {
		tags = []string{}
	}
	categories := video.Categories
	if categories == nil {
		categories = []string{}
	}
	segments := result.Segments
	if segments == nil {
		segments = []content.Segment{}
	}

	return &content.Transcript{
		SourceFile:      sourceFile,
		VideoID:         video.VideoID,
		Title:           orDefault(video.Title, "Unknown"),
		Speaker:         orDefault(video.Channel, "Unknown"),
		SourceURL:       video.URL,
		TopicTags:       tags,
		Categories:      categories,
		TranscriptText:  result.Text,
		Segments:        segments,
		DurationSeconds: result.Duration,
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
