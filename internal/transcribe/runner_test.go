package transcribe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mike-a-ellis/mentor-index/internal/confirm"
	"github.com/mike-a-ellis/mentor-index/internal/content"
	"github.com/mike-a-ellis/mentor-index/internal/metadata"
)

type fakeTranscriber struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (*Result, error) {
	name := filepath.Base(audioPath)
	f.calls = append(f.calls, name)
	if f.fail[name] {
		return nil, errors.New("api error")
	}
	return &Result{
		Text:     "transcript of " + name,
		Segments: []content.Segment{{Start: 0, End: 1, Text: "hi"}},
		Duration: 90,
	}, nil
}

type fixture struct {
	opts Options
}

// newFixture writes one MP3 per id and a catalog covering the ids in withMeta.
func newFixture(t *testing.T, ids []string, withMeta []string) fixture {
	t.Helper()
	root := t.TempDir()
	mp3Dir := filepath.Join(root, "mp3")
	require.NoError(t, os.MkdirAll(mp3Dir, 0o755))

	for _, id := range ids {
		require.NoError(t, os.WriteFile(filepath.Join(mp3Dir, id+".mp3"), []byte("ID3"), 0o644))
	}

	catalog := &metadata.Catalog{TotalFiles: len(ids), FailedIDs: []string{}}
	for _, id := range withMeta {
		catalog.Videos = append(catalog.Videos, metadata.Video{
			VideoID:         id,
			Title:           "Title " + id,
			Channel:         "Channel " + id,
			URL:             metadata.WatchURL(id),
			DurationSeconds: 600,
			Tags:            []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9", "t10", "t11", "t12"},
			Categories:      []string{"Education"},
			Filename:        id + ".mp3",
		})
	}
	catalogPath := filepath.Join(root, metadata.DefaultCatalogFile)
	require.NoError(t, catalog.Save(catalogPath))

	return fixture{opts: Options{
		MP3Dir:       mp3Dir,
		CatalogPath:  catalogPath,
		OutputDir:    filepath.Join(root, "transcripts"),
		SkipExisting: true,
	}}
}

func TestRun_TranscribesFilesWithMetadata(t *testing.T) {
	fx := newFixture(t, []string{"aaa", "bbb", "ccc"}, []string{"aaa", "bbb"})
	tr := &fakeTranscriber{}

	report, err := NewRunner(tr, confirm.Always(true), nil).Run(context.Background(), fx.opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"aaa.mp3", "bbb.mp3"}, tr.calls)
	assert.Equal(t, 2, report.WithMetadata)
	assert.Equal(t, 2, report.Planned)
	assert.Equal(t, 2, report.Successful)
	assert.Empty(t, report.Failed)
	assert.InDelta(t, 20.0, report.EstimatedMinutes, 1e-9)
	assert.InDelta(t, 20.0*PricePerMinute, report.EstimatedCost, 1e-9)

	var got content.Transcript
	require.NoError(t, content.ReadJSON(filepath.Join(fx.opts.OutputDir, "aaa.json"), &got))
	assert.Equal(t, "aaa", got.VideoID)
	assert.Equal(t, "Title aaa", got.Title)
	assert.Equal(t, "Channel aaa", got.Speaker)
	assert.Equal(t, "https://www.youtube.com/watch?v=aaa", got.SourceURL)
	assert.Len(t, got.TopicTags, MaxTags)
	assert.Equal(t, "transcript of aaa.mp3", got.TranscriptText)
	assert.Equal(t, 90.0, got.DurationSeconds)
	assert.Len(t, got.Segments, 1)
}

func TestRun_SkipsExisting(t *testing.T) {
	fx := newFixture(t, []string{"aaa", "bbb"}, []string{"aaa", "bbb"})
	require.NoError(t, content.WriteJSON(filepath.Join(fx.opts.OutputDir, "aaa.json"), content.Transcript{}))
	tr := &fakeTranscriber{}

	report, err := NewRunner(tr, confirm.Always(true), nil).Run(context.Background(), fx.opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"bbb.mp3"}, tr.calls)
	assert.Equal(t, 1, report.AlreadyDone)

	fx.opts.SkipExisting = false
	tr = &fakeTranscriber{}
	_, err = NewRunner(tr, confirm.Always(true), nil).Run(context.Background(), fx.opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa.mp3", "bbb.mp3"}, tr.calls)
}

func TestRun_Limit(t *testing.T) {
	fx := newFixture(t, []string{"aaa", "bbb", "ccc"}, []string{"aaa", "bbb", "ccc"})
	fx.opts.Limit = 2
	tr := &fakeTranscriber{}

	report, err := NewRunner(tr, confirm.Always(true), nil).Run(context.Background(), fx.opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"aaa.mp3", "bbb.mp3"}, tr.calls)
	assert.Equal(t, 2, report.Planned)
}

func TestRun_SkipsOversizedFiles(t *testing.T) {
	fx := newFixture(t, []string{"big", "small"}, []string{"big", "small"})
	require.NoError(t, os.Truncate(filepath.Join(fx.opts.MP3Dir, "big.mp3"), MaxUploadBytes+1))
	tr := &fakeTranscriber{}

	report, err := NewRunner(tr, confirm.Always(true), nil).Run(context.Background(), fx.opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"small.mp3"}, tr.calls)
	assert.Equal(t, []string{"big.mp3"}, report.TooLarge)
}

func TestRun_FailuresContinue(t *testing.T) {
	fx := newFixture(t, []string{"aaa", "bbb"}, []string{"aaa", "bbb"})
	tr := &fakeTranscriber{fail: map[string]bool{"aaa.mp3": true}}

	report, err := NewRunner(tr, confirm.Always(true), nil).Run(context.Background(), fx.opts)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Successful)
	assert.Equal(t, []string{"aaa.mp3"}, report.Failed)
	assert.NoFileExists(t, filepath.Join(fx.opts.OutputDir, "aaa.json"))
	assert.FileExists(t, filepath.Join(fx.opts.OutputDir, "bbb.json"))
}

func TestRun_Declined(t *testing.T) {
	fx := newFixture(t, []string{"aaa"}, []string{"aaa"})
	tr := &fakeTranscriber{}

	var asked string
	no := confirm.Func(func(_ context.Context, q string) (bool, error) {
		asked = q
		return false, nil
	})

	report, err := NewRunner(tr, no, nil).Run(context.Background(), fx.opts)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Empty(t, tr.calls)
	assert.Equal(t, 1, report.Planned)
	assert.Equal(t, "Transcribe 1 files (~10.0 minutes, ~$0.06)?", asked)
}

func TestRun_NothingToDoSkipsConfirm(t *testing.T) {
	fx := newFixture(t, []string{"aaa"}, nil)
	never := confirm.Func(func(context.Context, string) (bool, error) {
		t.Fatal("confirm should not be called")
		return false, nil
	})

	report, err := NewRunner(&fakeTranscriber{}, never, nil).Run(context.Background(), fx.opts)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Planned)
}

func TestRun_SetupErrors(t *testing.T) {
	fx := newFixture(t, []string{"aaa"}, []string{"aaa"})

	bad := fx.opts
	bad.CatalogPath = filepath.Join(t.TempDir(), "missing.json")
	_, err := NewRunner(&fakeTranscriber{}, confirm.Always(true), nil).Run(context.Background(), bad)
	assert.Error(t, err)

	bad = fx.opts
	bad.MP3Dir = filepath.Join(t.TempDir(), "nope")
	_, err = NewRunner(&fakeTranscriber{}, confirm.Always(true), nil).Run(context.Background(), bad)
	assert.ErrorIs(t, err, metadata.ErrDirNotFound)
}

func TestNewTranscript_Defaults(t *testing.T) {
	got := NewTranscript("x.mp3", metadata.Video{VideoID: "x"}, &Result{Text: "t"})
	assert.Equal(t, "Unknown", got.Title)
	assert.Equal(t, "Unknown", got.Speaker)
	assert.NotNil(t, got.TopicTags)
	assert.NotNil(t, got.Categories)
	assert.NotNil(t, got.Segments)
}
