package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mike-a-ellis/mentor-index/internal/content"
	"github.com/mike-a-ellis/mentor-index/internal/embedding"
)

const verboseBody = `{
  "task": "transcribe",
  "language": "english",
  "duration": 12.5,
  "text": "Hello and welcome.",
  "segments": [
    {"id": 0, "start": 0.0, "end": 4.2, "text": " Hello"},
    {"id": 1, "start": 4.2, "end": 12.5, "text": " and welcome."}
  ]
}`

func TestParseVerbose(t *testing.T) {
	got, err := parseVerbose("ignored", verboseBody)
	require.NoError(t, err)

	assert.Equal(t, "Hello and welcome.", got.Text)
	assert.Equal(t, 12.5, got.Duration)
	assert.Equal(t, []content.Segment{
		{Start: 0, End: 4.2, Text: " Hello"},
		{Start: 4.2, End: 12.5, Text: " and welcome."},
	}, got.Segments)
}

func TestParseVerbose_EmptyRaw(t *testing.T) {
	got, err := parseVerbose("plain", "")
	require.NoError(t, err)
	assert.Equal(t, "plain", got.Text)
	assert.Empty(t, got.Segments)
}

func TestParseVerbose_InvalidJSON(t *testing.T) {
	_, err := parseVerbose("", "{not json")
	assert.Error(t, err)
}

func TestWhisper_Transcribe(t *testing.T) {
	var gotModel, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(verboseBody))
	}))
	defer srv.Close()

	client, err := embedding.NewClient(embedding.ClientConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	audio := filepath.Join(t.TempDir(), "abc.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("ID3"), 0o644))

	got, err := NewWhisper(client.Client(), "").Transcribe(context.Background(), audio)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, gotModel)
	assert.Equal(t, "verbose_json", gotFormat)
	assert.Equal(t, "Hello and welcome.", got.Text)
	assert.Equal(t, 12.5, got.Duration)
	assert.Len(t, got.Segments, 2)
}

func TestWhisper_MissingFile(t *testing.T) {
	w := newWhisper(nil, "")
	_, err := w.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	assert.Error(t, err)
}
