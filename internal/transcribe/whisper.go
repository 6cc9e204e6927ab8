// Package transcribe converts MP3 recordings into transcript JSON files using
// the OpenAI Whisper API.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mike-a-ellis/mentor-index/internal/content"
)

// DefaultModel is the Whisper model used for transcription.
const DefaultModel = "whisper-1"

// Result is the output of transcribing one audio file.
type Result struct {
	Text     string
	Segments []content.Segment
	Duration float64 // seconds
}

// Transcriber turns an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcriptionsAPI is the part of the OpenAI client Whisper calls.
type transcriptionsAPI interface {
	New(ctx context.Context, body openai.AudioTranscriptionNewParams, opts ...option.RequestOption) (*openai.Transcription, error)
}

// Whisper transcribes through the hosted Whisper API with segment timestamps.
type Whisper struct {
	api   transcriptionsAPI
	model string
}

// NewWhisper creates a Whisper transcriber. An empty model means DefaultModel.
func NewWhisper(client *openai.Client, model string) *Whisper {
	return newWhisper(&client.Audio.Transcriptions, model)
}

func newWhisper(api transcriptionsAPI, model string) *Whisper {
	if model == "" {
		model = DefaultModel
	}
	return &Whisper{api: api, model: model}
}

// verboseTranscription is the verbose_json response body. The typed SDK
// response only exposes text, so duration and segments are read from the
// raw JSON.
type verboseTranscription struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe uploads audioPath and returns text, segments and duration.
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	resp, err := w.api.New(ctx, openai.AudioTranscriptionNewParams{
		File:                   f,
		Model:                  openai.AudioModel(w.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	})
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", audioPath, err)
	}

	return parseVerbose(resp.Text, resp.RawJSON())
}

func parseVerbose(text, raw string) (*Result, error) {
	result := &Result{Text: text, Segments: []content.Segment{}}
	if raw == "" {
		return result, nil
	}

	var v verboseTranscription
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parse transcription response: %w", err)
	}
	if v.Text != "" {
		result.Text = v.Text
	}
	result.Duration = v.Duration
	for _, s := range v.Segments {
		result.Segments = append(result.Segments, content.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	return result, nil
}
