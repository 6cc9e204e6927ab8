// Package content defines the documents fed into the index and the JSON
// files exchanged between pipeline stages.
package content

// Source types stored in document metadata.
const (
	SourceTranscript  = "transcript"
	SourceASUResource = "asu_resource"
	SourceFramework   = "framework"
)

// Document is a unit of text to be chunked and embedded.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any // strings, numbers, or slices of them
}

// Segment is a timestamped piece of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the per-video JSON file written by the transcribe stage.
type Transcript struct {
	SourceFile      string    `json:"source_file"`
	VideoID         string    `json:"video_id"`
	Title           string    `json:"title"`
	Speaker         string    `json:"speaker"`
	SourceURL       string    `json:"source_url"`
	TopicTags       []string  `json:"topic_tags"`
	Categories      []string  `json:"categories"`
	TranscriptText  string    `json:"transcript_text"`
	Segments        []Segment `json:"segments"`
	DurationSeconds float64   `json:"duration_seconds"`
}
