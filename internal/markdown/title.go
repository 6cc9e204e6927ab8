// Package markdown extracts document titles from markdown sources.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleExtractor finds the human-readable title of a markdown document.
type TitleExtractor struct {
	parser goldmark.Markdown
}

// NewTitleExtractor creates a title extractor configured with goldmark parser.
func NewTitleExtractor() *TitleExtractor {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &TitleExtractor{parser: md}
}

// Title returns the text of the first level-1 heading in source.
// If the document has none, the title is derived from fallbackName
// (usually the file stem): underscores become spaces and words are title-cased.
func (e *TitleExtractor) Title(source []byte, fallbackName string) string {
	doc := e.parser.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(1), // H1 only
		toc.Compact(true),
	)
	if err == nil {
		for _, item := range tree.Items {
			if title := strings.TrimSpace(string(item.Title)); title != "" {
				return title
			}
		}
	}

	return FallbackTitle(fallbackName)
}

// FallbackTitle turns a file stem like "pitch_deck_guide" into "Pitch Deck Guide".
func FallbackTitle(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}
