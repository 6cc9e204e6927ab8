// Package mcp serves the mentor knowledge base over the Model Context Protocol.
package mcp

import "github.com/mike-a-ellis/mentor-index/internal/search"

// SearchContentInput defines the input parameters for the search_content tool.
type SearchContentInput struct {
	// Query is the question or topic to search for.
	Query string `json:"query" jsonschema:"the question or topic to search the mentor knowledge base for"`
	// TopK is the maximum number of chunks to return.
	TopK int `json:"top_k,omitempty" jsonschema:"maximum number of chunks to return (1-20, default 5)"`
}

// SearchContentOutput contains the retrieved chunks.
type SearchContentOutput struct {
	// Context is the prompt-ready rendering of the matches.
	Context string `json:"context"`
	// Sources lists a citation per match, in rank order.
	Sources []search.Source `json:"sources"`
	// Scores holds the similarity score of each source.
	Scores []float64 `json:"scores"`
}

// StatusInput defines the input parameters for the get_index_status tool.
type StatusInput struct{}

// StatusOutput reports index availability.
type StatusOutput struct {
	Available   bool   `json:"available"`
	VectorCount uint64 `json:"vector_count"`
	Error       string `json:"error,omitempty"`
}
