package mcp

import (
	"context"
	"fmt"

	"github.com/mike-a-ellis/mentor-index/internal/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const maxTopK = 20

// makeSearchHandler creates the search_content tool handler.
func makeSearchHandler(searcher *search.Searcher) func(
	context.Context, *mcp.CallToolRequest, SearchContentInput,
) (*mcp.CallToolResult, SearchContentOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchContentInput) (
		*mcp.CallToolResult, SearchContentOutput, error,
	) {
		topK := input.TopK
		if topK <= 0 {
			topK = search.DefaultTopK
		}
		topK = min(topK, maxTopK)

		results, err := searcher.Query(ctx, input.Query, topK)
		if err != nil {
			return nil, SearchContentOutput{}, fmt.Errorf("search failed: %w", err)
		}

		scores := make([]float64, len(results))
		for i, r := range results {
			scores[i] = r.Score
		}

		return nil, SearchContentOutput{
			Context: search.FormatContext(results),
			Sources: search.FormatSources(results),
			Scores:  scores,
		}, nil
	}
}

// makeStatusHandler creates the get_index_status tool handler.
// An unavailable index is reported in the output, not as a tool error.
func makeStatusHandler(searcher *search.Searcher) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		h := searcher.Health(ctx)
		return nil, StatusOutput{
			Available:   h.Available,
			VectorCount: h.VectorCount,
			Error:       h.Err,
		}, nil
	}
}
