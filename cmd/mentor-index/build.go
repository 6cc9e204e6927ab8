package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mike-a-ellis/mentor-index/internal/chunker"
	"github.com/mike-a-ellis/mentor-index/internal/embedding"
	"github.com/mike-a-ellis/mentor-index/internal/indexer"
)

func newBuildIndexCmd(a *app) *cobra.Command {
	var src indexer.Sources

	cmd := &cobra.Command{
		Use:   "build-index",
		Short: "Chunk, embed and upload all content to the vector index",
		Long: `Loads transcripts, ASU resource markdown and framework markdown, splits
them into overlapping word windows, embeds every chunk and upserts the
vectors. The index is created (1536 dimensions, cosine) if it does not
exist. Re-running replaces chunks with the same ID.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start := time.Now()

			embedder, err := a.embedder()
			if err != nil {
				return err
			}

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			var counter embedding.TokenCounter = embedding.WordCounter{}
			if tk, err := embedding.NewTiktoken(a.cfg.OpenAI.EmbeddingModel); err != nil {
				a.logger.Warn("Token counter unavailable, estimating by words", "error", err)
			} else {
				counter = tk
			}

			pipeline := indexer.NewPipeline(embedder, store, indexer.Options{
				Chunking:  a.cfg.Chunker(),
				Dimension: embedding.Dimension,
				Counter:   counter,
			}, a.logger)

			fmt.Println("Building index...")
			result, err := pipeline.Build(ctx, src)
			if err != nil {
				return fmt.Errorf("indexing failed: %w", err)
			}

			fmt.Println()
			if result.Documents == 0 {
				fmt.Println("No documents to index!")
				return nil
			}

			fmt.Println("Index complete!")
			fmt.Printf("  Documents: %d\n", result.Documents)
			fmt.Printf("  Chunks: %d\n", result.Chunks)
			fmt.Printf("  Tokens: ~%d ($%.4f)\n", result.Estimate.Tokens, result.Estimate.CostUSD)
			if result.IndexCreated {
				fmt.Printf("  Created index: %s\n", a.cfg.Store.IndexName)
			}
			fmt.Printf("  Index stats: %s\n", result.Stats)
			fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

			if len(result.Failures) > 0 {
				fmt.Println()
				fmt.Println("Failed files:")
				for _, f := range result.Failures {
					fmt.Printf("  - %s: %s\n", f.Path, f.Reason)
				}
			}

			fmt.Println()
			fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&src.Transcripts, "transcripts", "./content/transcripts", "directory with transcript JSONs")
	flags.StringVar(&src.Resources, "resources", "./content/asu_resources", "directory with ASU resource markdown files")
	flags.StringVar(&src.Frameworks, "frameworks", "./content/frameworks", "directory with framework markdown files")
	flags.Int("chunk-size", chunker.DefaultSize, "words per chunk (env CHUNK_SIZE)")
	flags.Int("overlap", chunker.DefaultOverlap, "words shared between consecutive chunks (env CHUNK_OVERLAP)")
	return cmd
}
