package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mike-a-ellis/mentor-index/internal/search"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vector index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(ctx)
			if err != nil {
				return fmt.Errorf("index stats: %w", err)
			}

			fmt.Printf("  Index: %s\n", stats.Name)
			fmt.Printf("  Vectors: %d\n", stats.VectorCount)
			if stats.Dimension > 0 {
				fmt.Printf("  Dimension: %d\n", stats.Dimension)
			}
			fmt.Printf("  Metric: %s\n", stats.Metric)
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		topK        int
		showContext bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the index and print the closest chunks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			embedder, err := a.embedder()
			if err != nil {
				return err
			}
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			searcher := search.NewSearcher(embedder, store)
			results, err := searcher.Query(ctx, strings.Join(args, " "), topK)
			if err != nil {
				return err
			}

			fmt.Println()
			if showContext {
				fmt.Println(search.FormatContext(results))
				return nil
			}

			if len(results) == 0 {
				fmt.Println(search.NoResultsMessage)
				return nil
			}
			for i, src := range search.FormatSources(results) {
				fmt.Printf("%d. [%s] %s (score %.3f)\n", i+1, src.Type, src.Title, results[i].Score)
				if src.Speaker != "" {
					fmt.Printf("   Speaker: %s\n", src.Speaker)
				}
				if src.URL != "" {
					fmt.Printf("   URL: %s\n", src.URL)
				}
				fmt.Printf("   %s\n\n", src.Snippet)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "k", search.DefaultTopK, "number of results")
	cmd.Flags().BoolVar(&showContext, "context", false, "print the prompt context instead of a result list")
	return cmd
}
