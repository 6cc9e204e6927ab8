package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mike-a-ellis/mentor-index/internal/metadata"
)

const maxFailedShown = 10

func newFetchMetadataCmd(a *app) *cobra.Command {
	var mp3Dir, output string

	cmd := &cobra.Command{
		Use:   "fetch-metadata",
		Short: "Fetch YouTube metadata for every MP3 into a catalog",
		Long: `Looks up each <video-id>.mp3 with yt-dlp and writes the aggregate
metadata catalog used by the transcribe command.

Requires yt-dlp on PATH (or YTDLP_PATH). Each lookup is bounded by
YTDLP_TIMEOUT (default 30s). Failed lookups are listed and skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			fetcher := metadata.NewYTDLP(a.cfg.Metadata.YTDLPPath, a.cfg.Metadata.Timeout)
			collector := metadata.NewCollector(fetcher, a.logger)

			fmt.Printf("Fetching metadata for MP3 files in %s...\n", mp3Dir)
			catalog, err := collector.Collect(cmd.Context(), mp3Dir)
			if err != nil {
				return fmt.Errorf("fetch metadata: %w", err)
			}

			if err := catalog.Save(output); err != nil {
				return fmt.Errorf("save catalog: %w", err)
			}

			fmt.Println()
			fmt.Println("Metadata complete!")
			fmt.Printf("  Files: %d\n", catalog.TotalFiles)
			fmt.Printf("  Successful: %d\n", catalog.Successful)
			fmt.Printf("  Failed: %d\n", catalog.Failed)
			printFailed(catalog.FailedIDs)
			fmt.Printf("  Saved to: %s\n", output)
			fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))
			return nil
		},
	}

	cmd.Flags().StringVar(&mp3Dir, "mp3-dir", "./mp3", "directory containing <video-id>.mp3 files")
	cmd.Flags().StringVar(&output, "output", metadata.DefaultCatalogFile, "catalog file to write")
	return cmd
}

// printFailed lists up to maxFailedShown IDs.
func printFailed(ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("Failed:")
	for i, id := range ids {
		if i == maxFailedShown {
			fmt.Printf("  ... and %d more\n", len(ids)-maxFailedShown)
			break
		}
		fmt.Printf("  - %s\n", id)
	}
}
