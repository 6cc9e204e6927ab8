package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mike-a-ellis/mentor-index/internal/confirm"
	"github.com/mike-a-ellis/mentor-index/internal/metadata"
	"github.com/mike-a-ellis/mentor-index/internal/transcribe"
)

func newTranscribeCmd(a *app) *cobra.Command {
	var (
		opts   transcribe.Options
		noSkip bool
		yes    bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe",
		Short: "Transcribe MP3 files with OpenAI Whisper",
		Long: `Transcribes every MP3 that has a catalog entry and writes one
<video-id>.json transcript per file.

Files that already have a transcript are skipped unless --no-skip is given.
Files over the 25 MB Whisper upload limit are skipped. The estimated cost is
shown and confirmed before any upload (use --yes to skip the prompt).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			client, err := a.openAI()
			if err != nil {
				return err
			}

			var confirmer confirm.Confirmer = confirm.Prompt{}
			if yes {
				confirmer = confirm.Always(true)
			}
			opts.SkipExisting = !noSkip

			runner := transcribe.NewRunner(
				transcribe.NewWhisper(client.Client(), a.cfg.OpenAI.TranscriptionModel),
				confirmer,
				a.logger,
			)

			report, err := runner.Run(cmd.Context(), opts)
			if errors.Is(err, transcribe.ErrAborted) {
				fmt.Println("Aborted.")
				return nil
			}
			if err != nil {
				return fmt.Errorf("transcription failed: %w", err)
			}

			fmt.Println()
			fmt.Println("Transcription complete!")
			fmt.Printf("  MP3 files with metadata: %d\n", report.WithMetadata)
			fmt.Printf("  Already transcribed: %d\n", report.AlreadyDone)
			if len(report.TooLarge) > 0 {
				fmt.Printf("  Over 25 MB (skipped): %d\n", len(report.TooLarge))
			}
			if report.Planned > 0 {
				fmt.Printf("  Estimated: %.1f minutes, $%.2f\n", report.EstimatedMinutes, report.EstimatedCost)
			}
			fmt.Printf("  Successful: %d/%d\n", report.Successful, report.Planned)
			printFailed(report.Failed)
			fmt.Printf("  Duration: %s\n", time.Since(start).Round(time.Second))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.MP3Dir, "mp3-dir", "./mp3", "directory containing MP3 files")
	flags.StringVar(&opts.CatalogPath, "metadata", "./"+metadata.DefaultCatalogFile, "metadata catalog file")
	flags.StringVar(&opts.OutputDir, "output", "./content/transcripts", "output directory for transcripts")
	flags.IntVar(&opts.Limit, "limit", 0, "maximum number of files to transcribe (0 = all)")
	flags.BoolVar(&noSkip, "no-skip", false, "re-transcribe files that already have a transcript")
	flags.BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
