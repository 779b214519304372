package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/podsmith/chapters"
)

func newImportCommand(flags *rootFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "import <recording.wav>",
		Short: "Encode a WAV recording to a chaptered MP3",
		Long: `Reads chapter markers from the WAV's cue points, guesses the episode
number and title from the file name, encodes the audio with lame (one
worker per CPU), and writes a tagged MP3.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			lib := chapters.New(newSlogListener(newLogger(flags)), libraryOptions(flags)...)

			result, err := lib.ImportFromWAV(cmd.Context(), source).Wait()
			if err != nil {
				return fmt.Errorf("import %s: %w", source, err)
			}
			meta := result.Meta

			var task *chapters.Task
			if output != "" {
				task = lib.SaveAs(cmd.Context(), meta, source, chapters.FileTypeWAV, output)
			} else {
				task = lib.Save(cmd.Context(), meta, source, chapters.FileTypeWAV)
			}
			written, err := task.Wait()
			if err != nil {
				return fmt.Errorf("write %s: %w", source, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chapters, %s\n",
				written.OutputPath, len(meta.Chapters), describeEpisode(meta))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path (default: source name with .mp3)")

	return cmd
}

func libraryOptions(flags *rootFlags) []chapters.Option {
	var opts []chapters.Option
	if flags.lameBinary != "" {
		opts = append(opts, chapters.WithEncoderBinary(flags.lameBinary))
	}
	if flags.workers > 0 {
		opts = append(opts, chapters.WithEncoderWorkers(flags.workers))
	}
	return opts
}

func newLogger(flags *rootFlags) *slog.Logger {
	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func describeEpisode(meta chapters.MetaData) string {
	var parts []string
	if meta.EpisodeNumber != nil {
		parts = append(parts, fmt.Sprintf("episode %d", *meta.EpisodeNumber))
	}
	if meta.EpisodeTitle != nil && *meta.EpisodeTitle != "" {
		parts = append(parts, fmt.Sprintf("%q", *meta.EpisodeTitle))
	}
	if len(parts) == 0 {
		return "untitled episode"
	}
	return strings.Join(parts, " ")
}
