package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/podsmith/chapters"
)

func newShowCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <episode.mp3>",
		Short: "Print the chapter metadata of an MP3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			lib := chapters.New(newSlogListener(newLogger(flags)))

			result, err := lib.OpenMP3(cmd.Context(), path).Wait()
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			meta := result.Meta
			if meta.PodcastTitle != nil {
				fmt.Fprintf(out, "Podcast: %s\n", *meta.PodcastTitle)
			}
			if meta.EpisodeTitle != nil {
				fmt.Fprintf(out, "Episode: %s\n", *meta.EpisodeTitle)
			}
			if meta.EpisodeNumber != nil {
				fmt.Fprintf(out, "Number:  %d\n", *meta.EpisodeNumber)
			}
			if result.Duration > 0 {
				fmt.Fprintf(out, "Length:  %s\n", result.Duration.Round(time.Second))
			}

			if len(meta.Chapters) == 0 {
				fmt.Fprintln(out, "No chapters.")
				return nil
			}
			fmt.Fprintln(out, renderChapterTable(meta.Chapters))
			return nil
		},
	}

	return cmd
}
