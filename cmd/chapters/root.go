package main

import (
	"github.com/spf13/cobra"
)

// flags shared by the subcommands.
type rootFlags struct {
	lameBinary string
	workers    int
	verbose    bool
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "chapters",
		Short:         "Turn cue-marked WAV recordings into chaptered MP3s",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.lameBinary, "lame", "", "Path to the lame binary (default: lame on PATH)")
	rootCmd.PersistentFlags().IntVar(&flags.workers, "workers", 0, "Encoder worker count (default: one per CPU)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log operation progress")

	rootCmd.AddCommand(newImportCommand(flags))
	rootCmd.AddCommand(newShowCommand(flags))
	rootCmd.AddCommand(newDumpCommand())

	return rootCmd
}
