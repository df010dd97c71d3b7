package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)
	opts := &downloadOptions{}

	rootCmd := &cobra.Command{
		Use:   "mp4get [links...]",
		Short: "Batch video downloader producing playable MP4 files",
		Long: "mp4get takes one or more video links, resolves browser or file cookies,\n" +
			"selects the best available representation per link, and downloads them\n" +
			"concurrently into a single output directory.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, ctx, opts, args)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().StringVarP(&opts.linksFile, "links-file", "f", "", "Read links from a file (one or more per line)")
	rootCmd.Flags().BoolVarP(&opts.noConfirm, "no-confirm", "y", false, "Skip the queue confirmation prompt")
	rootCmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Override the output directory")
	rootCmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "Override the number of concurrent downloads")

	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
