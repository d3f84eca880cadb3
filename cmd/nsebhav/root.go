package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Running without a subcommand serves.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "nsebhav",
		Short: "NSE bhavcopy ingestion and query API",
		Long: `nsebhav downloads the NSE daily bhavcopy, keeps the EQ series rows in
SurrealDB and serves them over HTTP.

Commands:
    serve       - backfill in the background and serve the API (default)
    backfill    - run one backfill pass and exit
    ingest      - ingest a single trade date and exit
    version     - print version information
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: NSEBHAV_CONFIG, then nsebhav.toml)")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newBackfillCmd(&configPath))
	rootCmd.AddCommand(newIngestCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
