package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "infohub",
	Short: "Change-aware downloader for categorized report files",
	Long: `infohub materializes remote report files into a categorized local store,
downloading only the ones whose content changed since the last run.

Each file's SHA-256 fingerprint is kept in a persistent index; unchanged
files are skipped, transient fetch failures are retried with exponential
backoff, and files are committed atomically so a crash never leaves a
partial file behind.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .infohub.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}
