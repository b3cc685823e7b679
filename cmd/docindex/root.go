package main

import (
	"log/slog"

	"github.com/dgallion1/docindex/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Chunk documents into header sections and index them for search",
	Long: `docindex extracts markdown from PDFs and office documents, splits it into
header-delimited chunks, embeds each chunk and writes it to a search index.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		// Logs go to stderr so command output on stdout stays parseable.
		logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
	},
}
