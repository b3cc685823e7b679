package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docindex/internal/remote"
	"github.com/spf13/cobra"
)

var clearIndexCmd = &cobra.Command{
	Use:   "clear-index",
	Short: "Delete and recreate the search index with its current schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateSearch(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		client := newIndexClient(remote.NewRegistry(time.Hour))
		defer client.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := client.Recreate(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "index %s recreated\n", client.IndexName())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearIndexCmd)
}
