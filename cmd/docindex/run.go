package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var errNothingIndexed = errors.New("documents failed and nothing was indexed")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Index every pending PDF in the blob container once",
	Long: `Run lists the PDFs in the blob container whose state is absent or pending,
extracts, chunks, embeds and indexes each one in turn, and prints a JSON
summary. Documents that fail are logged and skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newServices(true)
		if err != nil {
			return err
		}
		defer svc.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sum, err := svc.worker.RunPending(ctx)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(sum); encErr != nil {
			return encErr
		}
		if err != nil {
			return err
		}
		if sum.Failed > 0 && sum.ChunksIndexed == 0 {
			return errNothingIndexed
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
