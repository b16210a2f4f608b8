package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syncforge/syncengine/internal/report"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <task-id>",
		Short: "Run a sync task to completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runSync,
	}

	return cmd
}

func runSync(cmd *cobra.Command, args []string) error {
	e := engineFrom(cmd.Context())
	taskID := args[0]

	rep, err := e.SyncWithProgress(cmd.Context(), taskID, func(r report.FileSyncResult) {
		if !flagJSON {
			fmt.Fprintf(os.Stdout, "%s %s (%d bytes)\n", r.Operation, r.Path, r.Bytes)
		}
	})
	if err != nil && rep.Status == "" {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if encErr := enc.Encode(rep); encErr != nil {
			return encErr
		}
	} else {
		fmt.Printf("status=%s files=%d bytes=%d errors=%d\n", rep.Status, rep.FilesSynced, rep.TransferredBytes, len(rep.Errors))
	}

	if err != nil {
		return err
	}

	return nil
}
