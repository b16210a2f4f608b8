package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <task-id>",
		Short: "Compute a sync plan without executing it",
		Args:  cobra.ExactArgs(1),
		RunE:  runDiff,
	}
}

func runDiff(cmd *cobra.Command, args []string) error {
	e := engineFrom(cmd.Context())

	result, err := e.CalculateDiffForDryRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(result)
	}

	for _, d := range result.Diffs {
		fmt.Printf("%-10s %s\n", d.Type, d.Path)
	}

	fmt.Printf("\n%d actions planned, %d bytes to transfer\n", len(result.Diffs), result.TotalTransferSize)

	return nil
}
