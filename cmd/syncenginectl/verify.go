package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syncforge/syncengine/internal/executor"
	"github.com/syncforge/syncengine/internal/verify"
)

func newVerifyCmd() *cobra.Command {
	var repair bool

	cmd := &cobra.Command{
		Use:   "verify <task-id>",
		Short: "Re-check a task's synced files against the target",
		Long: `Re-checks every path a task last synced against the target backend,
reporting size/checksum mismatches and missing files.

Exit code 0 if everything verifies; exit code 1 if any mismatches are found
and --repair was not passed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args[0], repair)
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "re-upload every mismatched file")

	return cmd
}

func runVerify(cmd *cobra.Command, taskID string, repair bool) error {
	e := engineFrom(cmd.Context())

	res, err := e.VerifyIntegrity(cmd.Context(), taskID, true, nil)
	if err != nil {
		return err
	}

	if repair && len(res.Mismatches) > 0 {
		repairRes, err := e.RepairIntegrity(cmd.Context(), taskID, res)
		if err != nil {
			return err
		}

		printVerifyResult(res, repair)
		fmt.Printf("repaired %d of %d mismatched files\n", succeeded(repairRes.Outcomes), repairRes.Attempted)

		return nil
	}

	printVerifyResult(res, repair)

	if len(res.Mismatches) > 0 {
		os.Exit(1)
	}

	return nil
}

func succeeded(outcomes []executor.Outcome) int {
	n := 0

	for _, o := range outcomes {
		if o.Status == executor.OutcomeSuccess {
			n++
		}
	}

	return n
}

func printVerifyResult(res verify.Result, repair bool) {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)

		return
	}

	for _, m := range res.Mismatches {
		fmt.Printf("%-14s %s\n", m.Status, m.Path)
	}

	fmt.Printf("\n%d checked, %d failed\n", res.Total, res.Failed)
}
