package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syncforge/syncengine/internal/health"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check liveness of every configured account",
		RunE:  runHealth,
	}
}

func runHealth(cmd *cobra.Command, _ []string) error {
	e := engineFrom(cmd.Context())

	rep := e.HealthChecker().Check(cmd.Context())

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(rep)
	}

	for _, a := range rep.Accounts {
		if a.Err != nil {
			fmt.Printf("%-20s %-12s %v\n", a.AccountID, a.State, a.Err)
		} else {
			fmt.Printf("%-20s %-12s\n", a.AccountID, a.State)
		}
	}

	fmt.Printf("\noverall: %s\n", rep.Overall)

	if rep.Overall != health.StateHealthy {
		os.Exit(1)
	}

	return nil
}
