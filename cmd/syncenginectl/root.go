package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syncforge/syncengine/internal/config"
	"github.com/syncforge/syncengine/internal/cryptostage"
	"github.com/syncforge/syncengine/internal/engine"
	"github.com/syncforge/syncengine/internal/report"
	"github.com/syncforge/syncengine/internal/resume"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagStatePath  string
	flagJSON       bool
	flagVerbose    bool
)

// cliContextKey is the context key for the resolved Engine.
type cliContextKey struct{}

// engineFrom extracts the Engine built in PersistentPreRunE from ctx.
func engineFrom(ctx context.Context) *engine.Engine {
	e, _ := ctx.Value(cliContextKey{}).(*engine.Engine)
	return e
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "syncenginectl",
		Short:   "Sync engine control CLI",
		Long:    "Drives one-directional file tree synchronization between storage accounts.",
		Version: version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipEngine"] == "true" {
				return nil
			}

			return loadEngine(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "syncengine.toml", "config file path")
	cmd.PersistentFlags().StringVar(&flagStatePath, "state", "syncengine.db", "resume/report state database path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "show detailed output")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newHealthCmd())
	cmd.AddCommand(newRunCmd())

	return cmd
}

// loadEngine resolves the config file, opens the resume store, and builds an
// Engine stored in the command's context for use by subcommands.
func loadEngine(cmd *cobra.Command) error {
	logger := buildLogger()

	cfg, err := config.Load(flagConfigPath, logger)
	if err != nil {
		return err
	}

	store, err := resume.NewSQLiteStore(flagStatePath, logger)
	if err != nil {
		return fmt.Errorf("opening state database: %w", err)
	}

	keys := loadKeysFromEnv()

	e, err := engine.New(engine.Config{
		Config:    cfg,
		Store:     store,
		Persister: report.NewPersister(store.DB()),
		Keys:      keys,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, e))

	return nil
}

// loadKeysFromEnv populates a KeyStore from SYNCENGINE_KEY_<id> environment
// variables, each holding hex-encoded key material for the named key_id.
func loadKeysFromEnv() *cryptostage.KeyStore {
	keys := cryptostage.NewKeyStore()

	const prefix = "SYNCENGINE_KEY_"

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}

		keyID := strings.TrimPrefix(name, prefix)

		raw, err := hex.DecodeString(value)
		if err != nil {
			continue
		}

		keys.Put(keyID, raw)
	}

	return keys
}

// buildLogger creates an slog.Logger honoring --verbose.
func buildLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
