package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file at path, validates it, and
// returns the resulting Config. Generalized from the teacher's two-pass
// Load (internal/config/load.go) down to a single decode pass: accounts and
// tasks are flat top-level tables, with no per-drive section splitting.
func Load(path string, logger *slog.Logger) (*Config, error) {
	if logger != nil {
		logger.Debug("config: loading file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	if logger != nil {
		logger.Debug("config: loaded", "path", path, "accounts", len(cfg.Accounts), "tasks", len(cfg.Tasks))
	}

	return cfg, nil
}

// Validate checks that every task references an existing account pair and
// that no account or task id is duplicated.
func Validate(cfg *Config) error {
	seenAccounts := make(map[string]bool, len(cfg.Accounts))

	for _, acct := range cfg.Accounts {
		if acct.ID == "" {
			return fmt.Errorf("account with empty id")
		}

		if seenAccounts[acct.ID] {
			return fmt.Errorf("duplicate account id %q", acct.ID)
		}

		seenAccounts[acct.ID] = true
	}

	seenTasks := make(map[string]bool, len(cfg.Tasks))

	for _, task := range cfg.Tasks {
		if task.ID == "" {
			return fmt.Errorf("task with empty id")
		}

		if seenTasks[task.ID] {
			return fmt.Errorf("duplicate task id %q", task.ID)
		}

		seenTasks[task.ID] = true

		if !seenAccounts[task.SourceAccountID] {
			return fmt.Errorf("task %q: unknown source_account_id %q", task.ID, task.SourceAccountID)
		}

		if !seenAccounts[task.TargetAccountID] {
			return fmt.Errorf("task %q: unknown target_account_id %q", task.ID, task.TargetAccountID)
		}
	}

	return nil
}
