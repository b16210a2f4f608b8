package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncforge/syncengine/internal/config"
	"github.com/syncforge/syncengine/internal/provider"
	"github.com/syncforge/syncengine/internal/providertest"
)

func TestChecker_Check_AllHealthy(t *testing.T) {
	cfg := &config.Config{Accounts: []config.Account{{ID: "a"}, {ID: "b"}}}

	factory := func(ctx context.Context, acct config.Account) (provider.StorageProvider, error) {
		return providertest.NewMemoryProvider(acct.ID), nil
	}

	report := New(cfg, factory).Check(context.Background())

	require.Len(t, report.Accounts, 2)
	assert.Equal(t, StateHealthy, report.Overall)

	for _, a := range report.Accounts {
		assert.Equal(t, StateHealthy, a.State)
		assert.NoError(t, a.Err)
	}
}

func TestChecker_Check_OneUnavailableDegradesOverall(t *testing.T) {
	cfg := &config.Config{Accounts: []config.Account{{ID: "a"}, {ID: "b"}}}

	failing := providertest.NewMemoryProvider("b")
	failing.FailOp["verify"] = errors.New("backend down")

	factory := func(ctx context.Context, acct config.Account) (provider.StorageProvider, error) {
		if acct.ID == "b" {
			return failing, nil
		}

		return providertest.NewMemoryProvider(acct.ID), nil
	}

	report := New(cfg, factory).Check(context.Background())

	require.Len(t, report.Accounts, 2)
	assert.Equal(t, StateUnavailable, report.Overall)
}

func TestChecker_Check_ProviderConstructionFailureCountsUnavailable(t *testing.T) {
	cfg := &config.Config{Accounts: []config.Account{{ID: "a"}}}

	factory := func(ctx context.Context, acct config.Account) (provider.StorageProvider, error) {
		return nil, errors.New("no credentials")
	}

	report := New(cfg, factory).Check(context.Background())

	require.Len(t, report.Accounts, 1)
	assert.Equal(t, StateUnavailable, report.Accounts[0].State)
	assert.Error(t, report.Accounts[0].Err)
}
