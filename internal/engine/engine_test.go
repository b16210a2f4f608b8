package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncforge/syncengine/internal/config"
	"github.com/syncforge/syncengine/internal/diffengine"
	"github.com/syncforge/syncengine/internal/health"
	"github.com/syncforge/syncengine/internal/provider"
	"github.com/syncforge/syncengine/internal/providertest"
	"github.com/syncforge/syncengine/internal/report"
	"github.com/syncforge/syncengine/internal/resume"
	"github.com/syncforge/syncengine/internal/verify"
)

// memoryProviders backs a test Engine's ProviderFactory, keyed by account id
// so the source and target sides of a task each get their own fake backend.
func memoryProviders(byAccount map[string]*providertest.MemoryProvider) ProviderFactory {
	return func(ctx context.Context, acct config.Account) (provider.StorageProvider, error) {
		return byAccount[acct.ID], nil
	}
}

func newTestEngine(t *testing.T, cfg *config.Config, factory ProviderFactory) *Engine {
	t.Helper()

	store, err := resume.NewSQLiteStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	e, err := New(Config{
		Config:    cfg,
		Providers: factory,
		Store:     store,
		Persister: report.NewPersister(store.DB()),
	})
	require.NoError(t, err)

	return e
}

func oneTaskConfig() (*config.Config, *providertest.MemoryProvider, *providertest.MemoryProvider) {
	src := providertest.NewMemoryProvider("src")
	dst := providertest.NewMemoryProvider("dst")

	cfg := &config.Config{
		Accounts: []config.Account{
			{ID: "source", Kind: config.BackendWebDAV},
			{ID: "target", Kind: config.BackendWebDAV},
		},
		Tasks: []config.Task{
			{
				ID:              "task1",
				SourceAccountID: "source",
				SourcePath:      "",
				TargetAccountID: "target",
				TargetPath:      "",
				Policy:          config.SyncPolicy{DeleteOrphans: true, OverwriteExisting: true},
			},
		},
	}

	return cfg, src, dst
}

func TestEngine_CalculateDiffForDryRun_PlansUploads(t *testing.T) {
	cfg, src, dst := oneTaskConfig()
	src.PutFile("a.txt", []byte("hello"), time.Now(), "")

	e := newTestEngine(t, cfg, memoryProviders(map[string]*providertest.MemoryProvider{"source": src, "target": dst}))

	result, err := e.CalculateDiffForDryRun(context.Background(), "task1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.CountByAction[diffengine.ActionUpload])
}

func TestEngine_Sync_UploadsNewFile(t *testing.T) {
	cfg, src, dst := oneTaskConfig()
	src.PutFile("a.txt", []byte("hello world"), time.Now(), "")

	e := newTestEngine(t, cfg, memoryProviders(map[string]*providertest.MemoryProvider{"source": src, "target": dst}))

	rep, err := e.Sync(context.Background(), "task1")
	require.NoError(t, err)
	assert.Equal(t, report.TaskSuccess, rep.Status)
	assert.Equal(t, 1, rep.FilesSynced)

	rc, err := dst.Download(context.Background(), "a.txt")
	require.NoError(t, err)
	defer rc.Close()
}

func TestEngine_SyncWithProgress_InvokesCallbackPerFile(t *testing.T) {
	cfg, src, dst := oneTaskConfig()
	src.PutFile("a.txt", []byte("x"), time.Now(), "")
	src.PutFile("b.txt", []byte("y"), time.Now(), "")

	e := newTestEngine(t, cfg, memoryProviders(map[string]*providertest.MemoryProvider{"source": src, "target": dst}))

	var seen []string

	rep, err := e.SyncWithProgress(context.Background(), "task1", func(r report.FileSyncResult) {
		seen = append(seen, r.Path)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.FilesSynced)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, seen)
}

func TestEngine_VerifyIntegrity_DetectsMismatch(t *testing.T) {
	cfg, src, dst := oneTaskConfig()
	src.PutFile("a.txt", []byte("hello world"), time.Now(), "")
	dst.PutFile("a.txt", []byte("stale"), time.Now(), "")

	e := newTestEngine(t, cfg, memoryProviders(map[string]*providertest.MemoryProvider{"source": src, "target": dst}))

	res, err := e.VerifyIntegrity(context.Background(), "task1", true, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, verify.StatusSizeMismatch, res.Mismatches[0].Status)
}

func TestEngine_RepairIntegrity_FixesMismatch(t *testing.T) {
	cfg, src, dst := oneTaskConfig()
	src.PutFile("a.txt", []byte("hello world"), time.Now(), "")
	dst.PutFile("a.txt", []byte("stale"), time.Now(), "")

	e := newTestEngine(t, cfg, memoryProviders(map[string]*providertest.MemoryProvider{"source": src, "target": dst}))

	res, err := e.VerifyIntegrity(context.Background(), "task1", true, nil)
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)

	repairRes, err := e.RepairIntegrity(context.Background(), "task1", res)
	require.NoError(t, err)
	assert.Equal(t, 1, repairRes.Attempted)

	rc, err := dst.Download(context.Background(), "a.txt")
	require.NoError(t, err)
	defer rc.Close()
}

func TestEngine_HealthChecker_ReportsPerAccount(t *testing.T) {
	cfg, src, dst := oneTaskConfig()

	e := newTestEngine(t, cfg, memoryProviders(map[string]*providertest.MemoryProvider{"source": src, "target": dst}))

	report := e.HealthChecker().Check(context.Background())
	require.Len(t, report.Accounts, 2)
	assert.Equal(t, health.StateHealthy, report.Overall)
}
