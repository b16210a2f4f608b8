package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAll(t *testing.T, a *Aggregator, results []FileSyncResult) SyncReport {
	t.Helper()

	go a.Run()

	for _, r := range results {
		require.NoError(t, a.Submit(context.Background(), r))
	}

	a.Close()
	a.Wait()

	return a.Finish()
}

func TestAggregator_AllSuccess_StatusSuccess(t *testing.T) {
	a := NewAggregator("task-1", "cycle-1")

	rep := runAll(t, a, []FileSyncResult{
		{Path: "a.txt", Operation: "upload", Status: StatusSuccess, Bytes: 100},
		{Path: "b.txt", Operation: "upload", Status: StatusSuccess, Bytes: 200},
	})

	assert.Equal(t, TaskSuccess, rep.Status)
	assert.Equal(t, 2, rep.TotalFiles)
	assert.Equal(t, 2, rep.FilesSynced)
	assert.Equal(t, int64(300), rep.TransferredBytes)
}

func TestAggregator_SomeFailed_StatusPartialSuccess(t *testing.T) {
	a := NewAggregator("task-1", "cycle-1")

	rep := runAll(t, a, []FileSyncResult{
		{Path: "a.txt", Operation: "upload", Status: StatusSuccess, Bytes: 100},
		{Path: "b.txt", Operation: "upload", Status: StatusFailed, Err: errors.New("boom")},
	})

	assert.Equal(t, TaskPartialSuccess, rep.Status)
	assert.Equal(t, 1, rep.FilesSynced)
	assert.Equal(t, 1, rep.FilesFailed)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "b.txt", rep.Errors[0].Path)
}

func TestAggregator_AllFailed_StatusFailed(t *testing.T) {
	a := NewAggregator("task-1", "cycle-1")

	rep := runAll(t, a, []FileSyncResult{
		{Path: "a.txt", Operation: "upload", Status: StatusFailed, Err: errors.New("boom")},
	})

	assert.Equal(t, TaskFailed, rep.Status)
}

func TestAggregator_Cancelled_OverridesOtherStatuses(t *testing.T) {
	a := NewAggregator("task-1", "cycle-1")
	a.MarkCancelled()

	rep := runAll(t, a, []FileSyncResult{
		{Path: "a.txt", Operation: "upload", Status: StatusSuccess, Bytes: 10},
	})

	assert.Equal(t, TaskCancelled, rep.Status)
}

func TestAggregator_ConflictCountsSeparately(t *testing.T) {
	a := NewAggregator("task-1", "cycle-1")

	rep := runAll(t, a, []FileSyncResult{
		{Path: "a.txt", Operation: "upload", Status: StatusSuccess, Bytes: 10},
		{Path: "b.txt", Operation: "conflict", Status: StatusConflict},
	})

	assert.Equal(t, 1, rep.Conflicts)
	assert.Equal(t, TaskPartialSuccess, rep.Status)
}

// TestAggregator_ConflictOnlyNoOtherSyncIsSuccess covers spec §8 Scenario 3:
// a plan whose only outcome is a conflict (nothing else synced or failed)
// reports Success with conflicts counted, not PartialSuccess.
func TestAggregator_ConflictOnlyNoOtherSyncIsSuccess(t *testing.T) {
	a := NewAggregator("task-1", "cycle-1")

	rep := runAll(t, a, []FileSyncResult{
		{Path: "b.txt", Operation: "conflict", Status: StatusConflict},
	})

	assert.Equal(t, 1, rep.Conflicts)
	assert.Equal(t, 0, rep.FilesSynced)
	assert.Equal(t, 0, rep.FilesFailed)
	assert.Equal(t, TaskSuccess, rep.Status)
}

func TestAggregator_ByOperationAndExtensionBreakdown(t *testing.T) {
	a := NewAggregator("task-1", "cycle-1")

	rep := runAll(t, a, []FileSyncResult{
		{Path: "a.txt", Operation: "upload", Status: StatusSuccess},
		{Path: "b.txt", Operation: "upload", Status: StatusSuccess},
		{Path: "c.bin", Operation: "delete", Status: StatusSuccess},
	})

	assert.Equal(t, 2, rep.ByOperation["upload"])
	assert.Equal(t, 1, rep.ByOperation["delete"])
	assert.Equal(t, 2, rep.ByExtension["txt"])
	assert.Equal(t, 1, rep.ByExtension["bin"])
}
