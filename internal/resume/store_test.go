package resume

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:", nil)
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })

	return s
}

func TestStoreUpsertAndGet(t *testing.T) {
	s := newTestStore(t)

	r := Record{TaskID: "t1", Path: "a/b.txt", Status: StatusInProgress, LastModified: 100, Size: 1024}
	require.NoError(t, s.Upsert(r))

	got, ok, err := s.Get("t1", "a/b.txt")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusInProgress, got.Status)
	require.Equal(t, int64(1024), got.Size)
}

func TestStoreUpsertOverwrites(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Upsert(Record{TaskID: "t1", Path: "a.txt", Status: StatusInProgress, LastModified: 1, Size: 10}))
	require.NoError(t, s.Upsert(Record{TaskID: "t1", Path: "a.txt", Status: StatusCompleted, LastModified: 2, Size: 20}))

	got, ok, err := s.Get("t1", "a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, int64(20), got.Size)
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Get("t1", "missing.txt")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Upsert(Record{TaskID: "t1", Path: "a.txt", Status: StatusCompleted, LastModified: 1, Size: 1}))
	require.NoError(t, s.Delete("t1", "a.txt"))

	_, ok, err := s.Get("t1", "a.txt")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreListByTask(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Upsert(Record{TaskID: "t1", Path: "a.txt", Status: StatusCompleted, LastModified: 1, Size: 1}))
	require.NoError(t, s.Upsert(Record{TaskID: "t1", Path: "b.txt", Status: StatusInProgress, LastModified: 2, Size: 2}))
	require.NoError(t, s.Upsert(Record{TaskID: "t2", Path: "c.txt", Status: StatusCompleted, LastModified: 3, Size: 3}))

	records, err := s.ListByTask("t1")
	require.NoError(t, err)
	require.Len(t, records, 2)
}

func TestRecordMatches(t *testing.T) {
	r := Record{LastModified: 100, Size: 50}
	require.True(t, r.Matches(100, 50))
	require.False(t, r.Matches(100, 51))
	require.False(t, r.Matches(101, 50))
}
