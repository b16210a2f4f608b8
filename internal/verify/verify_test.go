package verify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncforge/syncengine/internal/executor"
	"github.com/syncforge/syncengine/internal/providertest"
	"github.com/syncforge/syncengine/internal/resume"
)

func TestVerify_AllMatch_NoMismatches(t *testing.T) {
	src := providertest.NewMemoryProvider("source")
	dst := providertest.NewMemoryProvider("target")

	src.PutFile("a.txt", []byte("hello"), time.Now(), "")
	dst.PutFile("a.txt", []byte("hello"), time.Now(), "")

	v := New(src, dst, 0)

	res, err := v.Verify(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 0, res.Failed)
}

func TestVerify_MissingOnTarget(t *testing.T) {
	src := providertest.NewMemoryProvider("source")
	dst := providertest.NewMemoryProvider("target")

	src.PutFile("a.txt", []byte("hello"), time.Now(), "")

	v := New(src, dst, 0)

	res, err := v.Verify(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, StatusMissing, res.Mismatches[0].Status)
}

func TestVerify_SizeMismatch(t *testing.T) {
	src := providertest.NewMemoryProvider("source")
	dst := providertest.NewMemoryProvider("target")

	src.PutFile("a.txt", []byte("hello world"), time.Now(), "")
	dst.PutFile("a.txt", []byte("hi"), time.Now(), "")

	v := New(src, dst, 0)

	res, err := v.Verify(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, StatusSizeMismatch, res.Mismatches[0].Status)
}

func TestVerify_HashMismatch(t *testing.T) {
	src := providertest.NewMemoryProvider("source")
	dst := providertest.NewMemoryProvider("target")

	src.PutFile("a.txt", []byte("hello world"), time.Now(), "hashA")
	dst.PutFile("a.txt", []byte("hello world"), time.Now(), "hashB")

	v := New(src, dst, 0)

	res, err := v.Verify(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, StatusHashMismatch, res.Mismatches[0].Status)
}

func TestRepairer_UpdatesMismatchedFiles(t *testing.T) {
	src := providertest.NewMemoryProvider("source")
	dst := providertest.NewMemoryProvider("target")

	src.PutFile("a.txt", []byte("new content"), time.Now(), "")
	dst.PutFile("a.txt", []byte("stale"), time.Now(), "")

	v := New(src, dst, 0)

	res, err := v.Verify(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)

	store, err := resume.NewSQLiteStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ex := executor.New(executor.Config{
		TaskID:      "t1",
		Source:      src,
		Target:      dst,
		Store:       store,
		Concurrency: 4,
		Retry:       executor.RetryPolicy{MaxAttempts: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Factor: 1},
	})

	rep := NewRepairer(src, ex)

	result, err := rep.Repair(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, executor.OutcomeSuccess, result.Outcomes[0].Status)

	r, err := dst.Download(context.Background(), "a.txt")
	require.NoError(t, err)
	defer r.Close()

	data := make([]byte, 32)
	n, _ := r.Read(data)
	assert.Equal(t, "new content", string(data[:n]))
}
