package walker

import (
	"context"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syncforge/syncengine/internal/providertest"
)

func TestWalkDiscoversNestedTree(t *testing.T) {
	mp := providertest.NewMemoryProvider("mem")
	mp.PutFile("a.txt", []byte("x"), time.Now(), "")
	mp.PutDir("sub")
	mp.PutFile("sub/b.txt", []byte("yy"), time.Now(), "")
	mp.PutDir("sub/deeper")
	mp.PutFile("sub/deeper/c.txt", []byte("zzz"), time.Now(), "")

	entries, err := Walk(context.Background(), mp, "", Options{Concurrency: 2}, slog.Default())
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}

	sort.Strings(paths)
	require.Equal(t, []string{"a.txt", "sub", "sub/b.txt", "sub/deeper", "sub/deeper/c.txt"}, paths)
}

func TestWalkSkipDirExcludesSubtree(t *testing.T) {
	mp := providertest.NewMemoryProvider("mem")
	mp.PutDir("skip")
	mp.PutFile("skip/hidden.txt", []byte("x"), time.Now(), "")
	mp.PutFile("keep.txt", []byte("y"), time.Now(), "")

	entries, err := Walk(context.Background(), mp, "", Options{
		SkipDir: func(e Entry) bool { return e.Path == "skip" },
	}, slog.Default())
	require.NoError(t, err)

	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}

	sort.Strings(paths)
	require.Equal(t, []string{"keep.txt", "skip"}, paths)
}
