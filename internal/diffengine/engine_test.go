package diffengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syncforge/syncengine/internal/provider"
)

func meta(path string, isDir bool, size int64, mod time.Time, hash string) provider.Metadata {
	return provider.Metadata{Path: path, IsDir: isDir, Size: size, ModTime: mod, Hash: hash}
}

func fullOptions() Options {
	return Options{
		CompareSize:       true,
		CompareMtime:      true,
		CompareChecksum:   true,
		DeleteOrphans:     true,
		OverwriteExisting: true,
	}
}

func findDiff(t *testing.T, res Result, path string) FileDiff {
	t.Helper()

	for _, d := range res.Diffs {
		if d.Path == path {
			return d
		}
	}

	t.Fatalf("no diff found for path %q", path)

	return FileDiff{}
}

// EF1: present only in source, a file -> Upload.
func TestDiff_EF1_SourceOnlyFile_Upload(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"a.txt": meta("a.txt", false, 100, now, "h1")}

	res := Diff(source, nil, fullOptions())
	d := findDiff(t, res, "a.txt")
	require.Equal(t, ActionUpload, d.Type)
}

// EF2: present only in source, a directory -> CreateDir.
func TestDiff_EF2_SourceOnlyDir_CreateDir(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"dir": meta("dir", true, 0, now, "")}

	res := Diff(source, nil, fullOptions())
	d := findDiff(t, res, "dir")
	require.Equal(t, ActionCreateDir, d.Type)
}

// EF3: present only in target with delete_orphans -> Delete.
func TestDiff_EF3_TargetOnly_DeleteOrphans(t *testing.T) {
	now := time.Now()
	target := map[string]provider.Metadata{"b.txt": meta("b.txt", false, 50, now, "h2")}

	res := Diff(nil, target, fullOptions())
	d := findDiff(t, res, "b.txt")
	require.Equal(t, ActionDelete, d.Type)
}

// EF4: present only in target without delete_orphans -> Unchanged, tagged.
func TestDiff_EF4_TargetOnly_NoDeleteOrphans(t *testing.T) {
	now := time.Now()
	target := map[string]provider.Metadata{"b.txt": meta("b.txt", false, 50, now, "h2")}

	opts := fullOptions()
	opts.DeleteOrphans = false

	res := Diff(nil, target, opts)
	d := findDiff(t, res, "b.txt")
	require.Equal(t, ActionUnchanged, d.Type)
	require.True(t, d.HasTag("target_only"))
}

// EF5: type mismatch (file vs dir at same path) -> Conflict.
func TestDiff_EF5_TypeMismatch_Conflict(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"p": meta("p", false, 10, now, "h")}
	target := map[string]provider.Metadata{"p": meta("p", true, 0, now, "")}

	res := Diff(source, target, fullOptions())
	d := findDiff(t, res, "p")
	require.Equal(t, ActionConflict, d.Type)
	require.True(t, d.HasTag("type_mismatch"))
}

// EF6: both dirs -> Unchanged.
func TestDiff_EF6_BothDirs_Unchanged(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"p": meta("p", true, 0, now, "")}
	target := map[string]provider.Metadata{"p": meta("p", true, 0, now, "")}

	res := Diff(source, target, fullOptions())
	d := findDiff(t, res, "p")
	require.Equal(t, ActionUnchanged, d.Type)
}

// EF7: same size/mtime/hash -> Unchanged.
func TestDiff_EF7_IdenticalFiles_Unchanged(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"p": meta("p", false, 10, now, "h")}
	target := map[string]provider.Metadata{"p": meta("p", false, 10, now, "h")}

	res := Diff(source, target, fullOptions())
	d := findDiff(t, res, "p")
	require.Equal(t, ActionUnchanged, d.Type)
}

// EF8: size differs, overwrite_existing -> Update.
func TestDiff_EF8_SizeDiffers_Update(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"p": meta("p", false, 20, now, "h1")}
	target := map[string]provider.Metadata{"p": meta("p", false, 10, now, "h2")}

	res := Diff(source, target, fullOptions())
	d := findDiff(t, res, "p")
	require.Equal(t, ActionUpdate, d.Type)
}

// EF9: size differs, no overwrite_existing -> Unchanged tagged skipped_overwrite.
func TestDiff_EF9_SizeDiffers_NoOverwrite_Skipped(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"p": meta("p", false, 20, now, "h1")}
	target := map[string]provider.Metadata{"p": meta("p", false, 10, now, "h2")}

	opts := fullOptions()
	opts.OverwriteExisting = false

	res := Diff(source, target, opts)
	d := findDiff(t, res, "p")
	require.Equal(t, ActionUnchanged, d.Type)
	require.True(t, d.HasTag("skipped_overwrite"))
}

// EF10: mtime within epsilon (2s) does not count as changed.
func TestDiff_EF10_MtimeWithinEpsilon_Unchanged(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"p": meta("p", false, 10, now, "h")}
	target := map[string]provider.Metadata{"p": meta("p", false, 10, now.Add(time.Second), "h")}

	res := Diff(source, target, fullOptions())
	d := findDiff(t, res, "p")
	require.Equal(t, ActionUnchanged, d.Type)
}

// EF11: mtime beyond epsilon counts as changed.
func TestDiff_EF11_MtimeBeyondEpsilon_Update(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"p": meta("p", false, 10, now, "h")}
	target := map[string]provider.Metadata{"p": meta("p", false, 10, now.Add(5*time.Second), "h")}

	res := Diff(source, target, fullOptions())
	d := findDiff(t, res, "p")
	require.Equal(t, ActionUpdate, d.Type)
}

func TestDiff_MoveDetection_HighSimilarity(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"new/name.txt": meta("new/name.txt", false, 1000, now, "")}
	target := map[string]provider.Metadata{"old/name.txt": meta("old/name.txt", false, 1000, now, "")}

	opts := fullOptions()
	opts.DetectMoves = true

	res := Diff(source, target, opts)
	require.Len(t, res.Diffs, 1)
	require.Equal(t, ActionMove, res.Diffs[0].Type)
	require.Equal(t, "new/name.txt", res.Diffs[0].Path)
	require.Equal(t, "old/name.txt", res.Diffs[0].PriorPath)
}

func TestDiff_MoveDetection_LowSimilarity_NoMove(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{"a.txt": meta("a.txt", false, 10, now, "")}
	target := map[string]provider.Metadata{"b.bin": meta("b.bin", false, 99999, now.Add(72*time.Hour), "")}

	opts := fullOptions()
	opts.DetectMoves = true

	res := Diff(source, target, opts)
	require.Equal(t, 1, res.CountByAction[ActionUpload])
	require.Equal(t, 1, res.CountByAction[ActionDelete])
	require.Equal(t, 0, res.CountByAction[ActionMove])
}

func TestDiff_OrderingPriorities(t *testing.T) {
	now := time.Now()
	source := map[string]provider.Metadata{
		"dir":          meta("dir", true, 0, now, ""),
		"dir/small.txt": meta("dir/small.txt", false, 100, now, "h1"),
	}
	target := map[string]provider.Metadata{
		"orphan.txt": meta("orphan.txt", false, 5, now, "h2"),
	}

	res := Diff(source, target, fullOptions())

	// Conflict/Delete/CreateDir must precede Upload per the priority table.
	typeOrder := make([]ActionType, 0, len(res.Diffs))
	for _, d := range res.Diffs {
		typeOrder = append(typeOrder, d.Type)
	}

	require.Equal(t, []ActionType{ActionDelete, ActionCreateDir, ActionUpload}, typeOrder)
}

func TestDiff_DeleteOrdersDeepestFirst(t *testing.T) {
	now := time.Now()
	target := map[string]provider.Metadata{
		"a":       meta("a", true, 0, now, ""),
		"a/b":     meta("a/b", true, 0, now, ""),
		"a/b/c.txt": meta("a/b/c.txt", false, 1, now, ""),
	}

	res := Diff(nil, target, fullOptions())
	require.Len(t, res.Diffs, 3)
	require.Equal(t, "a/b/c.txt", res.Diffs[0].Path)
	require.Equal(t, "a/b", res.Diffs[1].Path)
	require.Equal(t, "a", res.Diffs[2].Path)
}

func TestDiff_DuplicateActionBecomesConflict(t *testing.T) {
	diffs := []FileDiff{
		{Type: ActionUpload, Path: "x"},
		{Type: ActionDelete, Path: "x"},
	}

	out := detectConflicts(diffs)
	require.Len(t, out, 1)
	require.Equal(t, ActionConflict, out[0].Type)
}
