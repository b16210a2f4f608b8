package diffengine

import (
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/syncforge/syncengine/internal/provider"
)

// detectMoves implements spec §4.4 step 2: pair up Delete/Upload diffs whose
// similarity score clears opts.SimilarityThreshold, replacing each matched
// pair with a single Move. Ported from the teacher's detectLocalMoves/
// detectRemoteMoves idiom (planner.go), replacing hash-equality correlation
// with the spec's weighted size/mtime/mime similarity score.
func detectMoves(diffs []FileDiff, opts Options) []FileDiff {
	var (
		deletes []int
		uploads []int
	)

	for i, d := range diffs {
		switch d.Type {
		case ActionDelete:
			if d.Target != nil && !d.Target.IsDir {
				deletes = append(deletes, i)
			}
		case ActionUpload:
			if d.Source != nil && !d.Source.IsDir {
				uploads = append(uploads, i)
			}
		}
	}

	usedDelete := make(map[int]bool)
	usedUpload := make(map[int]bool)

	var moves []FileDiff

	for _, di := range deletes {
		if usedDelete[di] {
			continue
		}

		bestUpload := -1
		bestScore := 0.0

		for _, ui := range uploads {
			if usedUpload[ui] {
				continue
			}

			score := similarity(*diffs[di].Target, *diffs[ui].Source)
			if score > bestScore {
				bestScore = score
				bestUpload = ui
			}
		}

		if bestUpload >= 0 && bestScore >= opts.SimilarityThreshold {
			usedDelete[di] = true
			usedUpload[bestUpload] = true

			moves = append(moves, FileDiff{
				Type:      ActionMove,
				Path:      diffs[bestUpload].Path,
				PriorPath: diffs[di].Path,
				Source:    diffs[bestUpload].Source,
				Target:    diffs[di].Target,
				SizeDelta: 0,
			})
		}
	}

	if len(moves) == 0 {
		return diffs
	}

	out := make([]FileDiff, 0, len(diffs))

	for i, d := range diffs {
		if usedDelete[i] || usedUpload[i] {
			continue
		}

		out = append(out, d)
	}

	return append(out, moves...)
}

// similarity computes the weighted score from spec §4.4 step 2: size 0.4,
// mtime 0.3, mime 0.3.
func similarity(from, to provider.Metadata) float64 {
	const sizeWeight, mtimeWeight, mimeWeight = 0.4, 0.3, 0.3

	return sizeWeight*sizeComponent(from.Size, to.Size) +
		mtimeWeight*mtimeComponent(from.ModTime, to.ModTime) +
		mimeWeight*mimeComponent(from, to)
}

func sizeComponent(a, b int64) float64 {
	if a == b {
		return 1.0
	}

	if a == 0 || b == 0 {
		return 0
	}

	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}

	return float64(lo) / float64(hi)
}

func mtimeComponent(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}

	switch {
	case d <= 60*time.Second:
		return 1.0
	case d <= time.Hour:
		return 0.67
	case d <= 24*time.Hour:
		return 0.33
	default:
		return 0
	}
}

func mimeComponent(from, to provider.Metadata) float64 {
	a, b := from.MimeType, to.MimeType

	if a == "" {
		a = mime.TypeByExtension(filepath.Ext(from.Path))
	}

	if b == "" {
		b = mime.TypeByExtension(filepath.Ext(to.Path))
	}

	if a == "" || b == "" {
		return 0
	}

	if a == b {
		return 1.0
	}

	if majorType(a) == majorType(b) {
		return 0.5
	}

	return 0
}

func majorType(mimeType string) string {
	major, _, found := strings.Cut(mimeType, "/")
	if !found {
		return mimeType
	}

	return major
}
