// Package diffengine reconciles a source and target FileMetadata map into an
// ordered, one-directional action plan: the teacher's three-way-merge
// classification matrix (planner.go) generalized down to a plain
// source-vs-target comparison with no baseline state.
package diffengine

import (
	"time"

	"github.com/syncforge/syncengine/internal/provider"
)

// ActionType is the kind of reconciliation action produced for one path.
type ActionType int

// Action types, ordered by nothing in particular — priority is computed
// separately in order.go.
const (
	ActionUpload ActionType = iota
	ActionDownload
	ActionDelete
	ActionUpdate
	ActionMove
	ActionCreateDir
	ActionConflict
	ActionUnchanged
)

func (a ActionType) String() string {
	switch a {
	case ActionUpload:
		return "upload"
	case ActionDownload:
		return "download"
	case ActionDelete:
		return "delete"
	case ActionUpdate:
		return "update"
	case ActionMove:
		return "move"
	case ActionCreateDir:
		return "create_dir"
	case ActionConflict:
		return "conflict"
	case ActionUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// FileDiff is one planned action against a single path.
type FileDiff struct {
	Type ActionType
	Path string
	// PriorPath is set only for Move: the path being renamed from.
	PriorPath string

	// Source and Target carry the metadata observed on each side; at least
	// one is populated for any non-Unchanged diff.
	Source *provider.Metadata
	Target *provider.Metadata

	Priority  int
	SizeDelta int64
	Tags      []string
}

// HasTag reports whether tag is present on the diff.
func (d FileDiff) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}

	return false
}

// Options configures one Diff invocation (spec §4.4).
type Options struct {
	CompareSize      bool
	CompareMtime     bool
	CompareChecksum  bool
	IgnorePatterns   []string
	LargeFileThresholdBytes int64

	DeleteOrphans     bool
	OverwriteExisting bool

	DetectMoves         bool
	SimilarityThreshold float64 // default 0.7
}

// mtimeEpsilon absorbs filesystem timestamp rounding differences (spec §4.4).
const mtimeEpsilon = 2 * time.Second

// DefaultSimilarityThreshold is used when Options.SimilarityThreshold is zero.
const DefaultSimilarityThreshold = 0.7

// smallFileBytes / mediumFileBytes bound the Upload/Download/Update size
// tiers used by the priority table (spec §4.4 step 4).
const (
	smallFileBytes  = 1 << 20  // 1 MiB
	mediumFileBytes = 10 << 20 // 10 MiB
)

// Result is the output of Diff: the ordered plan plus aggregates.
type Result struct {
	Diffs []FileDiff

	CountByAction      map[ActionType]int
	TotalTransferSize  int64
	TotalDeleteSize    int64
	EstimatedDurationMs int64
}
