package diffengine

import (
	"sort"
	"strings"
)

// Priority constants from spec §4.4 step 4.
const (
	priorityConflict      = 100
	priorityDelete         = 90
	priorityCreateDir      = 75
	priorityUpdateSmall    = 80
	priorityTransferSmall  = 70
	priorityTransferMedium = 60
	priorityTransferLarge  = 50
	priorityMove           = 40
	priorityUnchanged      = 10
)

// order assigns each diff's Priority field and stable-sorts by
// (priority desc, path asc), with the spec's two tie-break refinements:
// deepest-first within Delete, shallowest-first within CreateDir.
func order(diffs []FileDiff) []FileDiff {
	for i := range diffs {
		diffs[i].Priority = priorityOf(diffs[i])
	}

	sort.SliceStable(diffs, func(i, j int) bool {
		a, b := diffs[i], diffs[j]

		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}

		if a.Type == ActionDelete && b.Type == ActionDelete {
			da, db := depth(a.Path), depth(b.Path)
			if da != db {
				return da > db // deepest first
			}
		}

		if a.Type == ActionCreateDir && b.Type == ActionCreateDir {
			da, db := depth(a.Path), depth(b.Path)
			if da != db {
				return da < db // shallowest first
			}
		}

		return a.Path < b.Path
	})

	return diffs
}

func priorityOf(d FileDiff) int {
	switch d.Type {
	case ActionConflict:
		return priorityConflict
	case ActionDelete:
		return priorityDelete
	case ActionCreateDir:
		return priorityCreateDir
	case ActionUpdate:
		return sizeTieredPriority(transferSize(d), priorityUpdateSmall)
	case ActionUpload, ActionDownload:
		return sizeTieredPriority(transferSize(d), priorityTransferSmall)
	case ActionMove:
		return priorityMove
	default:
		return priorityUnchanged
	}
}

// sizeTieredPriority maps a transfer's size into the small/medium/large
// priority tiers from spec §4.4 step 4, parameterized by the "small" value
// since Update and Upload/Download use different small-tier priorities.
func sizeTieredPriority(size int64, smallPriority int) int {
	switch {
	case size < smallFileBytes:
		return smallPriority
	case size < mediumFileBytes:
		return priorityTransferMedium
	default:
		return priorityTransferLarge
	}
}

func transferSize(d FileDiff) int64 {
	if d.Source != nil {
		return d.Source.Size
	}

	if d.Target != nil {
		return d.Target.Size
	}

	return 0
}

func depth(path string) int {
	return strings.Count(path, "/")
}
