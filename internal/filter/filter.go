// Package filter compiles a task's ignore_patterns into a path matcher,
// generalized from the teacher's .odignore layer (internal/sync/filter.go)
// down to a single task-wide pattern list: the spec's Diff Options carry one
// flat ignore_patterns slice, not a per-directory marker-file cascade.
package filter

import (
	ignore "github.com/sabhiram/go-gitignore"
)

// Filter matches relative paths against a compiled pattern list.
type Filter struct {
	gi *ignore.GitIgnore
}

// New compiles patterns into a Filter. A nil or empty pattern list excludes
// nothing.
func New(patterns []string) *Filter {
	if len(patterns) == 0 {
		return &Filter{}
	}

	return &Filter{gi: ignore.CompileIgnoreLines(patterns...)}
}

// Excluded reports whether path is excluded by the compiled patterns. path
// must be slash-separated and relative to the task root; directories are
// matched with a trailing slash so a pattern like "build/" excludes the
// whole subtree.
func (f *Filter) Excluded(path string, isDir bool) bool {
	if f == nil || f.gi == nil {
		return false
	}

	if isDir {
		path += "/"
	}

	return f.gi.MatchesPath(path)
}
