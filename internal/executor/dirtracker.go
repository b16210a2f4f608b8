package executor

import (
	"strings"
	"sync"
)

// dirTracker tracks in-flight CreateDir actions so the worker pool can defer
// any action whose path lies inside a directory still being created, per
// spec §4.7 step 1: "the executor tracks an in-flight directory set and
// defers children." Generalized from the teacher's DepTracker (tracker.go),
// simplified from an explicit dependency graph to a path-prefix check since
// the spec's only ordering requirement is CreateDir-before-descendants.
type dirTracker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending map[string]struct{}
}

func newDirTracker() *dirTracker {
	t := &dirTracker{pending: make(map[string]struct{})}
	t.cond = sync.NewCond(&t.mu)

	return t
}

// BeginDir registers dir as in-flight.
func (t *dirTracker) BeginDir(dir string) {
	t.mu.Lock()
	t.pending[dir] = struct{}{}
	t.mu.Unlock()
}

// FinishDir marks dir complete and wakes any waiters.
func (t *dirTracker) FinishDir(dir string) {
	t.mu.Lock()
	delete(t.pending, dir)
	t.cond.Broadcast()
	t.mu.Unlock()
}

// WaitUntilReady blocks until no pending CreateDir is an ancestor of path.
func (t *dirTracker) WaitUntilReady(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for t.hasPendingAncestorLocked(path) {
		t.cond.Wait()
	}
}

func (t *dirTracker) hasPendingAncestorLocked(path string) bool {
	for dir := range t.pending {
		if dir == path {
			continue // a path is never its own ancestor
		}

		if strings.HasPrefix(path, dir+"/") {
			return true
		}
	}

	return false
}
