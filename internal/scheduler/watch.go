package scheduler

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of filesystem events (e.g. an editor's
// save-as-temp-then-rename dance) into a single fire, matching the
// debounce intent of the teacher's LocalObserver watch loop
// (internal/sync/observer_local.go), generalized from a baseline-diff
// watch into a plain "something changed, re-run the task" trigger.
const watchDebounce = 500 * time.Millisecond

// watchLoop watches task.Trigger.WatchDir and fires task on every
// filesystem event, debounced.
func watchLoop(ctx context.Context, s *Scheduler, task *ScheduledTask) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Error("scheduler: create watcher failed", "task", task.TaskID, "error", err)
		return
	}
	defer w.Close()

	if err := w.Add(task.Trigger.WatchDir); err != nil {
		s.logger.Error("scheduler: watch dir failed", "task", task.TaskID, "dir", task.Trigger.WatchDir, "error", err)
		return
	}

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}

			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}

			s.logger.Warn("scheduler: watch error", "task", task.TaskID, "error", err)
		case _, ok := <-w.Events:
			if !ok {
				return
			}

			if debounce != nil {
				debounce.Stop()
			}

			debounce = time.AfterFunc(watchDebounce, func() {
				if err := s.fire(ctx, task); err != nil {
					s.logger.Warn("scheduler: watch fire failed", "task", task.TaskID, "error", err)
				}
			})
		}
	}
}
