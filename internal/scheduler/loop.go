package scheduler

import (
	"context"
	"fmt"
	"time"
)

// triggerLoop drives repeated firing of one ScheduledTask until ctx is done.
type triggerLoop struct {
	fn func(ctx context.Context, s *Scheduler, task *ScheduledTask)
}

func (l triggerLoop) run(ctx context.Context, s *Scheduler, task *ScheduledTask) {
	l.fn(ctx, s, task)
}

func (s *Scheduler) loopFor(task *ScheduledTask) (triggerLoop, error) {
	switch task.Trigger.Kind {
	case TriggerCron:
		spec, err := parseCron(task.Trigger.CronExpr)
		if err != nil {
			return triggerLoop{}, err
		}

		return triggerLoop{fn: cronLoop(spec)}, nil
	case TriggerInterval:
		if task.Trigger.Interval <= 0 {
			return triggerLoop{}, fmt.Errorf("scheduler: interval trigger requires a positive duration")
		}

		return triggerLoop{fn: intervalLoop(task.Trigger.Interval)}, nil
	case TriggerWatch:
		return triggerLoop{fn: watchLoop}, nil
	default:
		return triggerLoop{}, fmt.Errorf("scheduler: unsupported trigger kind %d for an automatic loop", task.Trigger.Kind)
	}
}

func cronLoop(spec cronSpec) func(context.Context, *Scheduler, *ScheduledTask) {
	return func(ctx context.Context, s *Scheduler, task *ScheduledTask) {
		for {
			next, err := spec.next(time.Now())
			if err != nil {
				s.logger.Error("scheduler: cron next failed", "task", task.TaskID, "error", err)
				return
			}

			timer := time.NewTimer(time.Until(next))

			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
				if err := s.fire(ctx, task); err != nil {
					s.logger.Warn("scheduler: cron fire failed", "task", task.TaskID, "error", err)
				}
			}
		}
	}
}

func intervalLoop(interval time.Duration) func(context.Context, *Scheduler, *ScheduledTask) {
	return func(ctx context.Context, s *Scheduler, task *ScheduledTask) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.fire(ctx, task); err != nil {
					s.logger.Warn("scheduler: interval fire failed", "task", task.TaskID, "error", err)
				}
			}
		}
	}
}
