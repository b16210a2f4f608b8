package engine

import (
	"fmt"
	"time"

	"github.com/syncforge/syncengine/internal/config"
	"github.com/syncforge/syncengine/internal/scheduler"
)

// Scheduler builds a scheduler.Scheduler over every task in the Engine's
// config, wired to call e.Sync on fire. Tasks with an empty or manual
// Schedule are registered disabled, so they fire only through Trigger.
func (e *Engine) Scheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(e.Sync, e.logger)

	for _, task := range e.cfg.Config.Tasks {
		trigger, err := scheduleTrigger(task.Schedule)
		if err != nil {
			return nil, fmt.Errorf("engine: task %s: %w", task.ID, err)
		}

		s.Add(&scheduler.ScheduledTask{
			TaskID:  task.ID,
			Trigger: trigger,
			Enabled: task.Schedule.Trigger != "" && task.Schedule.Trigger != "manual",
			Overlap: scheduler.OverlapPolicy(task.Schedule.Overlap),
		})
	}

	return s, nil
}

// scheduleTrigger translates a Task's ScheduleConfig into a scheduler.Trigger.
func scheduleTrigger(sc config.ScheduleConfig) (scheduler.Trigger, error) {
	switch sc.Trigger {
	case "", "manual":
		return scheduler.Trigger{Kind: scheduler.TriggerManual}, nil
	case "cron":
		if sc.CronExpr == "" {
			return scheduler.Trigger{}, fmt.Errorf("cron trigger requires cron_expr")
		}

		return scheduler.Trigger{Kind: scheduler.TriggerCron, CronExpr: sc.CronExpr}, nil
	case "interval":
		if sc.IntervalSecs <= 0 {
			return scheduler.Trigger{}, fmt.Errorf("interval trigger requires positive interval_secs")
		}

		return scheduler.Trigger{Kind: scheduler.TriggerInterval, Interval: time.Duration(sc.IntervalSecs) * time.Second}, nil
	case "watch":
		if sc.WatchDir == "" {
			return scheduler.Trigger{}, fmt.Errorf("watch trigger requires watch_dir")
		}

		return scheduler.Trigger{Kind: scheduler.TriggerWatch, WatchDir: sc.WatchDir}, nil
	default:
		return scheduler.Trigger{}, fmt.Errorf("unknown schedule trigger %q", sc.Trigger)
	}
}
