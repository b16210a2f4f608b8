package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syncforge/syncengine/internal/report"
)

func TestScheduler_IntervalTriggerFiresRepeatedly(t *testing.T) {
	var calls atomic.Int32

	run := func(ctx context.Context, taskID string) (report.SyncReport, error) {
		calls.Add(1)
		return report.SyncReport{Status: report.TaskSuccess}, nil
	}

	s := New(run, nil)
	task := &ScheduledTask{
		TaskID:  "t1",
		Trigger: Trigger{Kind: TriggerInterval, Interval: 10 * time.Millisecond},
		Enabled: true,
	}
	s.Add(task)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))

	time.Sleep(55 * time.Millisecond)
	cancel()
	s.Stop()

	assert.GreaterOrEqual(t, int(calls.Load()), 3)

	stats := task.Stats()
	assert.GreaterOrEqual(t, stats.RunCount, 3)
	assert.Equal(t, report.TaskSuccess, stats.LastStatus)
}

func TestScheduler_ManualTrigger(t *testing.T) {
	var calls atomic.Int32

	run := func(ctx context.Context, taskID string) (report.SyncReport, error) {
		calls.Add(1)
		return report.SyncReport{Status: report.TaskSuccess}, nil
	}

	s := New(run, nil)
	task := &ScheduledTask{TaskID: "t1", Trigger: Trigger{Kind: TriggerManual}, Enabled: true}
	s.Add(task)

	require.NoError(t, s.Trigger(context.Background(), "t1"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_OverlapSkipPreventsConcurrentRun(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32

	run := func(ctx context.Context, taskID string) (report.SyncReport, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return report.SyncReport{Status: report.TaskSuccess}, nil
	}

	s := New(run, nil)
	task := &ScheduledTask{TaskID: "t1", Trigger: Trigger{Kind: TriggerManual}, Enabled: true, Overlap: OverlapSkip}
	s.Add(task)

	go s.Trigger(context.Background(), "t1")
	<-started

	require.NoError(t, s.Trigger(context.Background(), "t1")) // should skip, not block

	close(release)
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_RetriesOnFailure(t *testing.T) {
	var calls atomic.Int32

	run := func(ctx context.Context, taskID string) (report.SyncReport, error) {
		n := calls.Add(1)
		if n < 3 {
			return report.SyncReport{}, assertErr
		}

		return report.SyncReport{Status: report.TaskSuccess}, nil
	}

	s := New(run, nil)
	task := &ScheduledTask{TaskID: "t1", Trigger: Trigger{Kind: TriggerManual}, Enabled: true, MaxRetries: 3}
	s.Add(task)

	err := s.Trigger(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

type sentinelErr struct{}

func (sentinelErr) Error() string { return "scheduler_test: simulated failure" }

var assertErr = sentinelErr{}
