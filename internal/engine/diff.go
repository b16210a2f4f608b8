package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/syncforge/syncengine/internal/config"
	"github.com/syncforge/syncengine/internal/diffengine"
	"github.com/syncforge/syncengine/internal/filter"
	"github.com/syncforge/syncengine/internal/provider"
	"github.com/syncforge/syncengine/internal/walker"
)

// walkConcurrency is the default fan-out for both the source and target
// walks, twice the walker package's own floor of 4.
const walkConcurrency = 8

// CalculateDiffForDryRun computes the plan for task without executing it,
// the engine's calculate_diff_for_dry_run API (spec §6).
func (e *Engine) CalculateDiffForDryRun(ctx context.Context, taskID string) (diffengine.Result, error) {
	task, source, target, err := e.task(taskID)
	if err != nil {
		return diffengine.Result{}, err
	}

	src, tgt, err := e.walkingPair(ctx, source, target)
	if err != nil {
		return diffengine.Result{}, err
	}

	return e.diff(ctx, task, src, tgt)
}

// diff walks both sides of task and reconciles them into an ordered plan,
// serving a cached Result instead of re-walking/re-diffing when task's scan
// cooldown (spec §4.4) hasn't yet elapsed since the prior call for the same
// (task, source root, target root).
func (e *Engine) diff(ctx context.Context, task config.Task, src, tgt provider.StorageProvider) (diffengine.Result, error) {
	if cached, ok := e.cooldown.Get(task.ID, task.SourcePath, task.TargetPath); ok {
		return cached, nil
	}

	result, err := e.diffUncached(ctx, task, src, tgt)
	if err != nil {
		return diffengine.Result{}, err
	}

	ttl := time.Duration(task.Policy.ScanCooldownSecs) * time.Second
	e.cooldown.Put(task.ID, task.SourcePath, task.TargetPath, result, ttl)

	return result, nil
}

// diffUncached walks both sides of task and reconciles them into an ordered
// plan, bypassing the scan cooldown cache.
func (e *Engine) diffUncached(ctx context.Context, task config.Task, src, tgt provider.StorageProvider) (diffengine.Result, error) {
	f := filter.New(task.Filters)

	skipDir := func(entry walker.Entry) bool {
		return f.Excluded(entry.Path, true)
	}

	sourceEntries, err := walker.Walk(ctx, src, task.SourcePath, walker.Options{Concurrency: walkConcurrency, SkipDir: skipDir}, e.logger)
	if err != nil {
		return diffengine.Result{}, fmt.Errorf("engine: walk source: %w", err)
	}

	targetEntries, err := walker.Walk(ctx, tgt, task.TargetPath, walker.Options{Concurrency: walkConcurrency, SkipDir: skipDir}, e.logger)
	if err != nil {
		return diffengine.Result{}, fmt.Errorf("engine: walk target: %w", err)
	}

	sourceMap := toMetadataMap(sourceEntries, f)
	targetMap := toMetadataMap(targetEntries, f)

	opts := diffengine.Options{
		CompareSize:       true,
		CompareMtime:      true,
		CompareChecksum:   true,
		IgnorePatterns:    task.Filters,
		DeleteOrphans:     task.Policy.DeleteOrphans,
		OverwriteExisting: task.Policy.OverwriteExisting,
		DetectMoves:       true,
	}

	return diffengine.Diff(sourceMap, targetMap, opts), nil
}

// toMetadataMap flattens a walk into a path->Metadata map, keyed identically
// for files and directories (the Diff Engine's classifyPath tells them
// apart via Metadata.IsDir), dropping filter-excluded entries.
func toMetadataMap(entries []walker.Entry, f *filter.Filter) map[string]provider.Metadata {
	out := make(map[string]provider.Metadata, len(entries))

	for _, e := range entries {
		if f.Excluded(e.Path, e.IsDir) {
			continue
		}

		out[e.Path] = e.Metadata
	}

	return out
}
