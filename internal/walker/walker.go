// Package walker performs bounded-concurrency tree traversal of a
// StorageProvider, producing the flat metadata listing the Diff Engine
// reconciles.
package walker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/syncforge/syncengine/internal/provider"
)

// minWorkers is the floor for traversal concurrency, matching the teacher's
// worker-pool floor in worker.go.
const minWorkers = 4

// Entry is one file or directory discovered during a walk.
type Entry struct {
	provider.Metadata
}

// Options configures a Walk call.
type Options struct {
	// Concurrency bounds the number of directories listed in parallel.
	// Values below minWorkers are raised to minWorkers.
	Concurrency int

	// SkipDir, when non-nil, is consulted before descending into a
	// directory; returning true excludes the directory and its subtree.
	SkipDir func(Entry) bool
}

// Walk traverses root on p, breadth-first, listing directories concurrently
// up to opts.Concurrency and returning every discovered entry (files and
// directories, root excluded). Mirrors the teacher's worker-pool idiom
// (worker.go) generalized from a dependency tracker to a plain BFS frontier
// driven by golang.org/x/sync/errgroup.
func Walk(ctx context.Context, p provider.StorageProvider, root string, opts Options, logger *slog.Logger) ([]Entry, error) {
	concurrency := opts.Concurrency
	if concurrency < minWorkers {
		concurrency = minWorkers
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var (
		mu      sync.Mutex
		results []Entry
	)

	var walkDir func(dir string)

	walkDir = func(dir string) {
		g.Go(func() error {
			children, err := p.List(ctx, dir)
			if err != nil {
				return fmt.Errorf("walker: list %q: %w", dir, err)
			}

			mu.Lock()
			for _, child := range children {
				results = append(results, Entry{Metadata: child})
			}
			mu.Unlock()

			for _, child := range children {
				if !child.IsDir {
					continue
				}

				entry := Entry{Metadata: child}
				if opts.SkipDir != nil && opts.SkipDir(entry) {
					if logger != nil {
						logger.Debug("walker: skipping directory", slog.String("path", child.Path))
					}

					continue
				}

				walkDir(child.Path)
			}

			return nil
		})
	}

	walkDir(root)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
