package discovery

import (
	"context"
	"iter"
	"log/slog"
	"time"
)

// Engine walks a Backend breadth-first looking for primary git worktrees.
// An Engine owns its backend and closes it when a walk ends; it is single use.
type Engine struct {
	backend  Backend
	excludes *Excludes
	logger   *slog.Logger
	stats    Stats
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithExcludes skips directories matching the given patterns.
func WithExcludes(excludes *Excludes) EngineOption {
	return func(e *Engine) {
		e.excludes = excludes
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine over backend.
func NewEngine(backend Backend, opts ...EngineOption) *Engine {
	e := &Engine{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Walk returns the repositories under roots in breadth-first order. Roots are
// walked in the order given and are not de-duplicated.
//
// A directory that cannot be listed produces a Result carrying a warning and
// the walk goes on. A repository's subdirectories are never visited. The walk
// stops when the queue drains, ctx is done, or the caller stops ranging; in
// every case the backend is closed before the sequence returns.
func (e *Engine) Walk(ctx context.Context, roots []string) iter.Seq[Result] {
	return func(yield func(Result) bool) {
		start := time.Now()
		defer func() {
			e.stats.Duration = time.Since(start)
			if err := e.backend.Close(); err != nil {
				e.logger.Debug("closing backend", "backend", e.backend.Kind(), "error", err)
			}
			e.logger.Debug("walk finished",
				"backend", e.backend.Kind(),
				"visited", e.stats.Visited,
				"found", e.stats.Found,
				"warnings", e.stats.Warnings,
				"duration", e.stats.Duration,
			)
		}()

		var pending queue
		for _, root := range roots {
			e.enqueue(&pending, root)
		}

		for ctx.Err() == nil {
			dir, ok := pending.pop()
			if !ok {
				return
			}
			e.stats.Visited++

			if e.backend.IsPrimaryWorktree(ctx, dir) {
				e.stats.Found++
				repo := &Repository{
					Path:    dir,
					Backend: e.backend.Kind(),
					Remotes: e.backend.ListRemotes(ctx, dir),
				}
				if !yield(Result{Repository: repo}) {
					return
				}
				continue
			}

			subdirs, err := e.backend.ListSubdirectories(ctx, dir)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				e.stats.Warnings++
				if !yield(Result{Warning: err}) {
					return
				}
				continue
			}

			for _, sub := range subdirs {
				e.enqueue(&pending, sub)
			}
		}
	}
}

// Stats returns counters for the last walk. Valid once the walk has ended.
func (e *Engine) Stats() Stats {
	return e.stats
}

func (e *Engine) enqueue(pending *queue, dir string) {
	if e.excludes.Match(dir) {
		e.logger.Debug("excluded", "dir", dir)
		return
	}
	pending.push(dir)
}

// queue is a FIFO of directories awaiting their worktree test.
type queue struct {
	items []string
	head  int
}

func (q *queue) push(dir string) {
	q.items = append(q.items, dir)
}

func (q *queue) pop() (string, bool) {
	if q.head == len(q.items) {
		return "", false
	}
	dir := q.items[q.head]
	q.items[q.head] = ""
	q.head++

	// reclaim the consumed prefix once it dominates the slice
	if q.head > 1024 && q.head*2 > len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return dir, true
}

func (q *queue) len() int {
	return len(q.items) - q.head
}
