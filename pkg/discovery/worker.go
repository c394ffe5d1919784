package discovery

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Request asks the worker to scan one root with one backend kind.
type Request struct {
	ID   string
	Kind string
	Root string
}

// NewScanRequest builds a Request with a fresh ID.
func NewScanRequest(kind, root string) Request {
	return Request{ID: uuid.NewString(), Kind: kind, Root: root}
}

// Opener establishes the backend for a request and returns the roots to walk.
// An error is fatal to that request only.
type Opener func(ctx context.Context, req Request) (Backend, []string, error)

// Worker runs scans off the caller's goroutine. It reads requests and writes
// repositories and warnings, each over a channel of capacity 1, so it never
// runs ahead of its consumer. Consumers must drain Events and Warnings
// together.
type Worker struct {
	requests chan Request
	events   chan Repository
	warnings chan string
	open     Opener
	excludes *Excludes
	logger   *slog.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithWorkerExcludes applies exclude patterns to every scan.
func WithWorkerExcludes(excludes *Excludes) WorkerOption {
	return func(w *Worker) {
		w.excludes = excludes
	}
}

// WithWorkerLogger sets the worker logger.
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(w *Worker) {
		w.logger = logger
	}
}

// NewWorker creates a worker that opens backends with open.
func NewWorker(open Opener, opts ...WorkerOption) *Worker {
	w := &Worker{
		requests: make(chan Request, 1),
		events:   make(chan Repository, 1),
		warnings: make(chan string, 1),
		open:     open,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Requests is the request channel. Close it to stop the worker once queued
// scans finish.
func (w *Worker) Requests() chan<- Request {
	return w.requests
}

// Events delivers discovered repositories. Closed when Run returns.
func (w *Worker) Events() <-chan Repository {
	return w.events
}

// Warnings delivers non-fatal diagnostics. Closed when Run returns.
func (w *Worker) Warnings() <-chan string {
	return w.warnings
}

// Scan queues a scan of root, blocking while a previous request is pending.
func (w *Worker) Scan(ctx context.Context, kind, root string) error {
	select {
	case w.requests <- NewScanRequest(kind, root):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run serves requests until the request channel is closed or ctx is done.
// Cancelling ctx abandons the current scan and releases its session.
func (w *Worker) Run(ctx context.Context) error {
	defer close(w.events)
	defer close(w.warnings)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-w.requests:
			if !ok {
				return nil
			}
			if err := w.scan(ctx, req); err != nil {
				return err
			}
		}
	}
}

func (w *Worker) scan(ctx context.Context, req Request) error {
	logger := w.logger.With("scan_id", req.ID, "backend", req.Kind, "root", req.Root)
	logger.Debug("scan started")

	backend, roots, err := w.open(ctx, req)
	if err != nil {
		logger.Warn("scan failed", "error", err)
		return w.warn(ctx, err.Error())
	}

	engine := NewEngine(backend, WithExcludes(w.excludes), WithLogger(logger))
	for res := range engine.Walk(ctx, roots) {
		if res.Warning != nil {
			if err := w.warn(ctx, res.Warning.Error()); err != nil {
				return err
			}
			continue
		}

		select {
		case w.events <- *res.Repository:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	stats := engine.Stats()
	logger.Debug("scan finished", "found", stats.Found, "warnings", stats.Warnings, "duration", stats.Duration)
	return ctx.Err()
}

func (w *Worker) warn(ctx context.Context, msg string) error {
	select {
	case w.warnings <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
