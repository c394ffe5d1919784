package cmd

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"

	"thoreinstein.com/gitmoto/pkg/backend"
	"thoreinstein.com/gitmoto/pkg/config"
	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
	"thoreinstein.com/gitmoto/pkg/github"
	"thoreinstein.com/gitmoto/pkg/ratelimit"
)

var backendKinds = []string{discovery.KindLocal, discovery.KindSSH, discovery.KindGitHub}

// target is one root to scan with one backend.
type target struct {
	Kind string
	Root string
}

// scanTargets returns the roots to scan. Explicit roots use kind (local when
// empty); otherwise the configured roots of kind, or of every backend when
// kind is empty.
func scanTargets(cfg *config.Config, roots []string, kind string) ([]target, error) {
	if kind != "" && !slices.Contains(backendKinds, kind) {
		return nil, gmerrors.Newf("unknown backend %q (want local, ssh or github)", kind)
	}

	if len(roots) > 0 {
		if kind == "" {
			kind = discovery.KindLocal
		}
		targets := make([]target, 0, len(roots))
		for _, root := range roots {
			targets = append(targets, target{Kind: kind, Root: root})
		}
		return targets, nil
	}

	configured := map[string][]string{
		discovery.KindLocal:  cfg.Scanner.Roots,
		discovery.KindSSH:    cfg.SSH.Hosts,
		discovery.KindGitHub: cfg.GitHub.Users,
	}

	var targets []target
	for _, k := range backendKinds {
		if kind != "" && k != kind {
			continue
		}
		for _, root := range configured[k] {
			targets = append(targets, target{Kind: k, Root: root})
		}
	}
	return targets, nil
}

// opener builds a fresh backend for every scan request. The GitHub rate
// limiter is shared by all GitHub scans of the process.
type opener struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *semaphore.Weighted

	resolve func(ctx context.Context) (github.Credential, error)
	apiOpts []github.APIClientOption

	limiterOnce sync.Once
	limiter     *ratelimit.Limiter
	limiterErr  error
}

func newOpener(cfg *config.Config, logger *slog.Logger) *opener {
	o := &opener{
		cfg:    cfg,
		logger: logger,
		pool:   semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
	}
	o.resolve = func(ctx context.Context) (github.Credential, error) {
		resolver, err := github.NewResolver(&cfg.GitHub, github.WithResolverLogger(logger))
		if err != nil {
			return github.Credential{}, err
		}
		return resolver.Resolve(ctx)
	}
	return o
}

// Open implements discovery.Opener.
func (o *opener) Open(ctx context.Context, req discovery.Request) (discovery.Backend, []string, error) {
	logger := o.logger.With("scan_id", req.ID)

	switch req.Kind {
	case discovery.KindLocal, "":
		root, err := config.ExpandPath(req.Root)
		if err != nil {
			return nil, nil, gmerrors.Wrapf(err, "invalid root %q", req.Root)
		}
		return backend.NewLocal(backend.WithLogger(logger), backend.WithPool(o.pool)), []string{root}, nil

	case discovery.KindSSH:
		dest, dir, err := backend.ParseRoot(req.Root)
		if err != nil {
			return nil, nil, err
		}
		session, err := backend.DialSSH(ctx, dest,
			backend.WithLogger(logger),
			backend.WithKnownHosts(o.cfg.SSH.KnownHosts),
		)
		if err != nil {
			return nil, nil, err
		}
		root, err := session.ResolvePath(dir)
		if err != nil {
			_ = session.Close()
			return nil, nil, err
		}
		return session, []string{root}, nil

	case discovery.KindGitHub:
		limiter, err := o.rateLimiter()
		if err != nil {
			return nil, nil, err
		}
		cred, err := o.resolve(ctx)
		if err != nil {
			logger.Warn("GitHub authentication failed, continuing anonymously", "error", err)
			cred = github.Credential{Source: github.SourceNone}
		}
		logger.Debug("GitHub credential resolved", "source", cred.Source)

		opts := append([]github.APIClientOption{github.WithAPILogger(logger)}, o.apiOpts...)
		client, err := github.NewAPIClient(cred.Token, opts...)
		if err != nil {
			return nil, nil, err
		}
		return backend.NewGitHub(client, limiter, backend.WithLogger(logger)), []string{req.Root}, nil

	default:
		return nil, nil, gmerrors.Newf("unknown backend %q", req.Kind)
	}
}

func (o *opener) rateLimiter() (*ratelimit.Limiter, error) {
	o.limiterOnce.Do(func() {
		o.limiter, o.limiterErr = ratelimit.New(ratelimit.WithLogger(o.logger))
	})
	return o.limiter, o.limiterErr
}

// newWorker creates a discovery worker for cfg.
func newWorker(cfg *config.Config, o *opener, logger *slog.Logger) (*discovery.Worker, error) {
	excludes, err := discovery.CompileExcludes(cfg.Scanner.Excludes)
	if err != nil {
		return nil, err
	}
	return discovery.NewWorker(o.Open,
		discovery.WithWorkerExcludes(excludes),
		discovery.WithWorkerLogger(logger),
	), nil
}

// submit queues every target, then closes the request channel. It stops
// early when ctx is done.
func submit(ctx context.Context, w *discovery.Worker, targets []target) {
	defer close(w.Requests())
	for _, t := range targets {
		if err := w.Scan(ctx, t.Kind, t.Root); err != nil {
			return
		}
	}
}
