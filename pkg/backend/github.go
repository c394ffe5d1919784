package backend

import (
	"context"
	"log/slog"
	"strings"

	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
	"thoreinstein.com/gitmoto/pkg/github"
	"thoreinstein.com/gitmoto/pkg/ratelimit"
)

// GitHub presents GitHub as a two-level tree: a login is a directory whose
// subdirectories are its repositories, named "login/name".
type GitHub struct {
	client  *github.APIClient
	limiter *ratelimit.Limiter
	retry   gmerrors.RetryConfig
	repos   map[string]github.Repository
	logger  *slog.Logger
}

// NewGitHub creates a GitHub backend. Every request takes a token from each
// of the limiter's buckets for the client's authentication state.
func NewGitHub(client *github.APIClient, limiter *ratelimit.Limiter, opts ...Option) *GitHub {
	o := newOptions(opts)
	return &GitHub{
		client:  client,
		limiter: limiter,
		retry:   o.retry,
		repos:   make(map[string]github.Repository),
		logger:  o.logger,
	}
}

func (g *GitHub) Kind() string { return discovery.KindGitHub }

func (g *GitHub) IsDirectory(_ context.Context, p string) bool {
	if p == "" {
		return false
	}
	if !strings.Contains(p, "/") {
		return true
	}
	_, ok := g.repos[p]
	return ok
}

// ListSubdirectories lists every repository of login, following pagination
// to the last page.
func (g *GitHub) ListSubdirectories(ctx context.Context, login string) ([]string, error) {
	if strings.Contains(login, "/") {
		return nil, nil
	}

	var subdirs []string
	page := 0
	for {
		result, err := gmerrors.RetryWithResult(ctx, g.retry, func() (*github.RepositoryPage, error) {
			if err := g.acquire(ctx); err != nil {
				return nil, err
			}
			return g.client.ListUserRepositories(ctx, login, page)
		})
		if err != nil {
			return nil, gmerrors.NewBackendError(discovery.KindGitHub, "ListSubdirectories", login, err)
		}

		for _, r := range result.Repositories {
			name := r.FullName()
			g.repos[name] = r
			subdirs = append(subdirs, name)
		}
		g.logger.Debug("listed repositories", "login", login, "page", page, "count", len(result.Repositories))

		if result.NextPage == 0 {
			return subdirs, nil
		}
		page = result.NextPage
	}
}

// IsPrimaryWorktree is true for repositories returned by a listing.
func (g *GitHub) IsPrimaryWorktree(_ context.Context, dir string) bool {
	_, ok := g.repos[dir]
	return ok
}

// ListRemotes returns the clone URL as a single unnamed remote.
func (g *GitHub) ListRemotes(ctx context.Context, dir string) []discovery.Remote {
	repo, ok := g.repos[dir]
	if !ok {
		owner, name, found := strings.Cut(dir, "/")
		if !found {
			return nil
		}
		if err := g.acquire(ctx); err != nil {
			return nil
		}
		r, err := g.client.GetRepository(ctx, owner, name)
		if err != nil {
			g.logger.Warn("failed to get repository", "repository", dir, "error", err)
			return nil
		}
		repo = *r
		g.repos[dir] = repo
	}
	if repo.CloneURL == "" {
		return nil
	}
	return []discovery.Remote{{URL: repo.CloneURL}}
}

// Close drops the listing cache.
func (g *GitHub) Close() error {
	clear(g.repos)
	return nil
}

func (g *GitHub) acquire(ctx context.Context) error {
	return g.limiter.Acquire(ctx, g.client.Authenticated())
}
