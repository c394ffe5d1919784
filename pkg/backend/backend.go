// Package backend implements discovery.Backend over the local filesystem, an
// SSH connection with SFTP, and the GitHub REST API.
package backend

import (
	"context"
	"log/slog"
	"net"
	"runtime"
	"sort"

	"github.com/go-git/go-git/v5/config"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/sync/semaphore"

	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

var (
	_ discovery.Backend = (*Local)(nil)
	_ discovery.Backend = (*SSH)(nil)
	_ discovery.Backend = (*GitHub)(nil)
)

// Option configures a backend. Options that don't apply to a backend are
// ignored by it.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	pool       *semaphore.Weighted
	knownHosts string
	agent      agent.Agent
	dial       func(ctx context.Context, network, addr string) (net.Conn, error)
	retry      gmerrors.RetryConfig
}

// WithLogger sets the backend logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPool bounds concurrent repository opens by the local backend. Share one
// pool between backends to bound them together.
func WithPool(pool *semaphore.Weighted) Option {
	return func(o *options) {
		o.pool = pool
	}
}

// WithKnownHosts sets the known_hosts file used to verify SSH host keys.
func WithKnownHosts(path string) Option {
	return func(o *options) {
		o.knownHosts = path
	}
}

// WithAgent uses the given agent instead of the one at SSH_AUTH_SOCK.
func WithAgent(a agent.Agent) Option {
	return func(o *options) {
		o.agent = a
	}
}

// WithDialer replaces the TCP dialer used for SSH connections.
func WithDialer(dial func(ctx context.Context, network, addr string) (net.Conn, error)) Option {
	return func(o *options) {
		o.dial = dial
	}
}

// WithRetry sets the retry policy for GitHub requests.
func WithRetry(cfg gmerrors.RetryConfig) Option {
	return func(o *options) {
		o.retry = cfg
	}
}

func newOptions(opts []Option) *options {
	var d net.Dialer
	o := &options{
		logger: slog.Default(),
		dial:   d.DialContext,
		retry:  gmerrors.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.pool == nil {
		o.pool = semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0)))
	}
	return o
}

// remotesFromConfig lists the remotes of a parsed git config sorted by name,
// using the first URL of each.
func remotesFromConfig(cfg *config.Config) []discovery.Remote {
	names := make([]string, 0, len(cfg.Remotes))
	for name := range cfg.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)

	remotes := make([]discovery.Remote, 0, len(names))
	for _, name := range names {
		rc := cfg.Remotes[name]
		if len(rc.URLs) == 0 {
			continue
		}
		remotes = append(remotes, discovery.Remote{Name: name, URL: rc.URLs[0]})
	}
	return remotes
}
