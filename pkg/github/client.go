package github

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"thoreinstein.com/gitmoto/pkg/config"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// Resolver finds the GitHub token to use.
type Resolver struct {
	cfg     *config.GitHubConfig
	cache   TokenCache
	getenv  func(string) string
	ghToken func(ctx context.Context) (string, error)
	logger  *slog.Logger
}

// ResolverOption is a functional option for configuring Resolver.
type ResolverOption func(*Resolver)

// WithTokenCache overrides the OAuth token cache.
func WithTokenCache(cache TokenCache) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithGetenv overrides environment lookup.
func WithGetenv(getenv func(string) string) ResolverOption {
	return func(r *Resolver) {
		r.getenv = getenv
	}
}

// WithGHToken overrides the gh CLI credential helper.
func WithGHToken(fn func(ctx context.Context) (string, error)) ResolverOption {
	return func(r *Resolver) {
		r.ghToken = fn
	}
}

// WithResolverLogger sets a custom logger for the resolver.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver for the given configuration.
func NewResolver(cfg *config.GitHubConfig, opts ...ResolverOption) (*Resolver, error) {
	if cfg == nil {
		return nil, gmerrors.NewGitHubError("NewResolver", "github config is required")
	}

	r := &Resolver{
		cfg:     cfg,
		getenv:  os.Getenv,
		ghToken: ghAuthToken,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = NewTokenCache(NewCacheKey(DefaultGitHubHost, cfg.ClientID), WithCacheLogger(r.logger))
	}
	return r, nil
}

// Resolve returns the credential to use.
//
// Token resolution order:
//  1. GITHUB_TOKEN environment variable
//  2. GITMOTO_GITHUB_TOKEN environment variable
//  3. Token from config file (github.token)
//  4. Cached OAuth token (keychain or file)
//  5. gh auth token
//
// The token method stops after step 3 and the oauth method after step 4;
// either fails when nothing was found. The gh_cli method falls back to
// anonymous access. The none method is always anonymous.
func (r *Resolver) Resolve(ctx context.Context) (Credential, error) {
	method := AuthMethod(r.cfg.AuthMethod)
	if method == AuthNone {
		return Credential{Source: SourceNone}, nil
	}

	if token := r.getenv("GITHUB_TOKEN"); token != "" {
		return Credential{Token: token, Source: SourceEnvironment}, nil
	}
	if token := r.getenv("GITMOTO_GITHUB_TOKEN"); token != "" {
		return Credential{Token: token, Source: SourceEnvironment}, nil
	}
	if r.cfg.Token != "" {
		return Credential{Token: r.cfg.Token, Source: SourceConfig}, nil
	}

	switch method {
	case AuthToken:
		return Credential{}, gmerrors.NewGitHubError("Resolve",
			"token auth requires GITHUB_TOKEN, GITMOTO_GITHUB_TOKEN env var, or github.token in config")

	case AuthOAuth:
		if cached := r.cachedToken(); cached != nil {
			return cacheCredential(cached), nil
		}
		return Credential{}, gmerrors.NewGitHubError("Resolve",
			"no cached OAuth token; run 'gitmoto auth login'")

	case AuthGHCLI, "":
		if cached := r.cachedToken(); cached != nil {
			return cacheCredential(cached), nil
		}
		token, err := r.ghToken(ctx)
		if err != nil {
			r.logger.Debug("gh auth token unavailable, continuing anonymously", "error", err)
			return Credential{Source: SourceNone}, nil
		}
		return Credential{Token: token, Source: SourceGHCLI}, nil

	default:
		return Credential{}, gmerrors.NewGitHubError("Resolve", "unknown auth method: "+r.cfg.AuthMethod)
	}
}

// cachedToken returns the cached login if it holds a usable token.
func (r *Resolver) cachedToken() *CachedToken {
	cached, err := r.cache.Get()
	if err != nil {
		r.logger.Debug("failed to read cached token", "error", err)
		return nil
	}
	if cached == nil || cached.Token == nil || !cached.Token.Valid() {
		return nil
	}
	r.logger.Debug("using cached OAuth token", "store", cached.Store, "key", cached.Key.String())
	return cached
}

func cacheCredential(cached *CachedToken) Credential {
	return Credential{
		Token:  cached.Token.AccessToken,
		Source: SourceCache,
		Store:  cached.Store,
		Key:    cached.Key,
	}
}

// ghAuthToken asks the gh CLI for its stored token.
func ghAuthToken(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "gh", "auth", "token")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = err.Error()
		}
		return "", gmerrors.NewGitHubError("gh", errMsg)
	}

	token := strings.TrimSpace(stdout.String())
	if token == "" {
		return "", gmerrors.NewGitHubError("gh", "gh returned an empty token")
	}
	return token, nil
}
