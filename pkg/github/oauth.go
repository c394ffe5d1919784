package github

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/cli/oauth"
	"github.com/cli/oauth/api"
	"golang.org/x/oauth2"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

const (
	// DefaultGitHubHost is the default GitHub API host.
	DefaultGitHubHost = "https://github.com"

	// DefaultScopes lets listings include private repositories.
	DefaultScopes = "repo"
)

// OAuthConfig holds OAuth configuration for device flow authentication.
type OAuthConfig struct {
	ClientID string   // OAuth app client ID (required for device flow)
	Scopes   []string // OAuth scopes to request
	HostURL  string   // GitHub host URL (default: github.com)
}

// DeviceAuth performs OAuth device flow authentication. It shows a code to
// enter at GitHub's verification URL and polls until authorization completes.
func DeviceAuth(ctx context.Context, cfg OAuthConfig, stdout io.Writer) (*api.AccessToken, error) {
	if cfg.ClientID == "" {
		return nil, gmerrors.NewGitHubError("DeviceAuth", "client_id is required for OAuth device flow")
	}

	hostURL := cfg.HostURL
	if hostURL == "" {
		hostURL = DefaultGitHubHost
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{DefaultScopes}
	}

	host, err := oauth.NewGitHubHost(hostURL)
	if err != nil {
		return nil, gmerrors.NewGitHubErrorWithCause("DeviceAuth", "invalid GitHub host URL", err)
	}

	flow := &oauth.Flow{
		Host:     host,
		ClientID: cfg.ClientID,
		Scopes:   scopes,
		Stdout:   stdout,
		Stdin:    os.Stdin,
		DisplayCode: func(code, verificationURL string) error {
			fmt.Fprintf(stdout, "\n! First, copy your one-time code: %s\n", code)
			fmt.Fprintf(stdout, "- Press Enter to open %s in your browser...\n", verificationURL)
			return nil
		},
	}

	token, err := flow.DeviceFlow()
	if err != nil {
		return nil, gmerrors.NewGitHubErrorWithCause("DeviceAuth", "device flow failed", err)
	}

	return token, nil
}

// Login runs the device flow and caches the resulting token.
func Login(ctx context.Context, cfg OAuthConfig, cache TokenCache, stdout io.Writer) error {
	apiToken, err := DeviceAuth(ctx, cfg, stdout)
	if err != nil {
		return err
	}

	token := &oauth2.Token{
		AccessToken: apiToken.Token,
		TokenType:   apiToken.Type,
	}
	if err := cache.Set(token); err != nil {
		return err
	}
	return nil
}

// Logout removes the cached token.
func Logout(cache TokenCache) error {
	return cache.Clear()
}
