package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"thoreinstein.com/gitmoto/pkg/bootstrap"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
	"thoreinstein.com/gitmoto/pkg/github"
)

// authCmd is the parent command for GitHub credentials.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage GitHub authentication",
	Long: `Manage the GitHub credentials used by the github backend.

Anonymous access is limited to 60 requests an hour; authenticated access
allows 5000.

Examples:
  gitmoto auth login    # OAuth device flow
  gitmoto auth status   # Show which token would be used
  gitmoto auth logout   # Forget the cached token`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with GitHub using the device flow",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.GitHub.ClientID == "" {
			return gmerrors.NewConfigError("github.client_id", "an OAuth app client ID is required for 'gitmoto auth login'")
		}

		oauthCfg := github.OAuthConfig{ClientID: cfg.GitHub.ClientID}
		cache := github.NewTokenCache(github.NewCacheKey(oauthCfg.HostURL, oauthCfg.ClientID), github.WithCacheLogger(bootstrap.SetupLogging(verbose)))
		if err := github.Login(cmd.Context(), oauthCfg, cache, cmd.OutOrStdout()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in to GitHub")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the cached GitHub token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cache := github.NewTokenCache(github.NewCacheKey(github.DefaultGitHubHost, cfg.GitHub.ClientID), github.WithCacheLogger(bootstrap.SetupLogging(verbose)))
		if err := github.Logout(cache); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out of GitHub")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which GitHub credential would be used",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		resolver, err := github.NewResolver(&cfg.GitHub, github.WithResolverLogger(bootstrap.SetupLogging(verbose)))
		if err != nil {
			return err
		}
		return runAuthStatus(cmd, resolver)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runAuthStatus(cmd *cobra.Command, resolver *github.Resolver) error {
	cred, err := resolver.Resolve(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !cred.Authenticated() {
		fmt.Fprintln(out, "Not authenticated: GitHub requests are anonymous (60/hour)")
		return nil
	}
	fmt.Fprintf(out, "Authenticated with a token from %s (5000/hour)\n", describeSource(cred))
	return nil
}

func describeSource(cred github.Credential) string {
	switch cred.Source {
	case github.SourceEnvironment:
		return "the environment"
	case github.SourceConfig:
		return "the config file"
	case github.SourceCache:
		return fmt.Sprintf("the login cache (%s, %s)", cred.Store, cred.Key.Host)
	case github.SourceGHCLI:
		return "the gh CLI"
	default:
		return string(cred.Source)
	}
}
