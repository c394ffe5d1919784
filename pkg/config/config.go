package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
	"thoreinstein.com/gitmoto/pkg/gitclient"
)

// Config represents the application configuration
type Config struct {
	Scanner   ScannerConfig   `mapstructure:"scanner" toml:"scanner"`
	View      ViewConfig      `mapstructure:"view" toml:"view"`
	GitClient GitClientConfig `mapstructure:"git_client" toml:"git_client"`
	GitHub    GitHubConfig    `mapstructure:"github" toml:"github"`
	SSH       SSHConfig       `mapstructure:"ssh" toml:"ssh"`
}

// ScannerConfig holds local discovery configuration
type ScannerConfig struct {
	Roots    []string `mapstructure:"roots" toml:"roots"`       // Directories to walk
	Excludes []string `mapstructure:"excludes" toml:"excludes"` // Glob patterns of directories to skip
}

// ViewConfig holds presentation options
type ViewConfig struct {
	CollapsePaths bool `mapstructure:"collapse_paths" toml:"collapse_paths"` // Dim the prefix shared with the previous row
}

// GitClientConfig holds the command launched on a selected repository
type GitClientConfig struct {
	Command string   `mapstructure:"command" toml:"command"`
	Args    []string `mapstructure:"args" toml:"args"`     // %f is the repository path
	Detach  bool     `mapstructure:"detach" toml:"detach"` // Don't wait for the client (GUI clients)
}

// GitHubConfig holds GitHub integration configuration
type GitHubConfig struct {
	AuthMethod string   `mapstructure:"auth_method" toml:"auth_method"` // "token", "oauth", "gh_cli", "none"
	ClientID   string   `mapstructure:"client_id" toml:"client_id"`     // OAuth app client ID (for device flow)
	Token      string   `mapstructure:"token" toml:"token"`             // GITMOTO_GITHUB_TOKEN env var takes precedence
	Users      []string `mapstructure:"users" toml:"users"`             // Logins whose repositories are listed
}

// SSHConfig holds remote host discovery configuration
type SSHConfig struct {
	Hosts      []string `mapstructure:"hosts" toml:"hosts"`             // "[user@]host:path" roots
	KnownHosts string   `mapstructure:"known_hosts" toml:"known_hosts"` // Path to known_hosts
}

// SecurityWarning represents a configuration security issue
type SecurityWarning struct {
	Field   string
	Message string
}

// ValidAuthMethods is the list of supported GitHub authentication methods.
var ValidAuthMethods = []string{"token", "oauth", "gh_cli", "none"}

// Load loads the configuration from viper, which must already be initialised.
func Load() (*Config, error) {
	config := &Config{}

	setDefaults()

	if err := viper.Unmarshal(config); err != nil {
		return nil, gmerrors.Wrap(err, "failed to unmarshal config")
	}

	if err := expandPaths(config); err != nil {
		return nil, gmerrors.Wrap(err, "failed to expand paths")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Scanner: ScannerConfig{
			Roots:    []string{"~/src"},
			Excludes: []string{},
		},
		View: ViewConfig{CollapsePaths: true},
		GitClient: GitClientConfig{
			Command: "lazygit",
			Args:    []string{"-p", "%f"},
		},
		GitHub: GitHubConfig{
			AuthMethod: "gh_cli",
			Users:      []string{},
		},
		SSH: SSHConfig{
			Hosts:      []string{},
			KnownHosts: "~/.ssh/known_hosts",
		},
	}
}

// CheckSecurityWarnings returns warnings for insecure configuration practices.
func CheckSecurityWarnings(config *Config) []SecurityWarning {
	var warnings []SecurityWarning

	if config.GitHub.Token != "" && os.Getenv("GITMOTO_GITHUB_TOKEN") == "" && os.Getenv("GITHUB_TOKEN") == "" {
		warnings = append(warnings, SecurityWarning{
			Field:   "github.token",
			Message: "GitHub token is set in config file. For security, use GITMOTO_GITHUB_TOKEN or 'gitmoto auth login' instead.",
		})
	}

	return warnings
}

// Validate validates the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Scanner.Roots) == 0 {
		return gmerrors.NewConfigError("scanner.roots", "missing filesystem scanner roots")
	}

	if _, err := discovery.CompileExcludes(c.Scanner.Excludes); err != nil {
		return err
	}

	if _, err := gitclient.FormatArgs(c.GitClient.Args, "dummy/path"); err != nil {
		return gmerrors.NewConfigErrorWithCause("git_client.args", "invalid template", err)
	}

	if c.GitHub.AuthMethod != "" && !slices.Contains(ValidAuthMethods, c.GitHub.AuthMethod) {
		return gmerrors.NewConfigError("github.auth_method",
			"must be one of: "+strings.Join(ValidAuthMethods, ", "))
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	d := Default()

	viper.SetDefault("scanner.roots", d.Scanner.Roots)
	viper.SetDefault("scanner.excludes", d.Scanner.Excludes)

	viper.SetDefault("view.collapse_paths", d.View.CollapsePaths)

	viper.SetDefault("git_client.command", d.GitClient.Command)
	viper.SetDefault("git_client.args", d.GitClient.Args)
	viper.SetDefault("git_client.detach", d.GitClient.Detach)

	viper.SetDefault("github.auth_method", d.GitHub.AuthMethod) // Prefer gh CLI auth
	viper.SetDefault("github.client_id", "")
	viper.SetDefault("github.token", "")
	viper.SetDefault("github.users", d.GitHub.Users)

	viper.SetDefault("ssh.hosts", d.SSH.Hosts)
	viper.SetDefault("ssh.known_hosts", d.SSH.KnownHosts)
}

// expandPaths expands ~ in paths and exclude patterns
func expandPaths(config *Config) error {
	var err error

	for i, root := range config.Scanner.Roots {
		config.Scanner.Roots[i], err = ExpandPath(root)
		if err != nil {
			return err
		}
	}

	for i, pattern := range config.Scanner.Excludes {
		config.Scanner.Excludes[i], err = homedir.Expand(pattern)
		if err != nil {
			return err
		}
	}

	config.SSH.KnownHosts, err = ExpandPath(config.SSH.KnownHosts)
	if err != nil {
		return err
	}

	return nil
}

// ExpandPath expands a leading ~ to the home directory and cleans the result.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	return filepath.Clean(expanded), nil
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gitmoto", "config.toml")
	}
	home, err := homedir.Dir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "gitmoto", "config.toml")
}
