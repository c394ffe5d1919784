// Package bootstrap loads configuration and installs the process logger
// before any command runs.
package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"thoreinstein.com/gitmoto/pkg/config"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

var (
	lastLoadedConfig  string
	lastLoadedVerbose bool
	loadedConfig      *config.Config
)

// PreParseGlobalFlags manually scans os.Args for --config and --verbose flags
// before the main Cobra execution. It stops scanning as soon as it hits a
// non-flag argument or the "--" marker.
func PreParseGlobalFlags(args []string) (string, bool) {
	var cfgFile string
	var verbose bool

	for i := 1; i < len(args); i++ {
		arg := args[i]

		if arg == "--" || !strings.HasPrefix(arg, "-") {
			break
		}

		switch {
		case arg == "--config" || arg == "-C":
			if i+1 < len(args) {
				cfgFile = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--config="):
			cfgFile = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-C="):
			cfgFile = strings.TrimPrefix(arg, "-C=")
		case strings.HasPrefix(arg, "-C") && len(arg) > 2:
			cfgFile = arg[2:]
		case arg == "--verbose" || arg == "-v":
			verbose = true
		}
	}

	return cfgFile, verbose
}

// ConfigPath returns the config file to read: the flag value, then
// $GITMOTO_CONFIG, then the default location.
func ConfigPath(cfgFile string) string {
	if cfgFile != "" {
		return cfgFile
	}
	if env := os.Getenv("GITMOTO_CONFIG"); env != "" {
		return env
	}
	return config.DefaultPath()
}

// InitConfig reads the config file and GITMOTO_* environment variables.
// A missing default config file is not an error; a missing explicit one is.
func InitConfig(cfgFile string, verbose bool) (*config.Config, error) {
	if os.Getenv("GO_TEST") != "true" && loadedConfig != nil && cfgFile == lastLoadedConfig && verbose == lastLoadedVerbose {
		return loadedConfig, nil
	}

	viper.Reset()

	explicit := cfgFile != "" || os.Getenv("GITMOTO_CONFIG") != ""
	path, err := homedir.Expand(ConfigPath(cfgFile))
	if err != nil {
		return nil, gmerrors.Wrap(err, "failed to expand config path")
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("toml")

	viper.SetEnvPrefix("GITMOTO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, gmerrors.NewConfigErrorWithCause("config", "cannot read "+path, err)
		}
		slog.Debug("no config file, using defaults", "path", path)
	} else {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	for _, w := range config.CheckSecurityWarnings(cfg) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w.Message)
	}

	lastLoadedConfig = cfgFile
	lastLoadedVerbose = verbose
	loadedConfig = cfg

	return cfg, nil
}

// NewLogger returns a text logger writing to w at Info, or Debug when verbose.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// SetupLogging installs a stderr logger as the default.
func SetupLogging(verbose bool) *slog.Logger {
	logger := NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// LogFilePath is where logs go while the terminal UI owns the screen.
func LogFilePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "gitmoto", "gitmoto.log")
}

// SetupFileLogging installs a logger appending to LogFilePath. The returned
// closer flushes the file.
func SetupFileLogging(verbose bool) (*slog.Logger, io.Closer, error) {
	path := LogFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, gmerrors.Wrap(err, "failed to create log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, gmerrors.Wrap(err, "failed to open log file")
	}
	logger := NewLogger(f, verbose)
	slog.SetDefault(logger)
	return logger, f, nil
}

// Reset clears the cached configuration state.
func Reset() {
	lastLoadedConfig = ""
	lastLoadedVerbose = false
	loadedConfig = nil
}
