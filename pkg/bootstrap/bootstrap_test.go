package bootstrap

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

func TestPreParseGlobalFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantConfig  string
		wantVerbose bool
	}{
		{"none", []string{"gitmoto"}, "", false},
		{"long config", []string{"gitmoto", "--config", "/tmp/c.toml", "scan"}, "/tmp/c.toml", false},
		{"long config equals", []string{"gitmoto", "--config=/tmp/c.toml"}, "/tmp/c.toml", false},
		{"short config", []string{"gitmoto", "-C", "c.toml", "-v"}, "c.toml", true},
		{"short config attached", []string{"gitmoto", "-Cc.toml"}, "c.toml", false},
		{"stops at subcommand", []string{"gitmoto", "scan", "-v"}, "", false},
		{"stops at marker", []string{"gitmoto", "--", "-v"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, verbose := PreParseGlobalFlags(tt.args)
			if cfg != tt.wantConfig || verbose != tt.wantVerbose {
				t.Errorf("PreParseGlobalFlags() = (%q, %v), want (%q, %v)", cfg, verbose, tt.wantConfig, tt.wantVerbose)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("GITMOTO_CONFIG", "/env/config.toml")
	if got := ConfigPath("/flag.toml"); got != "/flag.toml" {
		t.Errorf("flag should win, got %q", got)
	}
	if got := ConfigPath(""); got != "/env/config.toml" {
		t.Errorf("env should be second, got %q", got)
	}

	t.Setenv("GITMOTO_CONFIG", "")
	if got := ConfigPath(""); !strings.HasSuffix(got, filepath.Join("gitmoto", "config.toml")) {
		t.Errorf("default path = %q", got)
	}
}

func TestInitConfig_ExplicitFile(t *testing.T) {
	t.Setenv("GO_TEST", "true")
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[scanner]\nroots = [\"/srv/git\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := InitConfig(path, false)
	if err != nil {
		t.Fatalf("InitConfig() error = %v", err)
	}
	if len(cfg.Scanner.Roots) != 1 || cfg.Scanner.Roots[0] != "/srv/git" {
		t.Errorf("roots = %v", cfg.Scanner.Roots)
	}
}

func TestInitConfig_EnvOverride(t *testing.T) {
	t.Setenv("GO_TEST", "true")
	t.Setenv("GITMOTO_GIT_CLIENT_COMMAND", "tig")
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[git_client]\ncommand = \"lazygit\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := InitConfig(path, false)
	if err != nil {
		t.Fatalf("InitConfig() error = %v", err)
	}
	if cfg.GitClient.Command != "tig" {
		t.Errorf("command = %q, want env override", cfg.GitClient.Command)
	}
}

func TestInitConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("GO_TEST", "true")
	t.Cleanup(Reset)

	_, err := InitConfig(filepath.Join(t.TempDir(), "nope.toml"), false)
	if !gmerrors.IsConfigError(err) {
		t.Errorf("InitConfig() error = %v, want ConfigError", err)
	}
}

func TestInitConfig_MissingDefaultFileUsesDefaults(t *testing.T) {
	t.Setenv("GO_TEST", "true")
	t.Setenv("GITMOTO_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(Reset)

	cfg, err := InitConfig("", false)
	if err != nil {
		t.Fatalf("InitConfig() error = %v", err)
	}
	if len(cfg.Scanner.Roots) == 0 {
		t.Error("defaults should supply a root")
	}
}

func TestInitConfig_InvalidConfig(t *testing.T) {
	t.Setenv("GO_TEST", "true")
	t.Cleanup(Reset)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[git_client]\nargs = [\"%\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := InitConfig(path, false); !gmerrors.IsConfigError(err) {
		t.Errorf("InitConfig() error = %v, want ConfigError", err)
	}
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer

	NewLogger(&buf, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug logged when not verbose: %q", buf.String())
	}

	NewLogger(&buf, true).Debug("shown", "scan_id", "abc")
	if !strings.Contains(buf.String(), "msg=shown") || !strings.Contains(buf.String(), "scan_id=abc") {
		t.Errorf("verbose output = %q", buf.String())
	}
}

func TestLogFilePath(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/cache")
	if got := LogFilePath(); got != filepath.Join("/cache", "gitmoto", "gitmoto.log") && !strings.HasSuffix(got, filepath.Join("gitmoto", "gitmoto.log")) {
		t.Errorf("LogFilePath() = %q", got)
	}
}
