package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"thoreinstein.com/gitmoto/pkg/bootstrap"
	"thoreinstein.com/gitmoto/pkg/config"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

var cfgFile string
var verbose bool
var appConfig *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitmoto",
	Short: "Gitmoto - find git repositories and open them",
	Long: `Gitmoto finds git repositories on local disk, on remote hosts over SSH,
and on GitHub, and lists them as they are discovered.

Run without arguments in a terminal to pick a repository interactively and
open it in your git client. When stdout is not a terminal it behaves like
'gitmoto scan'.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if term.IsTerminal(int(os.Stdout.Fd())) {
			return runInteractive(ctx, cfg)
		}
		return runScanCommand(ctx, cmd, cfg, nil, "", formatText)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Pre-parse global flags so that logging is configured before cobra runs.
	cfgFile, verbose = bootstrap.PreParseGlobalFlags(os.Args)
	bootstrap.SetupLogging(verbose)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, gmerrors.FormatUserError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "C", "", "config file (default is $HOME/.config/gitmoto/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	var err error
	appConfig, err = bootstrap.InitConfig(cfgFile, verbose)
	return err
}

// loadConfig returns the loaded configuration, loading it on first use.
func loadConfig() (*config.Config, error) {
	if appConfig == nil {
		if err := initConfig(); err != nil {
			return nil, err
		}
	}
	return appConfig, nil
}

// resetConfig clears the cached configuration.
// This is primarily used in tests to ensure each test starts with a fresh config.
func resetConfig() {
	appConfig = nil
	bootstrap.Reset()
	viper.Reset()
}
