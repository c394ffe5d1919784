package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"thoreinstein.com/gitmoto/pkg/config"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// openCmd launches the git client on a repository.
var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Open a repository in the git client",
	Long: `Open a repository in the configured git client.

The client is git_client.command run with git_client.args, where %f is
replaced by the repository path and %% by a literal percent sign.

Examples:
  gitmoto open ~/src/gitmoto
  gitmoto open .`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runOpen(cmd, cfg, args[0])
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, cfg *config.Config, path string) error {
	dir, err := config.ExpandPath(path)
	if err != nil {
		return gmerrors.Wrapf(err, "invalid path %q", path)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return gmerrors.Wrapf(err, "cannot open %s", dir)
	}
	if !info.IsDir() {
		return gmerrors.Newf("%s is not a directory", dir)
	}

	client, err := newGitClient(cfg)
	if err != nil {
		return err
	}
	return client.Launch(cmd.Context(), dir)
}
