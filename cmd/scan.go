package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"thoreinstein.com/gitmoto/pkg/bootstrap"
	"thoreinstein.com/gitmoto/pkg/config"
	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

var (
	scanBackend string
	scanFormat  string
)

// scanCmd streams discovered repositories to stdout.
var scanCmd = &cobra.Command{
	Use:   "scan [root...]",
	Short: "List git repositories as they are found",
	Long: `Scan roots for git repositories and print each one as soon as it is found.

Without roots, every configured root is scanned: scanner.roots locally,
ssh.hosts over SSH and github.users on GitHub. Directories that cannot be
read are reported on stderr and do not fail the scan.

Formats:
  text   path and remote URLs (default)
  json   one JSON object per line
  yaml   one YAML document per repository
  table  an aligned table, printed when the scan ends

Examples:
  gitmoto scan                               # All configured roots
  gitmoto scan ~/work                        # One local directory
  gitmoto scan --backend ssh me@nas:/srv/git # A remote host
  gitmoto scan --backend github octocat      # A GitHub user
  gitmoto scan --format json | jq .path`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runScanCommand(ctx, cmd, cfg, args, scanBackend, scanFormat)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanBackend, "backend", "b", "", "Backend for the given roots (local, ssh, github)")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", formatText, "Output format (text, json, yaml, table)")
}

func runScanCommand(ctx context.Context, cmd *cobra.Command, cfg *config.Config, roots []string, kind, format string) error {
	targets, err := scanTargets(cfg, roots, kind)
	if err != nil {
		return err
	}
	p, err := newPrinter(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	logger := bootstrap.SetupLogging(verbose)
	w, err := newWorker(cfg, newOpener(cfg, logger), logger)
	if err != nil {
		return err
	}

	return runScan(ctx, w, targets, p, cmd.ErrOrStderr())
}

// runScan feeds targets to w and prints what it finds until every scan has
// finished. Warnings go to stderr and never fail the scan.
func runScan(ctx context.Context, w *discovery.Worker, targets []target, p printer, stderr io.Writer) error {
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	go submit(ctx, w, targets)

	events, warnings := w.Events(), w.Warnings()
	var printErr error
	for events != nil || warnings != nil {
		select {
		case r, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if printErr == nil {
				printErr = p.Print(r)
			}
		case msg, ok := <-warnings:
			if !ok {
				warnings = nil
				continue
			}
			warnColor.Fprintf(stderr, "warning: %s\n", msg)
		}
	}

	if err := <-errc; err != nil && !gmerrors.Is(err, context.Canceled) {
		return err
	}
	if printErr != nil {
		return gmerrors.Wrap(printErr, "failed to write output")
	}
	if err := p.Flush(); err != nil {
		return gmerrors.Wrap(err, "failed to write output")
	}
	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "scan interrupted")
	}
	return nil
}
