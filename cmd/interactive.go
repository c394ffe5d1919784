package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"

	"thoreinstein.com/gitmoto/pkg/bootstrap"
	"thoreinstein.com/gitmoto/pkg/config"
	"thoreinstein.com/gitmoto/pkg/gitclient"
	"thoreinstein.com/gitmoto/pkg/ui"
)

// runInteractive scans every configured root into the picker. Logs go to a
// file while the picker owns the terminal.
func runInteractive(ctx context.Context, cfg *config.Config) error {
	logger, closer, err := bootstrap.SetupFileLogging(verbose)
	if err != nil {
		return err
	}
	defer closer.Close()

	client, err := newGitClient(cfg)
	if err != nil {
		return err
	}

	targets, err := scanTargets(cfg, nil, "")
	if err != nil {
		return err
	}

	w, err := newWorker(cfg, newOpener(cfg, logger), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	go submit(ctx, w, targets)

	home, err := homedir.Dir()
	if err != nil {
		logger.Debug("home directory unknown", "error", err)
	}

	model := ui.New(ctx, w.Events(), w.Warnings(), client,
		ui.WithHome(home),
		ui.WithCollapsePaths(cfg.View.CollapsePaths),
		ui.WithLogger(logger),
	)
	uiErr := ui.Run(ctx, model)
	interrupted := ctx.Err() != nil

	// The picker no longer reads; cancelling releases any open session.
	cancel()
	<-errc

	if interrupted {
		fmt.Fprintln(os.Stderr, "interrupted")
		return nil
	}
	return uiErr
}

func newGitClient(cfg *config.Config) (*gitclient.Client, error) {
	return gitclient.New(cfg.GitClient.Command, cfg.GitClient.Args,
		gitclient.WithDetach(cfg.GitClient.Detach),
	)
}
