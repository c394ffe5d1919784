package backend

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"golang.org/x/sync/semaphore"

	"thoreinstein.com/gitmoto/pkg/discovery"
	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// Local reads the local filesystem.
type Local struct {
	pool   *semaphore.Weighted
	logger *slog.Logger
}

// NewLocal creates a local backend.
func NewLocal(opts ...Option) *Local {
	o := newOptions(opts)
	return &Local{pool: o.pool, logger: o.logger}
}

func (l *Local) Kind() string { return discovery.KindLocal }

func (l *Local) IsDirectory(_ context.Context, path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}

func (l *Local) ListSubdirectories(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && len(entries) == 0 {
		return nil, gmerrors.NewBackendError(discovery.KindLocal, "ListSubdirectories", dir, err)
	}
	if err != nil {
		l.logger.Debug("partial directory listing", "dir", dir, "error", err)
	}

	subdirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type()&fs.ModeSymlink != 0 || !e.IsDir() {
			continue
		}
		subdirs = append(subdirs, filepath.Join(dir, e.Name()))
	}
	return subdirs, nil
}

func (l *Local) IsPrimaryWorktree(_ context.Context, dir string) bool {
	info, err := os.Lstat(filepath.Join(dir, git.GitDirName))
	return err == nil && info.IsDir()
}

func (l *Local) ListRemotes(ctx context.Context, dir string) []discovery.Remote {
	if err := l.pool.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer l.pool.Release(1)

	repo, err := git.PlainOpen(dir)
	if err != nil {
		l.logger.Warn("failed to open repository", "dir", dir, "error", err)
		return nil
	}
	cfg, err := repo.Config()
	if err != nil {
		l.logger.Warn("failed to read repository config", "dir", dir, "error", err)
		return nil
	}
	return remotesFromConfig(cfg)
}

// Close is a no-op.
func (l *Local) Close() error {
	return nil
}
