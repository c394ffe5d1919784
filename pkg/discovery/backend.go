package discovery

import "context"

//go:generate mockgen -destination=mocks/mock_backend.go -package=mocks -source=backend.go Backend

// Backend is the storage a walk runs against. Implementations are used by one
// walk at a time.
type Backend interface {
	// Kind names the backend, e.g. "local".
	Kind() string

	// IsDirectory reports whether path is a directory. Symbolic links are
	// not directories. Errors read as false.
	IsDirectory(ctx context.Context, path string) bool

	// ListSubdirectories returns the immediate subdirectories of dir,
	// excluding symbolic links. It fails only when dir itself cannot be
	// listed; entries that cannot be inspected are skipped.
	ListSubdirectories(ctx context.Context, dir string) ([]string, error)

	// IsPrimaryWorktree reports whether dir contains a .git directory.
	// A .git file (linked worktree) does not count.
	IsPrimaryWorktree(ctx context.Context, dir string) bool

	// ListRemotes returns the remotes of the repository at dir. Failures are
	// logged and yield an empty slice.
	ListRemotes(ctx context.Context, dir string) []Remote

	// Close releases the backend session.
	Close() error
}
