package discovery

import "time"

// Backend kinds.
const (
	KindLocal  = "local"
	KindSSH    = "ssh"
	KindGitHub = "github"
)

// Remote is a configured git remote. Name is empty for backends that only
// expose a single clone URL.
type Remote struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	URL  string `json:"url" yaml:"url"`
}

// Repository is a discovered primary git worktree. Path identifies it.
type Repository struct {
	Path    string   `json:"path" yaml:"path"`
	Backend string   `json:"backend" yaml:"backend"`
	Remotes []Remote `json:"remotes" yaml:"remotes"`
}

// Result is one element of a walk: a repository or a warning, never both.
type Result struct {
	Repository *Repository
	Warning    error
}

// Stats summarises a finished walk.
type Stats struct {
	Visited  int           // directories tested
	Found    int           // repositories yielded
	Warnings int           // directories that could not be listed
	Duration time.Duration // wall time of the walk
}
