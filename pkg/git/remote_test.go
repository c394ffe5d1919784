package git

import (
	"strings"
	"testing"
)

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  RemoteURL
	}{
		{
			name:  "scp-like with .git suffix",
			input: "git@github.com:thoreinstein/gitmoto.git",
			want:  RemoteURL{Protocol: "ssh", Host: "github.com", Owner: "thoreinstein", Repo: "gitmoto"},
		},
		{
			name:  "scp-like without .git suffix",
			input: "git@github.com:thoreinstein/gitmoto",
			want:  RemoteURL{Protocol: "ssh", Host: "github.com", Owner: "thoreinstein", Repo: "gitmoto"},
		},
		{
			name:  "scp-like without user",
			input: "nas:git/dotfiles.git",
			want:  RemoteURL{Protocol: "ssh", Host: "nas", Owner: "git", Repo: "dotfiles"},
		},
		{
			name:  "dots in repo name",
			input: "git@github.com:owner/repo.name.git",
			want:  RemoteURL{Protocol: "ssh", Host: "github.com", Owner: "owner", Repo: "repo.name"},
		},
		{
			name:  "https",
			input: "https://github.com/my-org/my_repo",
			want:  RemoteURL{Protocol: "https", Host: "github.com", Owner: "my-org", Repo: "my_repo"},
		},
		{
			name:  "https with .git and trailing slash",
			input: "https://GitHub.com/owner/repo.git/",
			want:  RemoteURL{Protocol: "https", Host: "github.com", Owner: "owner", Repo: "repo"},
		},
		{
			name:  "nested groups",
			input: "https://gitlab.com/group/subgroup/project.git",
			want:  RemoteURL{Protocol: "https", Host: "gitlab.com", Owner: "group/subgroup", Repo: "project"},
		},
		{
			name:  "ssh URL with port",
			input: "ssh://git@example.com:2222/team/app.git",
			want:  RemoteURL{Protocol: "ssh", Host: "example.com", Owner: "team", Repo: "app"},
		},
		{
			name:  "git+ssh",
			input: "git+ssh://example.com/team/app",
			want:  RemoteURL{Protocol: "ssh", Host: "example.com", Owner: "team", Repo: "app"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRemoteURL(tt.input)
			if err != nil {
				t.Fatalf("ParseRemoteURL(%q) error = %v", tt.input, err)
			}
			tt.want.Original = tt.input
			if *got != tt.want {
				t.Errorf("ParseRemoteURL(%q) = %+v, want %+v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestParseRemoteURL_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"empty string", "", "empty URL"},
		{"whitespace only", "   ", "empty URL"},
		{"random text", "not a valid url", "invalid remote URL"},
		{"local path", "/srv/git/repo.git", "invalid remote URL"},
		{"file URL", "file:///srv/git/repo.git", "unsupported remote URL"},
		{"missing owner", "https://github.com/repo", "want host/owner/repo"},
		{"missing repo", "git@github.com:owner", "want host/owner/repo"},
		{"space in owner", "git@github.com:ow ner/repo.git", "invalid remote URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRemoteURL(tt.input)
			if err == nil {
				t.Fatalf("ParseRemoteURL(%q) expected error, got %+v", tt.input, got)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("ParseRemoteURL(%q) error = %q, should contain %q", tt.input, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestShortName(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"git@github.com:thoreinstein/gitmoto.git", "github.com/thoreinstein/gitmoto"},
		{"https://gitlab.com/group/sub/app", "gitlab.com/group/sub/app"},
		{"/srv/git/repo.git", "/srv/git/repo.git"},
	}

	for _, tt := range tests {
		if got := ShortName(tt.input); got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
