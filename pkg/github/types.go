// Package github provides the GitHub credentials and REST client used to
// list a user's repositories.
//
// Tokens are resolved from the environment, the config file, a cached OAuth
// token, or the gh CLI, in that order. Without a token the client runs
// anonymously at the lower rate limit.
package github

// AuthMethod represents the authentication method for GitHub.
type AuthMethod string

const (
	// AuthToken uses a personal access token for authentication.
	AuthToken AuthMethod = "token"
	// AuthOAuth uses a token cached by the OAuth device flow.
	AuthOAuth AuthMethod = "oauth"
	// AuthGHCLI uses the gh CLI's stored credentials.
	AuthGHCLI AuthMethod = "gh_cli"
	// AuthNone always runs anonymously.
	AuthNone AuthMethod = "none"
)

// TokenSource names where a token came from.
type TokenSource string

const (
	SourceNone        TokenSource = "none"
	SourceEnvironment TokenSource = "environment"
	SourceConfig      TokenSource = "config"
	SourceCache       TokenSource = "cache"
	SourceGHCLI       TokenSource = "gh"
)

// Credential is a resolved token. An empty Token means anonymous access.
type Credential struct {
	Token  string
	Source TokenSource

	// Set for SourceCache: where the login was stored.
	Store StoreKind
	Key   CacheKey
}

// Authenticated reports whether the credential carries a token.
func (c Credential) Authenticated() bool {
	return c.Token != ""
}

// Repository is the subset of a GitHub repository used for discovery.
type Repository struct {
	Owner    string
	Name     string
	CloneURL string
}

// FullName returns "owner/name".
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// RepositoryPage is one page of a repository listing. NextPage is 0 on the
// last page.
type RepositoryPage struct {
	Repositories []Repository
	NextPage     int
}
