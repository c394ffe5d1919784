package github

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	gmerrors "thoreinstein.com/gitmoto/pkg/errors"
)

// DefaultPerPage is the listing page size.
const DefaultPerPage = 100

// APIClient lists repositories through the GitHub REST API.
type APIClient struct {
	client        *gh.Client
	authenticated bool
	perPage       int
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
}

// APIClientOption is a functional option for configuring APIClient.
type APIClientOption func(*APIClient)

// WithAPILogger sets a custom logger for the API client.
func WithAPILogger(logger *slog.Logger) APIClientOption {
	return func(c *APIClient) {
		c.logger = logger
	}
}

// WithBaseURL points the client at another API root, such as GitHub
// Enterprise or a test server.
func WithBaseURL(baseURL string) APIClientOption {
	return func(c *APIClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(client *http.Client) APIClientOption {
	return func(c *APIClient) {
		c.httpClient = client
	}
}

// WithPerPage sets the listing page size.
func WithPerPage(n int) APIClientOption {
	return func(c *APIClient) {
		c.perPage = n
	}
}

// NewAPIClient creates a GitHub API client. An empty token gives an
// anonymous client.
func NewAPIClient(token string, opts ...APIClientOption) (*APIClient, error) {
	client := &APIClient{
		authenticated: token != "",
		perPage:       DefaultPerPage,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(client)
	}

	httpClient := client.httpClient
	if token != "" {
		ctx := context.Background()
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client.client = gh.NewClient(httpClient)

	if client.baseURL != "" {
		base := client.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, gmerrors.NewGitHubErrorWithCause("NewAPIClient", "invalid base URL", err)
		}
		client.client.BaseURL = u
	}

	return client, nil
}

// Authenticated reports whether requests carry a token.
func (c *APIClient) Authenticated() bool {
	return c.authenticated
}

// ListUserRepositories fetches one page of the repositories owned by login.
// Page 0 and 1 are both the first page.
func (c *APIClient) ListUserRepositories(ctx context.Context, login string, page int) (*RepositoryPage, error) {
	c.logger.Debug("listing repositories", "login", login, "page", page)

	opts := &gh.RepositoryListByUserOptions{
		Type: "owner",
		Sort: "full_name",
		ListOptions: gh.ListOptions{
			Page:    page,
			PerPage: c.perPage,
		},
	}
	repos, resp, err := c.client.Repositories.ListByUser(ctx, login, opts)
	if err != nil {
		return nil, toGitHubError("ListUserRepositories", resp, err)
	}

	result := &RepositoryPage{
		Repositories: make([]Repository, 0, len(repos)),
		NextPage:     resp.NextPage,
	}
	for _, r := range repos {
		result.Repositories = append(result.Repositories, repositoryFromGitHub(login, r))
	}
	return result, nil
}

// GetRepository fetches a single repository.
func (c *APIClient) GetRepository(ctx context.Context, owner, name string) (*Repository, error) {
	c.logger.Debug("getting repository", "owner", owner, "name", name)

	r, resp, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, toGitHubError("GetRepository", resp, err)
	}
	repo := repositoryFromGitHub(owner, r)
	return &repo, nil
}

func repositoryFromGitHub(login string, r *gh.Repository) Repository {
	owner := r.GetOwner().GetLogin()
	if owner == "" {
		owner = login
	}
	return Repository{
		Owner:    owner,
		Name:     r.GetName(),
		CloneURL: r.GetCloneURL(),
	}
}

func toGitHubError(operation string, resp *gh.Response, err error) error {
	if resp != nil && resp.StatusCode > 0 {
		return gmerrors.NewGitHubErrorWithStatus(operation, resp.StatusCode, err.Error())
	}
	return gmerrors.NewGitHubErrorWithCause(operation, "API request failed", err)
}
