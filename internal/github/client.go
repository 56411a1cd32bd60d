// Package github wraps the GitHub REST API operations reviewmate needs to
// turn an improved snippet into a pull request.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v66/github"
)

// DefaultBase is the branch assumed when a caller gives none.
const DefaultBase = "main"

// ErrFileNotFound is returned by GetFileContent when the path does not
// exist at the requested ref.
var ErrFileNotFound = errors.New("file not found")

// Repository is a repository visible to the authenticated user.
type Repository struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	Description   string `json:"description"`
	Language      string `json:"language"`
	DefaultBranch string `json:"defaultBranch"`
	Private       bool   `json:"private"`
	URL           string `json:"url"`
}

// FileContent is a decoded file plus the blob SHA needed to update it.
type FileContent struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// FileUpdate describes a commit that replaces one file on a branch.
// An empty SHA creates the file.
type FileUpdate struct {
	Content string
	Branch  string
	SHA     string
	Message string
}

// NewPullRequest holds the fields for opening a pull request.
type NewPullRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Head  string `json:"head"`
	Base  string `json:"base"`
}

// PullRequest is a created pull request.
type PullRequest struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	Branch string `json:"branch"`
}

// User is a GitHub account profile.
type User struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatarUrl"`
	HTMLURL     string `json:"htmlUrl"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"publicRepos"`
	Followers   int    `json:"followers"`
}

// Client is the set of remote repository operations. Each is a thin
// pass-through; failures are returned as "failed to <action>: <cause>".
type Client interface {
	ListRepositories(ctx context.Context) ([]Repository, error)
	GetFileContent(ctx context.Context, owner, repo, path, ref string) (*FileContent, error)
	CreateBranch(ctx context.Context, owner, repo, branch, sha string) error
	UpdateFile(ctx context.Context, owner, repo, path string, u FileUpdate) error
	CreatePullRequest(ctx context.Context, owner, repo string, pr NewPullRequest) (*PullRequest, error)
	DefaultBranch(ctx context.Context, owner, repo string) (string, error)
	LatestCommitSHA(ctx context.Context, owner, repo, branch string) (string, error)
	// GetUser looks up login, or the authenticated user when login is "".
	GetUser(ctx context.Context, login string) (*User, error)
}

// RESTClient implements Client with go-github.
type RESTClient struct {
	gh *gh.Client
}

// NewClient returns a RESTClient authenticated with token. An empty token
// makes unauthenticated requests.
func NewClient(token string) *RESTClient {
	c := gh.NewClient(nil)
	if token != "" {
		c = c.WithAuthToken(token)
	}
	return &RESTClient{gh: c}
}

// WithBaseURL points the client at a GitHub Enterprise or test server.
func (c *RESTClient) WithBaseURL(raw string) (*RESTClient, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c.gh.BaseURL = u
	return c, nil
}

func (c *RESTClient) ListRepositories(ctx context.Context) ([]Repository, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var repos []Repository
	for {
		page, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", err)
		}
		for _, r := range page {
			repos = append(repos, Repository{
				Owner:         r.GetOwner().GetLogin(),
				Name:          r.GetName(),
				FullName:      r.GetFullName(),
				Description:   r.GetDescription(),
				Language:      r.GetLanguage(),
				DefaultBranch: r.GetDefaultBranch(),
				Private:       r.GetPrivate(),
				URL:           r.GetHTMLURL(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return repos, nil
}

func (c *RESTClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (*FileContent, error) {
	var opts *gh.RepositoryContentGetOptions
	if ref != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: ref}
	}

	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if isNotFound(err) {
		return nil, fmt.Errorf("failed to get file content: %s: %w", path, ErrFileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file content: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("failed to get file content: %s is a directory", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("failed to get file content: %w", err)
	}
	return &FileContent{Content: content, SHA: file.GetSHA()}, nil
}

func (c *RESTClient) CreateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	ref := &gh.Reference{
		Ref:    gh.Ptr("refs/heads/" + branch),
		Object: &gh.GitObject{SHA: gh.Ptr(sha)},
	}
	if _, _, err := c.gh.Git.CreateRef(ctx, owner, repo, ref); err != nil {
		return fmt.Errorf("failed to create branch: %w", err)
	}
	return nil
}

func (c *RESTClient) UpdateFile(ctx context.Context, owner, repo, path string, u FileUpdate) error {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.Ptr(u.Message),
		Content: []byte(u.Content),
		Branch:  gh.Ptr(u.Branch),
	}
	if u.SHA != "" {
		opts.SHA = gh.Ptr(u.SHA)
	}
	if _, _, err := c.gh.Repositories.UpdateFile(ctx, owner, repo, path, opts); err != nil {
		return fmt.Errorf("failed to update file: %w", err)
	}
	return nil
}

func (c *RESTClient) CreatePullRequest(ctx context.Context, owner, repo string, pr NewPullRequest) (*PullRequest, error) {
	base := pr.Base
	if base == "" {
		base = DefaultBase
	}
	created, _, err := c.gh.PullRequests.Create(ctx, owner, repo, &gh.NewPullRequest{
		Title: gh.Ptr(pr.Title),
		Head:  gh.Ptr(pr.Head),
		Base:  gh.Ptr(base),
		Body:  gh.Ptr(pr.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", err)
	}
	return &PullRequest{
		Number: created.GetNumber(),
		URL:    created.GetHTMLURL(),
		Branch: pr.Head,
	}, nil
}

func (c *RESTClient) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("failed to get default branch: %w", err)
	}
	return r.GetDefaultBranch(), nil
}

func (c *RESTClient) LatestCommitSHA(ctx context.Context, owner, repo, branch string) (string, error) {
	if branch == "" {
		branch = DefaultBase
	}
	b, _, err := c.gh.Repositories.GetBranch(ctx, owner, repo, branch, 1)
	if err != nil {
		return "", fmt.Errorf("failed to get latest commit: %w", err)
	}
	return b.GetCommit().GetSHA(), nil
}

func (c *RESTClient) GetUser(ctx context.Context, login string) (*User, error) {
	u, _, err := c.gh.Users.Get(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &User{
		ID:          u.GetID(),
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		AvatarURL:   u.GetAvatarURL(),
		HTMLURL:     u.GetHTMLURL(),
		Bio:         u.GetBio(),
		PublicRepos: u.GetPublicRepos(),
		Followers:   u.GetFollowers(),
	}, nil
}

func isNotFound(err error) bool {
	var resp *gh.ErrorResponse
	return errors.As(err, &resp) && resp.Response != nil && resp.Response.StatusCode == http.StatusNotFound
}
