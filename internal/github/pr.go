package github

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// BranchPrefix namespaces branches created for review pull requests.
const BranchPrefix = "reviewmate/"

// PRRequest asks for a single-file change to be proposed as a pull request.
type PRRequest struct {
	Owner   string `json:"owner"`
	Repo    string `json:"repo"`
	Path    string `json:"path"`
	Content string `json:"content"`
	Title   string `json:"title"`
	Body    string `json:"body,omitempty"`
	Branch  string `json:"branch,omitempty"`
	Base    string `json:"base,omitempty"`
	Message string `json:"message,omitempty"`
}

// Validate reports the first missing required field.
func (r *PRRequest) Validate() error {
	switch {
	case r.Owner == "":
		return errors.New("owner is required")
	case r.Repo == "":
		return errors.New("repo is required")
	case r.Path == "":
		return errors.New("path is required")
	case r.Title == "":
		return errors.New("title is required")
	}
	return nil
}

// OpenPullRequest commits req.Content to req.Path on a fresh branch and
// opens a pull request against the base branch. Base defaults to the
// repository's default branch; the branch name is generated when empty.
func OpenPullRequest(ctx context.Context, c Client, req PRRequest) (*PullRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	base := req.Base
	if base == "" {
		b, err := c.DefaultBranch(ctx, req.Owner, req.Repo)
		if err != nil {
			return nil, err
		}
		base = b
	}

	sha, err := c.LatestCommitSHA(ctx, req.Owner, req.Repo, base)
	if err != nil {
		return nil, err
	}

	branch := req.Branch
	if branch == "" {
		branch = NewBranchName()
	}
	if err := c.CreateBranch(ctx, req.Owner, req.Repo, branch, sha); err != nil {
		return nil, err
	}

	// A missing file is created rather than updated.
	var fileSHA string
	f, err := c.GetFileContent(ctx, req.Owner, req.Repo, req.Path, branch)
	switch {
	case err == nil:
		fileSHA = f.SHA
	case !errors.Is(err, ErrFileNotFound):
		return nil, err
	}

	msg := req.Message
	if msg == "" {
		msg = fmt.Sprintf("reviewmate: improve %s", req.Path)
	}
	err = c.UpdateFile(ctx, req.Owner, req.Repo, req.Path, FileUpdate{
		Content: req.Content,
		Branch:  branch,
		SHA:     fileSHA,
		Message: msg,
	})
	if err != nil {
		return nil, err
	}

	return c.CreatePullRequest(ctx, req.Owner, req.Repo, NewPullRequest{
		Title: req.Title,
		Body:  req.Body,
		Head:  branch,
		Base:  base,
	})
}

// NewBranchName returns a unique branch name under BranchPrefix.
func NewBranchName() string {
	return BranchPrefix + strings.ToLower(ulid.Make().String())
}
