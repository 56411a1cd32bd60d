package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records calls and serves canned values.
type fakeClient struct {
	defaultBranch string
	headSHA       string
	file          *FileContent
	fileErr       error
	branchErr     error

	calls       []string
	gotBaseRef  string
	gotBranch   string
	gotBranchAt string
	gotUpdate   FileUpdate
	gotPR       NewPullRequest
}

func (f *fakeClient) ListRepositories(ctx context.Context) ([]Repository, error) {
	return nil, nil
}

func (f *fakeClient) GetFileContent(ctx context.Context, owner, repo, path, ref string) (*FileContent, error) {
	f.calls = append(f.calls, "get-file")
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	return f.file, nil
}

func (f *fakeClient) CreateBranch(ctx context.Context, owner, repo, branch, sha string) error {
	f.calls = append(f.calls, "create-branch")
	f.gotBranch, f.gotBranchAt = branch, sha
	return f.branchErr
}

func (f *fakeClient) UpdateFile(ctx context.Context, owner, repo, path string, u FileUpdate) error {
	f.calls = append(f.calls, "update-file")
	f.gotUpdate = u
	return nil
}

func (f *fakeClient) CreatePullRequest(ctx context.Context, owner, repo string, pr NewPullRequest) (*PullRequest, error) {
	f.calls = append(f.calls, "create-pr")
	f.gotPR = pr
	return &PullRequest{Number: 1, URL: "https://github.com/o/r/pull/1", Branch: pr.Head}, nil
}

func (f *fakeClient) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	f.calls = append(f.calls, "default-branch")
	return f.defaultBranch, nil
}

func (f *fakeClient) LatestCommitSHA(ctx context.Context, owner, repo, branch string) (string, error) {
	f.calls = append(f.calls, "latest-commit")
	f.gotBaseRef = branch
	return f.headSHA, nil
}

func (f *fakeClient) GetUser(ctx context.Context, login string) (*User, error) {
	return &User{Login: login}, nil
}

func validRequest() PRRequest {
	return PRRequest{Owner: "o", Repo: "r", Path: "src/app.js", Content: "const x = 1;", Title: "Improve app.js"}
}

func TestOpenPullRequest_FullFlow(t *testing.T) {
	f := &fakeClient{defaultBranch: "develop", headSHA: "head1", file: &FileContent{SHA: "blob1"}}

	pr, err := OpenPullRequest(context.Background(), f, validRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"default-branch", "latest-commit", "create-branch", "get-file", "update-file", "create-pr"}, f.calls)
	assert.Equal(t, "develop", f.gotBaseRef)
	assert.True(t, strings.HasPrefix(f.gotBranch, BranchPrefix))
	assert.Equal(t, "head1", f.gotBranchAt)
	assert.Equal(t, "blob1", f.gotUpdate.SHA)
	assert.Equal(t, f.gotBranch, f.gotUpdate.Branch)
	assert.Equal(t, "reviewmate: improve src/app.js", f.gotUpdate.Message)
	assert.Equal(t, "develop", f.gotPR.Base)
	assert.Equal(t, f.gotBranch, f.gotPR.Head)
	assert.Equal(t, f.gotBranch, pr.Branch)
}

func TestOpenPullRequest_ExplicitBaseAndBranch(t *testing.T) {
	f := &fakeClient{headSHA: "head1", file: &FileContent{SHA: "blob1"}}
	req := validRequest()
	req.Base = "release"
	req.Branch = "fix/app"
	req.Message = "custom"

	_, err := OpenPullRequest(context.Background(), f, req)
	require.NoError(t, err)

	assert.NotContains(t, f.calls, "default-branch")
	assert.Equal(t, "release", f.gotBaseRef)
	assert.Equal(t, "fix/app", f.gotBranch)
	assert.Equal(t, "custom", f.gotUpdate.Message)
}

func TestOpenPullRequest_NewFile(t *testing.T) {
	f := &fakeClient{defaultBranch: "main", headSHA: "h", fileErr: fmt.Errorf("failed to get file content: %w", ErrFileNotFound)}

	_, err := OpenPullRequest(context.Background(), f, validRequest())
	require.NoError(t, err)
	assert.Empty(t, f.gotUpdate.SHA)
}

func TestOpenPullRequest_FileLookupError(t *testing.T) {
	f := &fakeClient{defaultBranch: "main", headSHA: "h", fileErr: errors.New("failed to get file content: 401 Bad credentials")}

	_, err := OpenPullRequest(context.Background(), f, validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad credentials")
	assert.NotContains(t, f.calls, "update-file")
	assert.NotContains(t, f.calls, "create-pr")
}

func TestOpenPullRequest_StopsOnError(t *testing.T) {
	f := &fakeClient{defaultBranch: "main", headSHA: "h", branchErr: errors.New("failed to create branch: exists")}

	_, err := OpenPullRequest(context.Background(), f, validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create branch")
	assert.NotContains(t, f.calls, "update-file")
	assert.NotContains(t, f.calls, "create-pr")
}

func TestPRRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PRRequest)
		want   string
	}{
		{"owner", func(r *PRRequest) { r.Owner = "" }, "owner is required"},
		{"repo", func(r *PRRequest) { r.Repo = "" }, "repo is required"},
		{"path", func(r *PRRequest) { r.Path = "" }, "path is required"},
		{"title", func(r *PRRequest) { r.Title = "" }, "title is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			assert.EqualError(t, req.Validate(), tt.want)
		})
	}

	req := validRequest()
	assert.NoError(t, req.Validate())
}

func TestNewBranchName(t *testing.T) {
	a, b := NewBranchName(), NewBranchName()
	assert.True(t, strings.HasPrefix(a, BranchPrefix))
	assert.Len(t, a, len(BranchPrefix)+26)
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.ToLower(a), a)
}
