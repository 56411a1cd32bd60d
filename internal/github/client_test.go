package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-token").WithBaseURL(srv.URL)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListRepositories_Paginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", `</user/repos?page=2&per_page=100>; rel="next"`)
			writeJSON(w, http.StatusOK, []map[string]any{
				{"name": "one", "full_name": "octo/one", "owner": map[string]any{"login": "octo"}, "default_branch": "main", "private": true},
			})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"name": "two", "full_name": "octo/two", "owner": map[string]any{"login": "octo"}, "default_branch": "develop"},
		})
	})

	repos, err := newTestClient(t, mux).ListRepositories(context.Background())
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "octo", repos[0].Owner)
	assert.Equal(t, "one", repos[0].Name)
	assert.True(t, repos[0].Private)
	assert.Equal(t, "develop", repos[1].DefaultBranch)
}

func TestGetFileContent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "octo", r.PathValue("owner"))
		assert.Equal(t, "src/app.js", r.PathValue("path"))
		assert.Equal(t, "feature", r.URL.Query().Get("ref"))
		writeJSON(w, http.StatusOK, map[string]any{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("var x = 1;")),
			"sha":      "blob123",
			"path":     "src/app.js",
		})
	})

	f, err := newTestClient(t, mux).GetFileContent(context.Background(), "octo", "one", "src/app.js", "feature")
	require.NoError(t, err)
	assert.Equal(t, "var x = 1;", f.Content)
	assert.Equal(t, "blob123", f.SHA)
}

func TestGetFileContent_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Not Found"})
	})

	_, err := newTestClient(t, mux).GetFileContent(context.Background(), "octo", "one", "nope.js", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Contains(t, err.Error(), "failed to get file content")
}

func TestGetFileContent_ServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
	})

	_, err := newTestClient(t, mux).GetFileContent(context.Background(), "octo", "one", "app.js", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrFileNotFound)
}

func TestCreateBranch(t *testing.T) {
	var body map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/refs", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, map[string]any{
			"ref":    body["ref"],
			"object": map[string]any{"sha": body["sha"], "type": "commit"},
		})
	})

	err := newTestClient(t, mux).CreateBranch(context.Background(), "octo", "one", "reviewmate/abc", "commit123")
	require.NoError(t, err)
	assert.Equal(t, "refs/heads/reviewmate/abc", body["ref"])
	assert.Equal(t, "commit123", body["sha"])
}

func TestUpdateFile(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, map[string]any{
			"content": map[string]any{"path": r.PathValue("path")},
			"commit":  map[string]any{"sha": "newcommit"},
		})
	})

	err := newTestClient(t, mux).UpdateFile(context.Background(), "octo", "one", "src/app.js", FileUpdate{
		Content: "const x = 1;",
		Branch:  "reviewmate/abc",
		SHA:     "blob123",
		Message: "improve",
	})
	require.NoError(t, err)
	assert.Equal(t, "improve", body["message"])
	assert.Equal(t, "reviewmate/abc", body["branch"])
	assert.Equal(t, "blob123", body["sha"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("const x = 1;")), body["content"])
}

func TestUpdateFile_NewFileOmitsSHA(t *testing.T) {
	var body map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, map[string]any{"content": map[string]any{}})
	})

	err := newTestClient(t, mux).UpdateFile(context.Background(), "octo", "one", "new.js", FileUpdate{Content: "x", Branch: "b", Message: "m"})
	require.NoError(t, err)
	_, hasSHA := body["sha"]
	assert.False(t, hasSHA)
}

func TestCreatePullRequest_DefaultsBase(t *testing.T) {
	var body map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/{owner}/{repo}/pulls", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusCreated, map[string]any{
			"number":   7,
			"html_url": "https://github.com/octo/one/pull/7",
		})
	})

	pr, err := newTestClient(t, mux).CreatePullRequest(context.Background(), "octo", "one", NewPullRequest{
		Title: "Improve app.js",
		Head:  "reviewmate/abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "main", body["base"])
	assert.Equal(t, "reviewmate/abc", body["head"])
	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, "https://github.com/octo/one/pull/7", pr.URL)
	assert.Equal(t, "reviewmate/abc", pr.Branch)
}

func TestDefaultBranch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"name": "one", "default_branch": "trunk"})
	})

	b, err := newTestClient(t, mux).DefaultBranch(context.Background(), "octo", "one")
	require.NoError(t, err)
	assert.Equal(t, "trunk", b)
}

func TestLatestCommitSHA(t *testing.T) {
	var gotBranch string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}/branches/{branch}", func(w http.ResponseWriter, r *http.Request) {
		gotBranch = r.PathValue("branch")
		writeJSON(w, http.StatusOK, map[string]any{
			"name":   gotBranch,
			"commit": map[string]any{"sha": "head123"},
		})
	})

	sha, err := newTestClient(t, mux).LatestCommitSHA(context.Background(), "octo", "one", "")
	require.NoError(t, err)
	assert.Equal(t, "head123", sha)
	assert.Equal(t, "main", gotBranch, "branch defaults to main")
}

func TestGetUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1001, "login": "me", "name": "Me"})
	})
	mux.HandleFunc("GET /users/{login}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "login": r.PathValue("login"), "public_repos": 8, "followers": 3})
	})
	c := newTestClient(t, mux)

	me, err := c.GetUser(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1001), me.ID)
	assert.Equal(t, "me", me.Login)

	other, err := c.GetUser(context.Background(), "octocat")
	require.NoError(t, err)
	assert.Equal(t, "octocat", other.Login)
	assert.Equal(t, 8, other.PublicRepos)
	assert.Equal(t, 3, other.Followers)
}

func TestErrorsAreDescriptive(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	_, err := c.DefaultBranch(ctx, "o", "r")
	assert.ErrorContains(t, err, "failed to get default branch")

	_, err = c.LatestCommitSHA(ctx, "o", "r", "main")
	assert.ErrorContains(t, err, "failed to get latest commit")

	err = c.CreateBranch(ctx, "o", "r", "b", "s")
	assert.ErrorContains(t, err, "failed to create branch")

	_, err = c.GetUser(ctx, "x")
	assert.ErrorContains(t, err, "failed to get user")
}

func TestWithBaseURL_AddsTrailingSlash(t *testing.T) {
	c, err := NewClient("").WithBaseURL("http://example.test/api/v3")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/api/v3/", c.gh.BaseURL.String())
}
