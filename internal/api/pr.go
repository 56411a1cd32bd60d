package api

import (
	"errors"
	"net/http"

	"github.com/joescharf/reviewmate/internal/github"
)

func (s *Server) listRepos(w http.ResponseWriter, r *http.Request) {
	gc, ok := s.githubFor(w, r)
	if !ok {
		return
	}

	repos, err := gc.ListRepositories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if repos == nil {
		repos = []github.Repository{}
	}
	writeData(w, http.StatusOK, repos)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner, repo, path := q.Get("owner"), q.Get("repo"), q.Get("path")
	if owner == "" || repo == "" || path == "" {
		writeError(w, http.StatusBadRequest, "owner, repo and path are required")
		return
	}

	gc, ok := s.githubFor(w, r)
	if !ok {
		return
	}

	f, err := gc.GetFileContent(r.Context(), owner, repo, path, q.Get("ref"))
	if errors.Is(err, github.ErrFileNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, f)
}

func (s *Server) createPR(w http.ResponseWriter, r *http.Request) {
	var req github.PRRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	gc, ok := s.githubFor(w, r)
	if !ok {
		return
	}

	pr, err := github.OpenPullRequest(r.Context(), gc, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusCreated, pr)
}
