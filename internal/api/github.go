package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/joescharf/reviewmate/internal/auth"
	"github.com/joescharf/reviewmate/internal/github"
	"github.com/joescharf/reviewmate/internal/models"
	"github.com/joescharf/reviewmate/internal/store"
)

const stateCookie = "reviewmate_oauth_state"

func (s *Server) githubLogin(w http.ResponseWriter, r *http.Request) {
	if !s.oauth.Configured() {
		writeError(w, http.StatusServiceUnavailable, "GitHub sign-in is not configured")
		return
	}

	state := auth.NewState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/api/github",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
}

// githubCallback completes sign-in and sends the browser back to the
// frontend with either ?token= or ?error=.
func (s *Server) githubCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.redirectFrontend(w, r, "error", e)
		return
	}
	if !s.oauth.Configured() {
		s.redirectFrontend(w, r, "error", "oauth_not_configured")
		return
	}

	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		s.redirectFrontend(w, r, "error", "invalid_state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/api/github", MaxAge: -1})

	code := q.Get("code")
	if code == "" {
		s.redirectFrontend(w, r, "error", "missing_code")
		return
	}

	ctx := r.Context()
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Error("github oauth exchange", "error", err)
		s.redirectFrontend(w, r, "error", "exchange_failed")
		return
	}

	gu, err := s.newGitHub(token).GetUser(ctx, "")
	if err != nil {
		slog.Error("github user lookup", "error", err)
		s.redirectFrontend(w, r, "error", "user_lookup_failed")
		return
	}

	u := &models.User{
		GitHubID:    gu.ID,
		Login:       gu.Login,
		Name:        gu.Name,
		AvatarURL:   gu.AvatarURL,
		AccessToken: token,
	}
	if err := s.store.UpsertUser(ctx, u); err != nil {
		slog.Error("save user", "login", gu.Login, "error", err)
		s.redirectFrontend(w, r, "error", "save_failed")
		return
	}

	session, err := s.issuer.Issue(gu.ID, gu.Login)
	if err != nil {
		slog.Error("issue token", "login", gu.Login, "error", err)
		s.redirectFrontend(w, r, "error", "token_failed")
		return
	}

	slog.Info("github sign-in", "login", gu.Login)
	s.redirectFrontend(w, r, "token", session)
}

func (s *Server) redirectFrontend(w http.ResponseWriter, r *http.Request, key, value string) {
	target := strings.TrimRight(s.cfg.FrontendURL, "/") + "/?" + url.Values{key: {value}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) githubUser(w http.ResponseWriter, r *http.Request) {
	var token string
	if claims, ok := auth.UserFrom(r.Context()); ok {
		if u, err := s.store.GetUser(r.Context(), claims.GitHubID); err == nil {
			token = u.AccessToken
		}
	}

	gu, err := s.newGitHub(token).GetUser(r.Context(), r.PathValue("login"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, gu)
}

// githubFor returns a client acting as the signed-in caller, or writes
// a 401 when there is none.
func (s *Server) githubFor(w http.ResponseWriter, r *http.Request) (github.Client, bool) {
	claims, ok := auth.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	u, err := s.store.GetUser(r.Context(), claims.GitHubID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && u.AccessToken == "") {
		writeError(w, http.StatusUnauthorized, "GitHub account not linked")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return s.newGitHub(u.AccessToken), true
}
