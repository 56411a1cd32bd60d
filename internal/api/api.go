package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/cors"

	"github.com/joescharf/reviewmate/internal/auth"
	"github.com/joescharf/reviewmate/internal/github"
	"github.com/joescharf/reviewmate/internal/llm"
	"github.com/joescharf/reviewmate/internal/store"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// GitHubFactory builds a GitHub client for an access token.
type GitHubFactory func(token string) github.Client

// Config holds HTTP-layer settings.
type Config struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	FrontendURL    string
}

// Server provides the REST API handlers.
type Server struct {
	store     store.Store
	reviewer  llm.Reviewer
	newGitHub GitHubFactory
	oauth     *github.OAuth
	issuer    *auth.Issuer
	cfg       Config
}

// NewServer creates a new API server. A nil factory uses the go-github
// client; a nil oauth or issuer disables sign-in.
func NewServer(s store.Store, reviewer llm.Reviewer, gh GitHubFactory, oauth *github.OAuth, issuer *auth.Issuer, cfg Config) *Server {
	if gh == nil {
		gh = func(token string) github.Client { return github.NewClient(token) }
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		store:     s,
		reviewer:  reviewer,
		newGitHub: gh,
		oauth:     oauth,
		issuer:    issuer,
		cfg:       cfg,
	}
}

// Router returns an http.Handler for the API routes wrapped in the
// request id, recover, logging, CORS and auth middleware.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.health)

	mux.HandleFunc("POST /api/review", s.reviewCode)
	mux.HandleFunc("GET /api/review/history", s.reviewHistory)
	mux.HandleFunc("GET /api/review/{id}", s.getReview)
	mux.HandleFunc("DELETE /api/review/{id}", s.deleteReview)

	mux.HandleFunc("GET /api/github/login", s.githubLogin)
	mux.HandleFunc("GET /api/github/callback", s.githubCallback)
	mux.HandleFunc("GET /api/github/user/{login}", s.githubUser)

	mux.HandleFunc("GET /api/pr/repos", s.listRepos)
	mux.HandleFunc("GET /api/pr/file", s.getFile)
	mux.HandleFunc("POST /api/pr/create", s.createPR)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Route not found"})
	})

	var h http.Handler = mux
	h = s.issuer.Middleware(h)
	h = corsMiddleware(s.cfg.AllowedOrigins).Handler(h)
	h = logMiddleware(h)
	h = recoverMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

func corsMiddleware(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
	})
}

// envelope is the response shape shared by the review, github and pr
// routes.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// decodeBody reads a bounded JSON body into v, writing the error response
// itself when it fails.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "Server is running"})
}
