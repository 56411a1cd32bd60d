package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joescharf/reviewmate/internal/auth"
	"github.com/joescharf/reviewmate/internal/llm"
	"github.com/joescharf/reviewmate/internal/metrics"
	"github.com/joescharf/reviewmate/internal/models"
	"github.com/joescharf/reviewmate/internal/store"
)

type reviewRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// reviewResponse is the AI result plus metrics and the stored id, which
// is null for anonymous callers.
type reviewResponse struct {
	*llm.Result
	Metrics models.CodeMetrics `json:"metrics"`
	ID      *string            `json:"_id"`
}

func (s *Server) reviewCode(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "Code is required")
		return
	}

	lang := llm.NormalizeLanguage(req.Language)
	result := s.reviewer.ReviewCode(r.Context(), req.Code, lang)
	result.OriginalCode = req.Code

	metricsLang := lang
	if metricsLang == "" {
		metricsLang = llm.NormalizeLanguage(result.DetectedLanguage)
	}
	m := metrics.Compute(req.Code, metricsLang)

	resp := reviewResponse{Result: result, Metrics: m}

	if user, ok := auth.UserFrom(r.Context()); ok {
		rev := &models.Review{
			UserID:       user.UserID(),
			OriginalCode: req.Code,
			ImprovedCode: result.ImprovedCode,
			Explanation:  result.Explanation,
			Category:     string(result.Category),
			Severity:     string(result.Severity),
			Language:     result.DetectedLanguage,
			Framework:    result.Framework,
			Metrics:      m,
		}
		if err := s.store.CreateReview(r.Context(), rev); err != nil {
			slog.Error("save review", "user", user.Login, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.ID = &rev.ID
	}

	writeData(w, http.StatusOK, resp)
}

func (s *Server) reviewHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		writeData(w, http.StatusOK, []*models.Review{})
		return
	}

	reviews, err := s.store.ListReviewsByUser(r.Context(), user.UserID(), store.DefaultListLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reviews == nil {
		reviews = []*models.Review{}
	}
	writeData(w, http.StatusOK, reviews)
}

func (s *Server) getReview(w http.ResponseWriter, r *http.Request) {
	rev, err := s.store.GetReview(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, http.StatusOK, rev)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, envelope{Success: false})
		return
	}

	id := r.PathValue("id")
	rev, err := s.store.GetReview(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, envelope{Success: false})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rev.UserID != user.UserID() {
		writeJSON(w, http.StatusForbidden, envelope{Success: false})
		return
	}

	if err := s.store.DeleteReview(r.Context(), id); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}
