package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/reviewmate/internal/llm"
	"github.com/joescharf/reviewmate/internal/metrics"
	"github.com/joescharf/reviewmate/internal/models"
	"github.com/joescharf/reviewmate/internal/store"
)

// LocalUser is the default owner of reviews saved through MCP.
const LocalUser = models.LocalUserID

// Server exposes metrics, AI review and review history as MCP tools.
type Server struct {
	store    store.Store
	reviewer llm.Reviewer
	version  string
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store, reviewer llm.Reviewer, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{store: s, reviewer: reviewer, version: version}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("reviewmate", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.metricsTool())
	srv.AddTool(s.reviewTool())
	srv.AddTool(s.historyTool())
	srv.AddTool(s.showReviewTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// reviewmate_metrics
func (s *Server) metricsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("reviewmate_metrics",
		mcp.WithDescription("Compute heuristic code metrics for a snippet: lines of code, cyclomatic and cognitive complexity (1-50 / 0-50), issues found, quality rating A-D and maintainability index 0-100."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source code to analyze")),
		mcp.WithString("language", mcp.Description("Language identifier, e.g. javascript, java, python (default javascript)")),
	)
	return tool, s.handleMetrics
}

func (s *Server) handleMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError("code is required"), nil
	}
	lang := llm.NormalizeLanguage(strings.ToLower(request.GetString("language", "")))

	return jsonResult(metrics.Compute(code, lang))
}

// reviewmate_review
func (s *Server) reviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("reviewmate_review",
		mcp.WithDescription("Run an AI code review. Returns the improved code, an explanation, category, severity, detected language and the metrics of the original code."),
		mcp.WithString("code", mcp.Required(), mcp.Description("Source code to review")),
		mcp.WithString("language", mcp.Description("Language hint; omit or pass 'auto' to detect")),
		mcp.WithBoolean("save", mcp.Description("Store the review in history under the local user")),
	)
	return tool, s.handleReview
}

func (s *Server) handleReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil || strings.TrimSpace(code) == "" {
		return mcp.NewToolResultError("code is required"), nil
	}
	lang := llm.NormalizeLanguage(strings.ToLower(request.GetString("language", "")))

	result := s.reviewer.ReviewCode(ctx, code, lang)
	metricsLang := lang
	if metricsLang == "" {
		metricsLang = llm.NormalizeLanguage(result.DetectedLanguage)
	}
	m := metrics.Compute(code, metricsLang)

	out := struct {
		*llm.Result
		Metrics models.CodeMetrics `json:"metrics"`
		ID      string             `json:"_id,omitempty"`
	}{Result: result, Metrics: m}

	if request.GetBool("save", false) {
		rev := &models.Review{
			UserID:       LocalUser,
			OriginalCode: code,
			ImprovedCode: result.ImprovedCode,
			Explanation:  result.Explanation,
			Category:     string(result.Category),
			Severity:     string(result.Severity),
			Language:     result.DetectedLanguage,
			Framework:    result.Framework,
			Metrics:      m,
		}
		if err := s.store.CreateReview(ctx, rev); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save review: %v", err)), nil
		}
		out.ID = rev.ID
	}

	return jsonResult(out)
}

// reviewmate_history
func (s *Server) historyTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("reviewmate_history",
		mcp.WithDescription("List stored reviews newest first. Returns id, user, language, category, severity, quality rating, maintainability index and creation time."),
		mcp.WithString("user_id", mcp.Description("Owner of the reviews (default: local)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of reviews (default 50)")),
	)
	return tool, s.handleHistory
}

type reviewSummary struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Language        string    `json:"language"`
	Category        string    `json:"category"`
	Severity        string    `json:"severity"`
	QualityRating   string    `json:"qualityRating"`
	Maintainability int       `json:"maintainabilityIndex"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", LocalUser)
	limit := request.GetInt("limit", store.DefaultListLimit)

	reviews, err := s.store.ListReviewsByUser(ctx, userID, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reviews: %v", err)), nil
	}

	out := make([]reviewSummary, len(reviews))
	for i, r := range reviews {
		out[i] = reviewSummary{
			ID:              r.ID,
			UserID:          r.UserID,
			Language:        r.Language,
			Category:        r.Category,
			Severity:        r.Severity,
			QualityRating:   string(r.Metrics.QualityRating),
			Maintainability: r.Metrics.MaintainabilityIndex,
			CreatedAt:       r.CreatedAt,
		}
	}
	return jsonResult(out)
}

// reviewmate_show_review
func (s *Server) showReviewTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("reviewmate_show_review",
		mcp.WithDescription("Get a stored review by id, including original and improved code."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Review id")),
	)
	return tool, s.handleShowReview
}

func (s *Server) handleShowReview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id is required"), nil
	}

	r, err := s.store.GetReview(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("review not found: %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get review: %v", err)), nil
	}
	return jsonResult(r)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
