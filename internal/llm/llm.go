package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Category classifies the main kind of improvement a review made.
type Category string

const (
	CategoryBestPractices Category = "Best Practices"
	CategoryPerformance   Category = "Better Performance"
	CategoryBugFix        Category = "Bug Fix"
	CategorySecurity      Category = "Security"
	CategoryCodeStyle     Category = "Code Style"
)

// Categories lists every valid review category.
var Categories = []Category{
	CategoryBestPractices,
	CategoryPerformance,
	CategoryBugFix,
	CategorySecurity,
	CategoryCodeStyle,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Severity is how serious the problems found in the code were.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

// Result is the structured outcome of an AI code review.
type Result struct {
	OriginalCode     string   `json:"originalCode"`
	ImprovedCode     string   `json:"improvedCode"`
	Explanation      string   `json:"explanation"`
	Improvements     []string `json:"improvements"`
	Category         Category `json:"category"`
	Severity         Severity `json:"severity"`
	DetectedLanguage string   `json:"detectedLanguage"`
	Framework        string   `json:"framework"`
	Language         string   `json:"language"`
}

// Reviewer reviews a code snippet. Implementations never fail: problems
// are reported through a fallback Result that echoes the original code.
type Reviewer interface {
	ReviewCode(ctx context.Context, code, language string) *Result
}

// generator turns a system and user prompt into raw model text.
type generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Name() string
}

const (
	explanationParseFailed = "AI could not parse the response due to syntax or formatting issues in the code."
	explanationFailed      = "The code contains syntax or structural errors and could not be fully analyzed by AI."
	explanationDefault     = "Issues detected in the submitted code."
)

// Client is a Reviewer backed by a hosted model.
type Client struct {
	gen     generator
	timeout time.Duration
}

// ReviewCode sends code to the model and returns the parsed review.
// An empty language asks the model to detect it.
func (c *Client) ReviewCode(ctx context.Context, code, language string) *Result {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	system, user := buildPrompt(code, language)
	text, err := c.gen.Generate(ctx, system, user)
	if err != nil {
		slog.Error("ai review failed", "provider", c.gen.Name(), "error", err)
		return fallback(code, language, explanationFailed)
	}

	resp, err := parseResponse(text)
	if err != nil {
		slog.Warn("ai review response unparseable", "provider", c.gen.Name(), "error", err)
		return fallback(code, language, explanationParseFailed)
	}

	return resp.normalize(code, language)
}

// buildPrompt constructs the system and user prompts for a code review.
func buildPrompt(code, language string) (system string, user string) {
	cats := make([]string, len(Categories))
	for i, c := range Categories {
		cats[i] = string(c)
	}

	system = `You are an expert code reviewer. Analyze the provided code and return an improved version.

CRITICAL RULES:
1. Return ONLY improved code with ZERO comments
2. Accept ANY code, even broken or incomplete
3. NEVER refuse to review

RESPONSE FORMAT (ONLY JSON):
{
  "detectedLanguage": "` + strings.Join(AllowedLanguages, "|") + `|other",
  "framework": "React|Vue|Angular|Next.js|Express|Django|Flask|FastAPI|Spring|Laravel|Rails|None|Other",
  "improvedCode": "CODE ONLY",
  "explanation": "Explanation here",
  "improvements": ["short description of each change"],
  "category": "` + strings.Join(cats, "|") + `",
  "severity": "minor|moderate|major"
}

Return valid JSON only, no markdown fencing or explanation.`

	var sb strings.Builder
	if language != "" {
		sb.WriteString("Language: ")
		sb.WriteString(language)
		sb.WriteString("\n\n")
	}
	sb.WriteString("CODE:\n")
	sb.WriteString(code)
	user = sb.String()
	return
}

// modelResponse is the JSON shape the prompt asks the model for.
type modelResponse struct {
	DetectedLanguage string            `json:"detectedLanguage"`
	Framework        string            `json:"framework"`
	ImprovedCode     string            `json:"improvedCode"`
	Explanation      string            `json:"explanation"`
	Improvements     []json.RawMessage `json:"improvements"`
	Category         string            `json:"category"`
	Severity         string            `json:"severity"`
}

// parseResponse extracts the JSON object from raw model output.
func parseResponse(text string) (*modelResponse, error) {
	text = stripFences(text)
	if text == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("parse model response as JSON: %w", err)
	}
	return &resp, nil
}

// stripFences removes markdown code fences and any prose around the
// outermost JSON object.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		} else {
			text = ""
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	if !strings.HasPrefix(text, "{") {
		start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
		if start >= 0 && end > start {
			text = text[start : end+1]
		}
	}
	return text
}

// normalize fills defaults and coerces invalid enum values.
func (m *modelResponse) normalize(code, language string) *Result {
	r := &Result{
		OriginalCode:     code,
		ImprovedCode:     m.ImprovedCode,
		Explanation:      m.Explanation,
		Improvements:     flattenImprovements(m.Improvements),
		Category:         Category(m.Category),
		Severity:         Severity(m.Severity),
		DetectedLanguage: firstNonEmpty(m.DetectedLanguage, language, "unknown"),
		Framework:        firstNonEmpty(m.Framework, "None"),
	}
	if r.ImprovedCode == "" {
		r.ImprovedCode = code
	}
	if r.Explanation == "" {
		r.Explanation = explanationDefault
	}
	if !r.Category.Valid() {
		r.Category = CategoryBugFix
	}
	if r.Severity == "" {
		r.Severity = SeverityMinor
	}
	r.Language = r.DetectedLanguage
	return r
}

// flattenImprovements accepts both plain strings and arbitrary JSON
// values, which some models emit as objects.
func flattenImprovements(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		out = append(out, string(item))
	}
	return out
}

func fallback(code, language, explanation string) *Result {
	lang := firstNonEmpty(language, "unknown")
	return &Result{
		OriginalCode:     code,
		ImprovedCode:     code,
		Explanation:      explanation,
		Improvements:     []string{},
		Category:         CategoryBugFix,
		Severity:         SeverityMajor,
		DetectedLanguage: lang,
		Framework:        "None",
		Language:         lang,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
