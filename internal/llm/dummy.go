package llm

import "context"

// Dummy returns a canned review without calling any model.
type Dummy struct{}

func (Dummy) ReviewCode(_ context.Context, code, language string) *Result {
	return &Result{
		OriginalCode:     code,
		ImprovedCode:     code,
		Explanation:      "This is a test improvement",
		Improvements:     []string{},
		Category:         CategoryBestPractices,
		Severity:         SeverityMinor,
		DetectedLanguage: "javascript",
		Framework:        "None",
		Language:         firstNonEmpty(language, "auto-detected"),
	}
}
