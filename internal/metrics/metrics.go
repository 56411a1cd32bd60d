// Package metrics estimates code quality metrics from raw source text.
//
// The estimates are line-oriented token and bracket counts, not a parse.
// They are language agnostic apart from a couple of issue heuristics.
package metrics

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf16"

	"github.com/joescharf/reviewmate/internal/models"
)

// DefaultLanguage is assumed when no language hint is given.
const DefaultLanguage = "javascript"

const (
	maxComplexity = 50
	maxCognitive  = 50
	longLineLimit = 120
	largeFileLOC  = 300
)

// Each pattern adds one to the cyclomatic estimate per match. "else if"
// also matches the plain "if" pattern and is intentionally counted twice.
var branchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bif\b`),
	regexp.MustCompile(`\belse if\b`),
	regexp.MustCompile(`\bfor\b`),
	regexp.MustCompile(`\bwhile\b`),
	regexp.MustCompile(`\bswitch\b`),
	regexp.MustCompile(`\bcase\b`),
	regexp.MustCompile(`\bcatch\b`),
	regexp.MustCompile(`&&`),
	regexp.MustCompile(`\|\|`),
	regexp.MustCompile(`\?`),
}

var controlKeyword = regexp.MustCompile(`\bif\b|\bfor\b|\bwhile\b`)

// Compute returns the metrics report for code. An empty language means
// DefaultLanguage.
func Compute(code, language string) models.CodeMetrics {
	if language == "" {
		language = DefaultLanguage
	}
	lines := strings.Split(code, "\n")

	loc := countLines(lines)
	complexity := cyclomatic(code)
	cognitive := cognitiveComplexity(lines)
	issues := detectIssues(code, lines, language, loc)

	return models.CodeMetrics{
		LinesOfCode:          loc,
		ComplexityScore:      complexity,
		CognitiveComplexity:  cognitive,
		IssuesFound:          issues,
		QualityRating:        qualityRating(complexity, cognitive, issues),
		MaintainabilityIndex: maintainability(loc, complexity, issues),
	}
}

// countLines counts lines that are not blank after trimming whitespace.
func countLines(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}

// cyclomatic approximates cyclomatic complexity by counting branch tokens.
func cyclomatic(code string) int {
	complexity := 1
	for _, p := range branchPatterns {
		complexity += len(p.FindAllStringIndex(code, -1))
	}
	return min(complexity, maxComplexity)
}

// cognitiveComplexity weights control keywords by a rough nesting depth.
// A line moves the depth by at most one step in each direction, however
// many brackets it holds.
func cognitiveComplexity(lines []string) int {
	cognitive, nesting := 0, 0
	for _, l := range lines {
		if strings.ContainsAny(l, "{([") {
			nesting++
		}
		if strings.ContainsAny(l, "})]") {
			nesting = max(0, nesting-1)
		}
		if controlKeyword.MatchString(l) {
			cognitive += 1 + nesting
		}
	}
	return min(cognitive, maxCognitive)
}

// detectIssues counts heuristic issues. Each check contributes at most one.
func detectIssues(code string, lines []string, language string, loc int) int {
	issues := 0
	for _, l := range lines {
		if lineLength(l) > longLineLimit {
			issues++
			break
		}
	}
	if loc > largeFileLOC {
		issues++
	}
	if language == "javascript" && strings.Contains(code, "var ") {
		issues++
	}
	if language == "java" && !strings.Contains(code, "class") {
		issues++
	}
	return issues
}

// lineLength counts UTF-16 code units, so astral characters count twice.
func lineLength(l string) int {
	return len(utf16.Encode([]rune(l)))
}

// qualityRating maps the unclamped quality score to a letter grade.
func qualityRating(complexity, cognitive, issues int) models.QualityRating {
	score := 100 - complexity*2 - cognitive - issues*5
	switch {
	case score >= 90:
		return models.QualityA
	case score >= 75:
		return models.QualityB
	case score >= 60:
		return models.QualityC
	default:
		return models.QualityD
	}
}

// maintainability returns the maintainability index clamped to 0-100.
// Rounding is half away from zero (math.Round). Input with no code lines
// and no issues scores 100.
func maintainability(loc, complexity, issues int) int {
	if loc == 0 && issues == 0 {
		return 100
	}
	size := math.Max(1, float64(loc)+1)
	index := 100 - float64(complexity)*2 - float64(issues)*5 - math.Log2(size)*5
	index = math.Max(0, math.Min(100, index))
	return int(math.Round(index))
}
