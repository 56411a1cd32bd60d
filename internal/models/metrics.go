package models

// QualityRating is a coarse letter grade derived from the metrics score.
type QualityRating string

const (
	QualityA QualityRating = "A"
	QualityB QualityRating = "B"
	QualityC QualityRating = "C"
	QualityD QualityRating = "D"
)

// CodeMetrics is the heuristic metrics report computed for a code snippet.
type CodeMetrics struct {
	LinesOfCode          int           `json:"linesOfCode"`
	ComplexityScore      int           `json:"complexityScore"`     // 1-50
	CognitiveComplexity  int           `json:"cognitiveComplexity"` // 0-50
	IssuesFound          int           `json:"issuesFound"`
	QualityRating        QualityRating `json:"qualityRating"`
	MaintainabilityIndex int           `json:"maintainabilityIndex"` // 0-100
}
