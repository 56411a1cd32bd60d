package models

import "time"

// Review records a single AI review of a submitted code snippet.
type Review struct {
	ID           string      `json:"_id"`
	UserID       string      `json:"userId"`
	OriginalCode string      `json:"originalCode"`
	ImprovedCode string      `json:"improvedCode"`
	Explanation  string      `json:"explanation"`
	Category     string      `json:"category"`
	Severity     string      `json:"severity"`
	Language     string      `json:"language"`
	Framework    string      `json:"framework"`
	Metrics      CodeMetrics `json:"metrics"`
	CreatedAt    time.Time   `json:"createdAt"`
}
