package metrics

import (
	"path/filepath"
	"strings"
)

var extLanguages = map[string]string{
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".py":    "python",
	".java":  "java",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".c":     "c",
	".h":     "c",
	".cs":    "csharp",
	".go":    "go",
	".rs":    "rust",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".dart":  "dart",
	".swift": "swift",
	".php":   "php",
	".rb":    "ruby",
	".sql":   "sql",
}

// LanguageFromPath guesses the language of a file from its extension.
// Unknown extensions return "".
func LanguageFromPath(path string) string {
	return extLanguages[strings.ToLower(filepath.Ext(path))]
}
