package llm

// AllowedLanguages are the language hints accepted from callers.
var AllowedLanguages = []string{
	"javascript", "python", "java", "cpp", "c", "csharp", "go", "rust",
	"typescript", "kotlin", "dart", "swift", "php", "ruby", "sql",
}

// NormalizeLanguage returns lang when it is an allowed hint, otherwise ""
// (which asks the model to detect the language). "auto" is treated as
// unset.
func NormalizeLanguage(lang string) string {
	for _, l := range AllowedLanguages {
		if l == lang {
			return lang
		}
	}
	return ""
}
