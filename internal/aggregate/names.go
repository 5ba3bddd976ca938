package aggregate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var languageAliases = map[string]string{
	"javascript":      "JavaScript",
	"typescript":      "TypeScript",
	"python":          "Python",
	"java":            "Java",
	"csharp":          "C#",
	"c#":              "C#",
	"html":            "HTML",
	"css":             "CSS",
	"json":            "JSON",
	"sql":             "SQL",
	"go":              "Go",
	"rust":            "Rust",
	"php":             "PHP",
	"ruby":            "Ruby",
	"dart":            "Dart",
	"kotlin":          "Kotlin",
	"swift":           "Swift",
	"yaml":            "YAML",
	"yml":             "YAML",
	"xml":             "XML",
	"markdown":        "Markdown",
	"md":              "Markdown",
	"javascriptreact": "JavaScript React",
	"jsx":             "JavaScript React",
	"typescriptreact": "TypeScript React",
	"tsx":             "TypeScript React",
	"dotenv":          "Environment Files",
	".env":            "Environment Files",
	"dockerfile":      "Dockerfile",
	"docker":          "Dockerfile",
	"cplusplus":       "C++",
	"c++":             "C++",
	"cpp":             "C++",
	"shell":           "Shell",
	"bash":            "Shell",
	"sh":              "Shell",
	"powershell":      "PowerShell",
	"ps1":             "PowerShell",
	"r":               "R",
	"vue":             "Vue.js",
	"vuejs":           "Vue.js",
	"scss":            "Sass/SCSS",
	"sass":            "Sass/SCSS",
	"less":            "Less",
}

// NormalizeLanguage folds editor language ids onto one display name.
// Unknown names keep their spelling with the first letter upper-cased.
func NormalizeLanguage(name string) string {
	trimmed := strings.TrimSpace(name)
	if alias, ok := languageAliases[strings.ToLower(trimmed)]; ok {
		return alias
	}
	r, size := utf8.DecodeRuneInString(trimmed)
	if r == utf8.RuneError {
		return trimmed
	}
	return string(unicode.ToUpper(r)) + trimmed[size:]
}

// NormalizeLanguages renames every row with NormalizeLanguage.
func NormalizeLanguages(rows []LanguageDaily) []LanguageDaily {
	out := make([]LanguageDaily, len(rows))
	for i, row := range rows {
		row.Language = NormalizeLanguage(row.Language)
		out[i] = row
	}
	return out
}

// NormalizePlanType merges the legacy copilot_business label into business.
func NormalizePlanType(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case "copilot_business", "copilot business":
		return "business"
	}
	return plan
}
