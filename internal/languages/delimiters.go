package languages

import (
	"path/filepath"
	"strings"
)

// Delimiter wraps annotation text in a language's comment syntax.
type Delimiter struct {
	Open  string
	Close string
}

// Wrap returns text inside the delimiter pair.
func (d Delimiter) Wrap(text string) string {
	if d.Close == "" {
		return d.Open + " " + text
	}
	return d.Open + " " + text + " " + d.Close
}

var defaultDelimiter = Delimiter{Open: "//"}

var delimiters = map[string]Delimiter{
	"python":   {Open: "#"},
	"r":        {Open: "#"},
	"perl":     {Open: "#"},
	"ruby":     {Open: "#"},
	"shell":    {Open: "#"},
	"html":     {Open: "<!--", Close: "-->"},
	"xml":      {Open: "<!--", Close: "-->"},
	"markdown": {Open: "<!--", Close: "-->"},
	"css":      {Open: "/*", Close: "*/"},
	"scss":     {Open: "/*", Close: "*/"},
	"less":     {Open: "/*", Close: "*/"},
	"json":     {Open: "/*", Close: "*/"},
	"sql":      {Open: "--"},
}

// DelimiterFor returns the comment delimiter for a language id, falling back
// to "//" for anything unknown.
func DelimiterFor(languageID string) Delimiter {
	if d, ok := delimiters[strings.ToLower(strings.TrimSpace(languageID))]; ok {
		return d
	}
	return defaultDelimiter
}

var extensionLanguages = map[string]string{
	".go":       "go",
	".ts":       "typescript",
	".tsx":      "typescriptreact",
	".js":       "javascript",
	".jsx":      "javascriptreact",
	".mjs":      "javascript",
	".cjs":      "javascript",
	".java":     "java",
	".c":        "c",
	".h":        "c",
	".cc":       "cpp",
	".cpp":      "cpp",
	".hpp":      "cpp",
	".cs":       "csharp",
	".rs":       "rust",
	".swift":    "swift",
	".kt":       "kotlin",
	".php":      "php",
	".py":       "python",
	".r":        "r",
	".pl":       "perl",
	".pm":       "perl",
	".rb":       "ruby",
	".sh":       "shell",
	".bash":     "shell",
	".zsh":      "shell",
	".html":     "html",
	".htm":      "html",
	".xml":      "xml",
	".svg":      "xml",
	".md":       "markdown",
	".markdown": "markdown",
	".css":      "css",
	".scss":     "scss",
	".less":     "less",
	".json":     "json",
	".sql":      "sql",
}

// FromPath guesses the language id of a file from its extension. Unknown
// extensions yield "plaintext".
func FromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}
	return "plaintext"
}

// KnownExtensions lists every extension FromPath recognizes.
func KnownExtensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}
	return exts
}
