package scanner

import (
	"path/filepath"
	"strings"
)

// languageByExt maps file extensions to language tags. Only listed extensions
// are picked up by a scan.
var languageByExt = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".rs":    "rust",
	".rb":    "ruby",
	".java":  "java",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".scala": "scala",
	".sh":    "shell",
	".lua":   "lua",
	".pl":    "perl",
	".sql":   "sql",
}

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	".idea":        true,
	".vscode":      true,
}

// DetectLanguage returns the language tag for a path, or "" if the file type
// is not supported.
func DetectLanguage(path string) string {
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}
