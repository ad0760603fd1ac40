package domain

import (
	"path/filepath"
	"sort"
	"strings"
)

// ContentType classifies a source file for chunking strategy dispatch.
type ContentType string

// Content classifications.
const (
	ContentText       ContentType = "text"
	ContentMarkdown   ContentType = "markdown"
	ContentCode       ContentType = "code"
	ContentMarkup     ContentType = "markup"
	ContentStructured ContentType = "structured_data"
	ContentPDF        ContentType = "pdf"
	ContentDocument   ContentType = "document"
	ContentCSV        ContentType = "csv"
)

// textExtensions are plain-text formats readable without a
// format-specific extractor.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true,
	".py": true, ".js": true, ".ts": true, ".java": true,
	".go": true, ".cpp": true, ".c": true, ".h": true, ".hpp": true,
	".css": true, ".html": true, ".xml": true, ".json": true,
	".yaml": true, ".yml": true, ".ini": true, ".cfg": true,
	".conf": true, ".log": true, ".csv": true,
}

// documentExtensions are binary document formats that need a
// format-specific extractor.
var documentExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".doc": true, ".rtf": true, ".odt": true,
}

// SupportedExtensions returns all extensions the pipeline accepts,
// sorted lexically for stable CLI output.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(textExtensions)+len(documentExtensions))
	for ext := range textExtensions {
		exts = append(exts, ext)
	}
	for ext := range documentExtensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupportedFile reports whether the path's extension is ingestible.
func IsSupportedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return textExtensions[ext] || documentExtensions[ext]
}

// ClassifyContent maps a file path to its content classification.
func ClassifyContent(path string) ContentType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return ContentMarkdown
	case ".py", ".js", ".ts", ".java", ".go", ".cpp", ".c", ".h", ".hpp":
		return ContentCode
	case ".html", ".xml":
		return ContentMarkup
	case ".json", ".yaml", ".yml":
		return ContentStructured
	case ".pdf":
		return ContentPDF
	case ".docx", ".doc", ".rtf", ".odt":
		return ContentDocument
	case ".csv":
		return ContentCSV
	default:
		return ContentText
	}
}
