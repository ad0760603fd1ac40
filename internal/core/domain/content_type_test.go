package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyContent(t *testing.T) {
	tests := []struct {
		path string
		want ContentType
	}{
		{"notes.md", ContentMarkdown},
		{"README.markdown", ContentMarkdown},
		{"main.go", ContentCode},
		{"script.PY", ContentCode},
		{"page.html", ContentMarkup},
		{"config.yaml", ContentStructured},
		{"report.pdf", ContentPDF},
		{"letter.docx", ContentDocument},
		{"data.csv", ContentCSV},
		{"plain.txt", ContentText},
		{"server.log", ContentText},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyContent(tt.path), "path %s", tt.path)
	}
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("/docs/guide.md"))
	assert.True(t, IsSupportedFile("report.PDF"))
	assert.False(t, IsSupportedFile("archive.tar.gz"))
	assert.False(t, IsSupportedFile("binary.exe"))
	assert.False(t, IsSupportedFile("noextension"))
}

func TestSupportedExtensions_SortedAndComplete(t *testing.T) {
	exts := SupportedExtensions()

	assert.Contains(t, exts, ".txt")
	assert.Contains(t, exts, ".md")
	assert.Contains(t, exts, ".pdf")
	assert.Contains(t, exts, ".docx")

	for i := 1; i < len(exts); i++ {
		assert.LessOrEqual(t, exts[i-1], exts[i])
	}
}

func TestChunkStrategy_Valid(t *testing.T) {
	assert.True(t, StrategyFixedSize.Valid())
	assert.True(t, StrategyMarkdown.Valid())
	assert.False(t, ChunkStrategy("semantic_based").Valid())
}
