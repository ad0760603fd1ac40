package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML_RemovesTagsAndScripts(t *testing.T) {
	page := `<html><head><title>Ignored</title></head><body>
<script>var hidden = true;</script>
<h1>Heading</h1>
<p>First &amp; second.</p>
<div>Third  line</div>
</body></html>`

	text := stripHTML(page)

	assert.Contains(t, text, "Heading")
	assert.Contains(t, text, "First & second.")
	assert.Contains(t, text, "Third line")
	assert.NotContains(t, text, "hidden")
	assert.NotContains(t, text, "Ignored")
	assert.NotContains(t, text, "<")
}

func TestStripHTML_BlockBoundariesBecomeNewlines(t *testing.T) {
	text := stripHTML("<p>one</p><p>two</p>")

	assert.Contains(t, text, "one\n")
	assert.Contains(t, text, "two")
}

func TestExtractText_HTMLIsStripped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html><body><p>Visible text.</p></body></html>"), 0o600))

	text, err := New().ExtractText(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "Visible text.", text)
}
