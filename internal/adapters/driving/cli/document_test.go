package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandria-labs/alexandria-cli/internal/extractor"
)

func TestStatsCmd_SummarisesIndex(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	dir := t.TempDir()
	ingestFixtureFile(t, writeFixture(dir, "readme.md", "# Readme\n\nStats fixture."))
	ingestFixtureFile(t, writeFixture(dir, "plain.txt", "Plain stats fixture."))

	out, err := execute("stats")

	require.NoError(t, err)
	assert.Contains(t, out, "Index statistics")
	assert.Contains(t, out, "processed")
	assert.Contains(t, out, "markdown")
	assert.Contains(t, out, "text")
	assert.Contains(t, out, "Total chunks:")
}

func TestSupportedTypesCmd_ListsExtensions(t *testing.T) {
	out, err := execute("supported-types")

	require.NoError(t, err)
	assert.Contains(t, out, ".md")
	assert.Contains(t, out, ".go")
	assert.Contains(t, out, ".pdf")
}

func TestDeleteCmd_RemovesDocument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeFixture(t.TempDir(), "doomed.txt", "Delete fixture content.")
	ingestFixtureFile(t, path)

	meta, err := extractor.New().FileMetadata(context.Background(), path)
	require.NoError(t, err)

	out, err := execute("delete", meta.ContentHash)

	require.NoError(t, err)
	assert.Contains(t, out, "Deleted document")
}

func TestDeleteCmd_UnknownHash(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := execute("delete", "deadbeef")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no document")
}

func TestGetContentCmd_PrintsChunksInOrder(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	path := writeFixture(t.TempDir(), "content.txt", "Get content fixture body.")
	docID := ingestFixtureFile(t, path)

	out, err := execute("get-content", docID)

	require.NoError(t, err)
	assert.Contains(t, out, "chunk 0")
	assert.Contains(t, out, "Get content fixture body.")
}

func TestGetContentCmd_UnknownDocument(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := execute("get-content", "no-such-doc")

	require.NoError(t, err)
	assert.Contains(t, out, "No chunks stored")
}
