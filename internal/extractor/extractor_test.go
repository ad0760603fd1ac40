package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func TestFileMetadata(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.md", []byte("# Notes\n\nSome content.\n"))

	doc, err := New().FileMetadata(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "notes.md", doc.Filename)
	assert.True(t, filepath.IsAbs(doc.Filepath))
	assert.Len(t, doc.ContentHash, 64)
	assert.Equal(t, int64(23), doc.Size)
	assert.Equal(t, domain.ContentMarkdown, doc.ContentType)
	assert.Equal(t, domain.StatusPending, doc.Status)
	assert.Empty(t, doc.ID)
	assert.Equal(t, ".md", doc.Metadata["extension"])
}

func TestFileMetadataSameContentSameHash(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", []byte("identical bytes"))
	b := writeFile(t, dir, "b.txt", []byte("identical bytes"))

	e := New()
	docA, err := e.FileMetadata(context.Background(), a)
	require.NoError(t, err)
	docB, err := e.FileMetadata(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, docA.ContentHash, docB.ContentHash)
}

func TestFileMetadataErrors(t *testing.T) {
	dir := t.TempDir()
	e := New()

	_, err := e.FileMetadata(context.Background(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.FileMetadata(context.Background(), dir)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	unsupported := writeFile(t, dir, "image.png", []byte{0x89, 0x50, 0x4e, 0x47})
	_, err = e.FileMetadata(context.Background(), unsupported)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestExtractTextUTF8(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "plain.txt", []byte("héllo wörld"))

	text, err := New().ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", text)
}

func TestExtractTextLatin1Fallback(t *testing.T) {
	dir := t.TempDir()
	// "café" in Latin-1: é is 0xE9, invalid as UTF-8.
	path := writeFile(t, dir, "legacy.txt", []byte{'c', 'a', 'f', 0xE9})

	text, err := New().ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "café", text)
}

func TestExtractTextUTF16Fallback(t *testing.T) {
	dir := t.TempDir()
	// "hi" as UTF-16LE with BOM.
	path := writeFile(t, dir, "wide.txt", []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00})

	text, err := New().ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}

func TestExtractTextMissingFile(t *testing.T) {
	_, err := New().ExtractText(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScanDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("a"))
	writeFile(t, dir, "b.md", []byte("b"))
	writeFile(t, dir, "image.png", []byte("not text"))
	writeFile(t, dir, ".hidden.txt", []byte("hidden"))
	writeFile(t, dir, "sub/c.go", []byte("package c"))
	writeFile(t, dir, ".git/config.txt", []byte("x"))

	e := New()

	flat, err := e.ScanDirectory(context.Background(), dir, false)
	require.NoError(t, err)
	require.Len(t, flat, 2)
	assert.Equal(t, filepath.Join(dir, "a.txt"), flat[0])
	assert.Equal(t, filepath.Join(dir, "b.md"), flat[1])

	recursive, err := e.ScanDirectory(context.Background(), dir, true)
	require.NoError(t, err)
	require.Len(t, recursive, 3)
	assert.Contains(t, recursive, filepath.Join(dir, "sub", "c.go"))
}

func TestScanDirectoryErrors(t *testing.T) {
	e := New()

	_, err := e.ScanDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), true)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	file := writeFile(t, t.TempDir(), "f.txt", []byte("x"))
	_, err = e.ScanDirectory(context.Background(), file, true)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
