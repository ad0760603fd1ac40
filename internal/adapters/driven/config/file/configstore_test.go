package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStoreSetAndGet(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("embedding.provider", "ollama"))
	require.NoError(t, store.Set("chunking.max_size", 1000))
	require.NoError(t, store.Set("ingest.update_existing", true))
	require.NoError(t, store.Set("segmenter.line_length_factor", 1.5))

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, 1000, store.GetInt("chunking.max_size"))
	assert.True(t, store.GetBool("ingest.update_existing"))
	assert.InDelta(t, 1.5, store.GetFloat("segmenter.line_length_factor"), 1e-9)

	_, ok := store.Get("missing.key")
	assert.False(t, ok)
}

func TestConfigStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", reloaded.GetString("embedding.model"))
}

func TestConfigStoreFlattensNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := "[chunking]\nstrategy = \"sentence\"\nmax_size = 1000\n\n[chunking.tokens]\nbudget = 512\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, "sentence", store.GetString("chunking.strategy"))
	assert.Equal(t, 1000, store.GetInt("chunking.max_size"))
	assert.Equal(t, 512, store.GetInt("chunking.tokens.budget"))
}

func TestConfigStoreTypeMismatchesReturnZeroValues(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("key", "a string"))

	assert.Zero(t, store.GetInt("key"))
	assert.Zero(t, store.GetFloat("key"))
	assert.False(t, store.GetBool("key"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStorePath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
}
