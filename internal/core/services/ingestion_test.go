package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandria-labs/alexandria-cli/internal/adapters/driven/storage/memory"
	"github.com/alexandria-labs/alexandria-cli/internal/chunker"
	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/extractor"
	"github.com/alexandria-labs/alexandria-cli/internal/segmenter"
)

// fakeEmbedder returns fixed-size vectors derived from text length,
// or a configured vector per exact text. failSubstring makes Embed
// and EmbedBatch fail for matching texts.
type fakeEmbedder struct {
	vectors       map[string][]float32
	failSubstring string
	calls         int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failSubstring != "" && strings.Contains(text, f.failSubstring) {
		return nil, errors.New("embedding backend unavailable")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{float32(len(text) % 7), 1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int              { return 3 }
func (f *fakeEmbedder) ModelName() string            { return "fake-embed" }
func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }
func (f *fakeEmbedder) Close() error                 { return nil }

type ingestFixture struct {
	store    *memory.DocumentStore
	embedder *fakeEmbedder
	svc      *IngestionOrchestrator
	dir      string
}

func newIngestFixture(t *testing.T, cfg domain.IngestConfig) *ingestFixture {
	t.Helper()
	store := memory.NewDocumentStore()
	embedder := &fakeEmbedder{vectors: make(map[string][]float32)}

	chunkCfg := cfg.Chunk
	if chunkCfg.MaxChunkSize == 0 {
		chunkCfg = domain.DefaultChunkConfig()
		chunkCfg.MaxChunkSize = 100
		chunkCfg.MinChunkSize = 5
		chunkCfg.OverlapSize = 0
	}
	segCfg := cfg.Segment
	if segCfg.MaxSegmentSize == 0 {
		segCfg = domain.DefaultSegmentConfig()
		segCfg.TempDir = t.TempDir()
	}

	svc := NewIngestionOrchestrator(
		store,
		embedder,
		extractor.New(),
		chunker.New(chunkCfg, nil),
		segmenter.New(segCfg),
		cfg,
	)
	return &ingestFixture{store: store, embedder: embedder, svc: svc, dir: t.TempDir()}
}

func (f *ingestFixture) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIngestFileCreatesDocumentAndChunks(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())
	path := f.writeFile(t, "notes.txt", "First sentence here. Second sentence here. Third sentence here.")

	result, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalFiles)
	assert.Equal(t, 1, result.ProcessedFiles)
	assert.Zero(t, result.SkippedFiles)
	assert.Zero(t, result.FailedFiles)
	assert.Greater(t, result.TotalChunks, 0)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.StatusProcessed])
	assert.Equal(t, result.TotalChunks, stats.TotalChunks)
}

func TestIngestFileSkipsDuplicateContent(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())
	path := f.writeFile(t, "a.txt", "The same content in both files, long enough to chunk.")
	copyPath := f.writeFile(t, "b.txt", "The same content in both files, long enough to chunk.")

	_, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)

	result, err := f.svc.IngestFile(context.Background(), copyPath)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SkippedFiles)
	assert.Zero(t, result.ProcessedFiles)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.StatusProcessed])
}

func TestIngestFileUpdateExistingSkipsUnchanged(t *testing.T) {
	cfg := domain.DefaultIngestConfig()
	cfg.UpdateExisting = true
	f := newIngestFixture(t, cfg)
	path := f.writeFile(t, "a.txt", "Stable content that does not change between passes.")

	_, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)

	// The file on disk is no newer than the stored record.
	second, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, second.ProcessedFiles)
	assert.Equal(t, 1, second.SkippedFiles)
}

func TestIngestFileUpdateExistingReprocessesNewer(t *testing.T) {
	cfg := domain.DefaultIngestConfig()
	cfg.UpdateExisting = true
	f := newIngestFixture(t, cfg)
	path := f.writeFile(t, "a.txt", "Stable content that does not change between passes.")

	first, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)

	newer := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(path, newer, newer))

	second, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, second.ProcessedFiles)
	assert.Zero(t, second.SkippedFiles)

	// Still one document; chunk count unchanged after the re-pass.
	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.StatusProcessed])
	assert.Equal(t, first.TotalChunks, stats.TotalChunks)
}

func TestIngestFileForceReprocessesUnchanged(t *testing.T) {
	cfg := domain.DefaultIngestConfig()
	cfg.Force = true
	f := newIngestFixture(t, cfg)
	path := f.writeFile(t, "a.txt", "Identical content forced through the pipeline twice.")

	_, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)

	second, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, second.ProcessedFiles)
	assert.Zero(t, second.SkippedFiles)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.StatusProcessed])
}

func TestIngestFileEmbeddingFailureMarksFailed(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())
	f.embedder.failSubstring = "poison"
	path := f.writeFile(t, "bad.txt", "This poison text will make the embedder fail hard.")

	result, err := f.svc.IngestFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Equal(t, 1, result.FailedFiles)
	require.Len(t, result.Errors, 1)

	stats, statsErr := f.svc.Stats(context.Background())
	require.NoError(t, statsErr)
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.StatusFailed])
	assert.Zero(t, stats.TotalChunks)
}

func TestIngestFileUnsupportedType(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())
	path := f.writeFile(t, "image.png", "not really an image")

	result, err := f.svc.IngestFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Equal(t, 1, result.FailedFiles)
}

func TestIngestFileEmptyFileMarksFailed(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())
	path := f.writeFile(t, "empty.txt", "")

	result, err := f.svc.IngestFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrChunking)
	assert.Equal(t, 1, result.FailedFiles)
	assert.Zero(t, result.TotalChunks)

	stats, statsErr := f.svc.Stats(context.Background())
	require.NoError(t, statsErr)
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.StatusFailed])
}

func TestIngestFileSkipExistingHealsFailedRun(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())
	f.embedder.failSubstring = "poison"
	path := f.writeFile(t, "flaky.txt", "This poison text fails once and then recovers fine.")

	_, err := f.svc.IngestFile(context.Background(), path)
	require.Error(t, err)

	// The failed record has no chunks, so the dedup skip must not
	// strand it once the backend recovers.
	f.embedder.failSubstring = ""
	result, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedFiles)
	assert.Zero(t, result.SkippedFiles)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.StatusProcessed])
	assert.Zero(t, stats.DocumentsByStatus[domain.StatusFailed])
}

func TestIngestFileSegmentationFailureFallsBack(t *testing.T) {
	cfg := domain.DefaultIngestConfig()
	cfg.Segment.MaxSegmentSize = 200
	cfg.Segment.PreferredSegmentSize = 100
	f := newIngestFixture(t, cfg)
	// A temp dir that cannot be created breaks segmentation up front.
	f.svc.segmenter = segmenter.New(domain.SegmentConfig{
		MaxSegmentSize:       200,
		PreferredSegmentSize: 100,
		TempDir:              filepath.Join(f.dir, "does", "not", "exist"),
	})

	content := strings.Repeat("A sentence that pads the file well past the threshold. ", 10)
	path := f.writeFile(t, "big.txt", content)

	result, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedFiles)
	assert.Greater(t, result.TotalChunks, 0)
}

func TestIngestDirectoryIsolatesFailures(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())
	f.embedder.failSubstring = "poison"
	f.writeFile(t, "good1.txt", "Perfectly fine content for the first document here.")
	f.writeFile(t, "good2.txt", "Also fine content for the second document over here.")
	f.writeFile(t, "bad.txt", "This one contains poison and will fail to embed.")

	result, err := f.svc.IngestDirectory(context.Background(), f.dir, true)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalFiles)
	assert.Equal(t, 2, result.ProcessedFiles)
	assert.Equal(t, 1, result.FailedFiles)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "bad.txt")
}

func TestIngestDirectoryDedupAcrossBatch(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())
	for i := 0; i < 4; i++ {
		f.writeFile(t, fmt.Sprintf("copy%d.txt", i), "Byte-identical content shared by every file in this batch.")
	}

	result, err := f.svc.IngestDirectory(context.Background(), f.dir, false)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalFiles)
	assert.Equal(t, 1, result.ProcessedFiles)
	assert.Equal(t, 3, result.SkippedFiles)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.StatusProcessed])
}

func TestIngestDirectoryEmpty(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())

	result, err := f.svc.IngestDirectory(context.Background(), f.dir, true)
	require.NoError(t, err)
	assert.Zero(t, result.TotalFiles)
}

func TestIngestSegmentedFileKeepsOrdinalsContiguous(t *testing.T) {
	cfg := domain.DefaultIngestConfig()
	cfg.Segment.MaxSegmentSize = 400
	cfg.Segment.PreferredSegmentSize = 200
	cfg.Segment.OverlapLines = 0
	cfg.Chunk.MaxChunkSize = 80
	cfg.Chunk.MinChunkSize = 5
	cfg.Chunk.OverlapSize = 0
	f := newIngestFixture(t, cfg)

	var content string
	for i := 0; i < 20; i++ {
		content += fmt.Sprintf("Sentence number %02d lives on its own line in the file.\n", i)
	}
	path := f.writeFile(t, "large.txt", content)

	result, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)
	require.Greater(t, result.TotalChunks, 1)

	doc, err := f.store.FindByHash(context.Background(), contentHash(t, path))
	require.NoError(t, err)
	chunks, err := f.store.ChunksForDocument(context.Background(), doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, chunks, result.TotalChunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
	}
	assert.Equal(t, result.TotalChunks, doc.ChunkCount)
}

func TestDeleteByHash(t *testing.T) {
	f := newIngestFixture(t, domain.DefaultIngestConfig())
	path := f.writeFile(t, "a.txt", "Content that will be deleted shortly after ingestion.")

	_, err := f.svc.IngestFile(context.Background(), path)
	require.NoError(t, err)

	hash := contentHash(t, path)
	deleted, err := f.svc.Delete(context.Background(), hash)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = f.svc.Delete(context.Background(), hash)
	require.NoError(t, err)
	assert.False(t, deleted)
}

// contentHash mirrors the extractor's hashing for test lookups.
func contentHash(t *testing.T, path string) string {
	t.Helper()
	doc, err := extractor.New().FileMetadata(context.Background(), path)
	require.NoError(t, err)
	return doc.ContentHash
}
