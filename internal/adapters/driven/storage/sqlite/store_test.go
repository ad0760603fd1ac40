package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(hash string) *domain.Document {
	return &domain.Document{
		ID:           uuid.NewString(),
		Filename:     "notes.md",
		Filepath:     "/tmp/notes.md",
		ContentHash:  hash,
		Size:         128,
		MIMEType:     "text/markdown",
		ContentType:  domain.ContentMarkdown,
		Status:       domain.StatusPending,
		LastModified: time.Now().UTC().Truncate(time.Second),
		Metadata:     map[string]any{"extension": ".md"},
	}
}

func testRecord(docID string, index int, content string, embedding []float32) domain.ChunkRecord {
	return domain.ChunkRecord{
		ID:         uuid.NewString(),
		DocumentID: docID,
		Chunk:      domain.NewTextChunk(index, content, domain.StrategySentence),
		Embedding:  embedding,
	}
}

func TestCreateAndGetDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("hash-a")
	require.NoError(t, store.CreateDocument(ctx, doc))

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Filename, got.Filename)
	assert.Equal(t, doc.ContentHash, got.ContentHash)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, ".md", got.Metadata["extension"])
	assert.False(t, got.CreatedAt.IsZero())

	byHash, err := store.FindByHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, byHash.ID)
}

func TestCreateDocumentDuplicateHash(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDocument("same-hash")))

	err := store.CreateDocument(ctx, testDocument("same-hash"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestGetDocumentNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.FindByHash(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplaceChunksSwapsAtomically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("hash-chunks")
	require.NoError(t, store.CreateDocument(ctx, doc))

	first := []domain.ChunkRecord{
		testRecord(doc.ID, 0, "old chunk zero", []float32{1, 0}),
		testRecord(doc.ID, 1, "old chunk one", []float32{0, 1}),
	}
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, first))

	second := []domain.ChunkRecord{
		testRecord(doc.ID, 0, "new chunk zero", []float32{1, 1}),
	}
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, second))

	chunks, err := store.ChunksForDocument(ctx, doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "new chunk zero", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
}

func TestUpdateStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("hash-status")
	require.NoError(t, store.CreateDocument(ctx, doc))

	require.NoError(t, store.UpdateStatus(ctx, doc.ID, domain.StatusProcessed, 7))

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessed, got.Status)
	assert.Equal(t, 7, got.ChunkCount)

	// Negative chunk count leaves the stored count untouched.
	require.NoError(t, store.UpdateStatus(ctx, doc.ID, domain.StatusFailed, -1))
	got, err = store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, 7, got.ChunkCount)

	err = store.UpdateStatus(ctx, "missing", domain.StatusProcessed, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteByHashCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("hash-delete")
	require.NoError(t, store.CreateDocument(ctx, doc))
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, []domain.ChunkRecord{
		testRecord(doc.ID, 0, "chunk to cascade", []float32{1}),
	}))

	deleted, err := store.DeleteByHash(ctx, "hash-delete")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := store.ChunksForDocument(ctx, doc.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	deleted, err = store.DeleteByHash(ctx, "hash-delete")
	require.NoError(t, err)
	assert.False(t, deleted)
}

// seedSearchCorpus creates a processed document with three embedded
// chunks pointing in distinct directions.
func seedSearchCorpus(t *testing.T, store *Store) *domain.Document {
	t.Helper()
	ctx := context.Background()

	doc := testDocument("hash-search")
	require.NoError(t, store.CreateDocument(ctx, doc))
	records := []domain.ChunkRecord{
		testRecord(doc.ID, 0, "about cats", []float32{1, 0, 0}),
		testRecord(doc.ID, 1, "about dogs", []float32{0, 1, 0}),
		testRecord(doc.ID, 2, "about fish", []float32{0, 0, 1}),
	}
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, records))
	require.NoError(t, store.UpdateStatus(ctx, doc.ID, domain.StatusProcessed, len(records)))
	return doc
}

func TestSimilarityQueryRanksByDistance(t *testing.T) {
	store := newTestStore(t)
	seedSearchCorpus(t, store)

	matches, err := store.SimilarityQuery(context.Background(),
		[]float32{0.9, 0.1, 0}, domain.MetricEuclidean, driven.SimilarityFilter{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "about cats", matches[0].Content)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
	assert.Greater(t, matches[1].Similarity, matches[2].Similarity)
	assert.InDelta(t, 1/(1+0.1414), matches[0].Similarity, 0.01)
}

func TestSimilarityQueryCosine(t *testing.T) {
	store := newTestStore(t)
	seedSearchCorpus(t, store)

	// Same direction, different magnitude: cosine scores it a perfect match.
	matches, err := store.SimilarityQuery(context.Background(),
		[]float32{5, 0, 0}, domain.MetricCosine, driven.SimilarityFilter{}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "about cats", matches[0].Content)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
}

func TestSimilarityQuerySkipsUnprocessedDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDocument("hash-pending")
	require.NoError(t, store.CreateDocument(ctx, doc))
	require.NoError(t, store.ReplaceChunks(ctx, doc.ID, []domain.ChunkRecord{
		testRecord(doc.ID, 0, "not yet visible", []float32{1, 0, 0}),
	}))

	matches, err := store.SimilarityQuery(ctx, []float32{1, 0, 0}, domain.MetricEuclidean, driven.SimilarityFilter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSimilarityQueryFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedSearchCorpus(t, store)

	other := testDocument("hash-other")
	other.ContentType = domain.ContentText
	other.Filename = "other.txt"
	require.NoError(t, store.CreateDocument(ctx, other))
	require.NoError(t, store.ReplaceChunks(ctx, other.ID, []domain.ChunkRecord{
		testRecord(other.ID, 0, "other doc chunk", []float32{1, 0, 0}),
	}))
	require.NoError(t, store.UpdateStatus(ctx, other.ID, domain.StatusProcessed, 1))

	vec := []float32{1, 0, 0}

	byDoc, err := store.SimilarityQuery(ctx, vec, domain.MetricEuclidean,
		driven.SimilarityFilter{DocumentIDs: []string{other.ID}}, 10)
	require.NoError(t, err)
	require.Len(t, byDoc, 1)
	assert.Equal(t, other.ID, byDoc[0].DocumentID)

	byType, err := store.SimilarityQuery(ctx, vec, domain.MetricEuclidean,
		driven.SimilarityFilter{ContentTypes: []domain.ContentType{domain.ContentMarkdown}}, 10)
	require.NoError(t, err)
	require.Len(t, byType, 3)
	for _, m := range byType {
		assert.Equal(t, doc.ID, m.DocumentID)
	}

	future := time.Now().UTC().Add(time.Hour)
	none, err := store.SimilarityQuery(ctx, vec, domain.MetricEuclidean,
		driven.SimilarityFilter{After: future}, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSimilarityQueryExcludesChunk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedSearchCorpus(t, store)

	chunks, err := store.ChunksForDocument(ctx, doc.ID, 0)
	require.NoError(t, err)
	selfID := chunks[0].ChunkID

	matches, err := store.SimilarityQuery(ctx, []float32{1, 0, 0}, domain.MetricEuclidean,
		driven.SimilarityFilter{ExcludeChunkID: selfID}, 10)
	require.NoError(t, err)
	for _, m := range matches {
		assert.NotEqual(t, selfID, m.ChunkID)
	}
}

func TestGetChunkEmbedding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedSearchCorpus(t, store)

	chunks, err := store.ChunksForDocument(ctx, doc.ID, 0)
	require.NoError(t, err)

	vec, err := store.GetChunkEmbedding(ctx, chunks[0].ChunkID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)

	_, err = store.GetChunkEmbedding(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChunksForDocumentLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := seedSearchCorpus(t, store)

	chunks, err := store.ChunksForDocument(ctx, doc.ID, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestAggregateStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		doc := testDocument(fmt.Sprintf("hash-%d", i))
		require.NoError(t, store.CreateDocument(ctx, doc))
		require.NoError(t, store.ReplaceChunks(ctx, doc.ID, []domain.ChunkRecord{
			testRecord(doc.ID, 0, fmt.Sprintf("chunk %d", i), []float32{1}),
		}))
		require.NoError(t, store.UpdateStatus(ctx, doc.ID, domain.StatusProcessed, 1))
	}
	failing := testDocument("hash-failed")
	failing.ContentType = domain.ContentText
	require.NoError(t, store.CreateDocument(ctx, failing))
	require.NoError(t, store.UpdateStatus(ctx, failing.ID, domain.StatusFailed, -1))

	stats, err := store.AggregateStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DocumentsByStatus[domain.StatusProcessed])
	assert.Equal(t, 1, stats.DocumentsByStatus[domain.StatusFailed])
	assert.Equal(t, 3, stats.DocumentsByContentType[domain.ContentMarkdown])
	assert.Equal(t, 1, stats.DocumentsByContentType[domain.ContentText])
	assert.Equal(t, 3, stats.TotalChunks)
}

func TestEmbeddingBlobRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75, 0}
	assert.Equal(t, vec, bytesToFloat32Slice(float32SliceToBytes(vec)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
