package driven

import (
	"context"
	"time"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

// SimilarityFilter narrows the candidate set of a similarity query.
// Filters apply before ranking, not after.
type SimilarityFilter struct {
	// DocumentIDs restricts candidates to these documents.
	DocumentIDs []string

	// ContentTypes restricts candidates by document classification.
	ContentTypes []domain.ContentType

	// After/Before bound the owning document's creation time.
	// Zero values disable the bound.
	After, Before time.Time

	// ExcludeChunkID removes one chunk from the candidates. Used by
	// find-similar so the reference chunk never matches itself.
	ExcludeChunkID string
}

// DocumentStore persists documents and chunk records and answers
// similarity queries over stored embeddings.
// Backed by SQLite.
type DocumentStore interface {
	// FindByHash retrieves a document by content hash.
	// Returns domain.ErrNotFound if no record exists.
	FindByHash(ctx context.Context, hash string) (*domain.Document, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// CreateDocument stores a new document record.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// ReplaceChunks atomically replaces the document's chunk set.
	// Either all records are swapped in or none are; a partial chunk
	// set is never visible to readers.
	ReplaceChunks(ctx context.Context, documentID string, records []domain.ChunkRecord) error

	// UpdateStatus transitions the document's lifecycle state. A
	// non-negative chunkCount also updates the stored count.
	UpdateStatus(ctx context.Context, documentID string, status domain.DocumentStatus, chunkCount int) error

	// TouchDocument refreshes UpdatedAt and LastModified before an
	// update pass replaces the chunk set.
	TouchDocument(ctx context.Context, documentID string, lastModified time.Time) error

	// DeleteByHash removes the document with the given content hash
	// and cascades chunk deletion. Returns false when no document
	// matched.
	DeleteByHash(ctx context.Context, hash string) (bool, error)

	// SimilarityQuery ranks stored chunks by distance to the query
	// vector under the given metric, ascending, capped at limit.
	SimilarityQuery(ctx context.Context, vector []float32, metric domain.DistanceMetric, filter SimilarityFilter, limit int) ([]domain.DocumentMatch, error)

	// ChunksForDocument returns the document's chunks ordered by
	// chunk index. Similarity on the returned matches is zero.
	ChunksForDocument(ctx context.Context, documentID string, limit int) ([]domain.DocumentMatch, error)

	// GetChunkEmbedding returns the stored vector for a chunk.
	GetChunkEmbedding(ctx context.Context, chunkID string) ([]float32, error)

	// AggregateStats summarises the stored corpus.
	AggregateStats(ctx context.Context) (*domain.StoreStats, error)
}
