package driving

import (
	"context"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

// RetrievalService ranks stored chunks by relevance to a query.
type RetrievalService interface {
	// Search embeds the query text and returns the top matches under
	// the query's metric and filters. An empty result is not an error.
	Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error)

	// GetDocumentChunks returns a document's chunks ordered by chunk
	// index, unranked. limit <= 0 means all.
	GetDocumentChunks(ctx context.Context, documentID string, limit int) ([]domain.DocumentMatch, error)

	// FindSimilar ranks chunks against a stored chunk's vector,
	// excluding the reference chunk itself.
	FindSimilar(ctx context.Context, chunkID string, maxResults int) ([]domain.DocumentMatch, error)

	// SearchWithContext returns top matches each bundled with the
	// contextSize chunks before and after it in the same document.
	SearchWithContext(ctx context.Context, query domain.SearchQuery, contextSize int) ([]domain.ContextualMatch, error)

	// BestMatches returns the top N matches for a plain text query.
	BestMatches(ctx context.Context, query string, topN int) ([]domain.DocumentMatch, error)
}
