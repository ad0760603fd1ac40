package services

import (
	"context"
	"fmt"
	"time"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driving"
	"github.com/alexandria-labs/alexandria-cli/internal/logger"
)

// defaultMaxResults caps queries that do not specify a limit.
const defaultMaxResults = 10

// Ensure RetrievalEngine implements the interface.
var _ driving.RetrievalService = (*RetrievalEngine)(nil)

// RetrievalEngine answers similarity queries over the stored corpus.
type RetrievalEngine struct {
	store    driven.DocumentStore
	embedder driven.EmbeddingService
}

// NewRetrievalEngine creates a retrieval engine.
func NewRetrievalEngine(store driven.DocumentStore, embedder driven.EmbeddingService) *RetrievalEngine {
	return &RetrievalEngine{store: store, embedder: embedder}
}

// Search embeds the query text and returns the top matches. An empty
// result is a valid outcome, not an error.
func (e *RetrievalEngine) Search(ctx context.Context, query domain.SearchQuery) (*domain.SearchResult, error) {
	if query.QueryText == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if query.MaxResults <= 0 {
		query.MaxResults = defaultMaxResults
	}
	metric := query.Metric
	if metric == "" {
		metric = domain.MetricEuclidean
	}
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: unknown metric %q", domain.ErrInvalidInput, metric)
	}

	started := time.Now()
	vector, err := e.embedder.Embed(ctx, query.QueryText)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
	}
	embeddingTime := time.Since(started)

	matches, err := e.store.SimilarityQuery(ctx, vector, metric, driven.SimilarityFilter{
		DocumentIDs:  query.DocumentIDs,
		ContentTypes: query.ContentTypes,
		After:        query.After,
		Before:       query.Before,
	}, query.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	// Post-filter: the similarity floor applies after ranking so the
	// limit semantics stay "top N, then drop weak tail".
	if query.MinSimilarity > 0 {
		filtered := matches[:0]
		for _, m := range matches {
			if m.Similarity >= query.MinSimilarity {
				filtered = append(filtered, m)
			}
		}
		matches = filtered
	}

	logger.Debug("Search %q: %d matches in %s", query.QueryText, len(matches), time.Since(started))
	return &domain.SearchResult{
		Query:         query.QueryText,
		Matches:       matches,
		TotalMatches:  len(matches),
		SearchTime:    time.Since(started),
		EmbeddingTime: embeddingTime,
	}, nil
}

// GetDocumentChunks returns a document's chunks in index order.
func (e *RetrievalEngine) GetDocumentChunks(ctx context.Context, documentID string, limit int) ([]domain.DocumentMatch, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: empty document ID", domain.ErrInvalidInput)
	}
	return e.store.ChunksForDocument(ctx, documentID, limit)
}

// FindSimilar ranks chunks against a stored chunk's own vector. The
// reference chunk is excluded so it never matches itself.
func (e *RetrievalEngine) FindSimilar(ctx context.Context, chunkID string, maxResults int) ([]domain.DocumentMatch, error) {
	if chunkID == "" {
		return nil, fmt.Errorf("%w: empty chunk ID", domain.ErrInvalidInput)
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	vector, err := e.store.GetChunkEmbedding(ctx, chunkID)
	if err != nil {
		return nil, err
	}
	return e.store.SimilarityQuery(ctx, vector, domain.MetricEuclidean, driven.SimilarityFilter{
		ExcludeChunkID: chunkID,
	}, maxResults)
}

// SearchWithContext returns top matches, each bundled with the chunks
// surrounding it in its document.
func (e *RetrievalEngine) SearchWithContext(ctx context.Context, query domain.SearchQuery, contextSize int) ([]domain.ContextualMatch, error) {
	if contextSize < 0 {
		contextSize = 0
	}
	result, err := e.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	contextual := make([]domain.ContextualMatch, 0, len(result.Matches))
	for _, match := range result.Matches {
		siblings, err := e.store.ChunksForDocument(ctx, match.DocumentID, 0)
		if err != nil {
			return nil, fmt.Errorf("loading context for %s: %w", match.ChunkID, err)
		}

		start := match.ChunkIndex - contextSize
		if start < 0 {
			start = 0
		}
		end := match.ChunkIndex + contextSize

		var window []domain.DocumentMatch
		for _, sib := range siblings {
			if sib.ChunkIndex >= start && sib.ChunkIndex <= end {
				if sib.ChunkIndex == match.ChunkIndex {
					// Keep the ranked copy so similarity survives.
					window = append(window, match)
				} else {
					window = append(window, sib)
				}
			}
		}

		contextual = append(contextual, domain.ContextualMatch{
			Match:              match,
			Context:            window,
			ContextStart:       start,
			DocumentChunkTotal: len(siblings),
		})
	}
	return contextual, nil
}

// BestMatches returns the top N matches for a plain text query.
func (e *RetrievalEngine) BestMatches(ctx context.Context, query string, topN int) ([]domain.DocumentMatch, error) {
	if topN <= 0 {
		topN = 1
	}
	result, err := e.Search(ctx, domain.SearchQuery{QueryText: query, MaxResults: topN})
	if err != nil {
		return nil, err
	}
	return result.Matches, nil
}
