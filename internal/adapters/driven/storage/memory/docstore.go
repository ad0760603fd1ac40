// Package memory provides in-memory implementations of the driven
// storage ports, used by service tests and as a reference for the
// SQLite adapter's semantics.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu     sync.RWMutex
	docs   map[string]*domain.Document     // by ID
	chunks map[string][]domain.ChunkRecord // by document ID, index order
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string][]domain.ChunkRecord),
	}
}

// FindByHash retrieves a document by content hash.
func (s *DocumentStore) FindByHash(_ context.Context, hash string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, doc := range s.docs {
		if doc.ContentHash == hash {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

// CreateDocument stores a new document record.
func (s *DocumentStore) CreateDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs {
		if existing.ContentHash == doc.ContentHash {
			return fmt.Errorf("%w: content hash %s", domain.ErrAlreadyExists, doc.ContentHash)
		}
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

// ReplaceChunks atomically replaces the document's chunk set.
func (s *DocumentStore) ReplaceChunks(_ context.Context, documentID string, records []domain.ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	copied := make([]domain.ChunkRecord, len(records))
	for i, rec := range records {
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		copied[i] = rec
	}
	s.chunks[documentID] = copied
	return nil
}

// UpdateStatus transitions the document's lifecycle state.
func (s *DocumentStore) UpdateStatus(_ context.Context, documentID string, status domain.DocumentStatus, chunkCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[documentID]
	if !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	doc.Status = status
	if chunkCount >= 0 {
		doc.ChunkCount = chunkCount
	}
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// TouchDocument refreshes UpdatedAt and LastModified.
func (s *DocumentStore) TouchDocument(_ context.Context, documentID string, lastModified time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[documentID]
	if !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	doc.LastModified = lastModified
	doc.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteByHash removes the document with the given content hash and
// its chunks.
func (s *DocumentStore) DeleteByHash(_ context.Context, hash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, doc := range s.docs {
		if doc.ContentHash == hash {
			delete(s.docs, id)
			delete(s.chunks, id)
			return true, nil
		}
	}
	return false, nil
}

// SimilarityQuery ranks stored chunks by distance to the query vector.
func (s *DocumentStore) SimilarityQuery(_ context.Context, vector []float32, metric domain.DistanceMetric, filter driven.SimilarityFilter, limit int) ([]domain.DocumentMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		match    domain.DocumentMatch
		distance float64
	}
	var candidates []scored
	for docID, records := range s.chunks {
		doc, ok := s.docs[docID]
		if !ok || doc.Status != domain.StatusProcessed {
			continue
		}
		if !matchesFilter(doc, filter) {
			continue
		}
		for _, rec := range records {
			if rec.ID == filter.ExcludeChunkID || len(rec.Embedding) == 0 {
				continue
			}
			dist := domain.Distance(metric, vector, rec.Embedding)
			if math.IsInf(dist, 1) {
				continue
			}
			match := toMatch(doc, rec)
			match.Similarity = domain.SimilarityFromDistance(dist)
			candidates = append(candidates, scored{match: match, distance: dist})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	matches := make([]domain.DocumentMatch, len(candidates))
	for i, c := range candidates {
		matches[i] = c.match
	}
	return matches, nil
}

// ChunksForDocument returns the document's chunks in index order.
func (s *DocumentStore) ChunksForDocument(_ context.Context, documentID string, limit int) ([]domain.DocumentMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[documentID]
	if !ok {
		return nil, nil
	}
	records := s.chunks[documentID]
	matches := make([]domain.DocumentMatch, 0, len(records))
	for _, rec := range records {
		matches = append(matches, toMatch(doc, rec))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].ChunkIndex < matches[j].ChunkIndex
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// GetChunkEmbedding returns the stored vector for a chunk.
func (s *DocumentStore) GetChunkEmbedding(_ context.Context, chunkID string) ([]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, records := range s.chunks {
		for _, rec := range records {
			if rec.ID == chunkID {
				if len(rec.Embedding) == 0 {
					return nil, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrNotFound, chunkID)
				}
				return rec.Embedding, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: chunk %s", domain.ErrNotFound, chunkID)
}

// AggregateStats summarises the stored corpus.
func (s *DocumentStore) AggregateStats(_ context.Context) (*domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.StoreStats{
		DocumentsByStatus:      make(map[domain.DocumentStatus]int),
		DocumentsByContentType: make(map[domain.ContentType]int),
	}
	for _, doc := range s.docs {
		stats.DocumentsByStatus[doc.Status]++
		stats.DocumentsByContentType[doc.ContentType]++
	}
	for _, records := range s.chunks {
		stats.TotalChunks += len(records)
	}
	return stats, nil
}

// matchesFilter applies the document-level filter fields.
func matchesFilter(doc *domain.Document, filter driven.SimilarityFilter) bool {
	if len(filter.DocumentIDs) > 0 && !containsString(filter.DocumentIDs, doc.ID) {
		return false
	}
	if len(filter.ContentTypes) > 0 && !containsType(filter.ContentTypes, doc.ContentType) {
		return false
	}
	if !filter.After.IsZero() && doc.CreatedAt.Before(filter.After) {
		return false
	}
	if !filter.Before.IsZero() && doc.CreatedAt.After(filter.Before) {
		return false
	}
	return true
}

func toMatch(doc *domain.Document, rec domain.ChunkRecord) domain.DocumentMatch {
	return domain.DocumentMatch{
		ChunkID:     rec.ID,
		DocumentID:  doc.ID,
		Content:     rec.Chunk.Content,
		ChunkIndex:  rec.Chunk.Index,
		Filename:    doc.Filename,
		Filepath:    doc.Filepath,
		ContentType: doc.ContentType,
		Metadata:    rec.Chunk.Metadata,
		CreatedAt:   rec.CreatedAt,
	}
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

func containsType(values []domain.ContentType, v domain.ContentType) bool {
	for _, t := range values {
		if t == v {
			return true
		}
	}
	return false
}
