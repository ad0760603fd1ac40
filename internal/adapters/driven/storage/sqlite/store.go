package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/alexandria-labs/alexandria-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
)

// Store is a SQLite-backed DocumentStore. Embeddings live in the
// chunks table as little-endian float32 blobs; distance is computed
// in-process after SQL pre-filtering.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.DocumentStore = (*Store)(nil)

// NewStore opens (or creates) the store at the specified data
// directory. If dataDir is empty, defaults to ~/.alexandria/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".alexandria", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "alexandria.db")

	// WAL mode for better concurrency under the ingestion worker pool.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}
	return nil
}

// FindByHash retrieves a document by content hash.
func (s *Store) FindByHash(ctx context.Context, hash string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, documentSelect+"WHERE content_hash = ?", hash)
	return scanDocument(row)
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, documentSelect+"WHERE id = ?", id)
	return scanDocument(row)
}

// CreateDocument stores a new document record. A duplicate content
// hash fails with domain.ErrAlreadyExists.
func (s *Store) CreateDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, filepath, content_hash, size, mime_type,
			content_type, status, chunk_count, last_modified, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Filename, doc.Filepath, doc.ContentHash, doc.Size, doc.MIMEType,
		string(doc.ContentType), string(doc.Status), doc.ChunkCount,
		doc.LastModified, string(metadataJSON), doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: content hash %s", domain.ErrAlreadyExists, doc.ContentHash)
		}
		return fmt.Errorf("creating document: %w", err)
	}
	return nil
}

// ReplaceChunks atomically replaces the document's chunk set.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, records []domain.ChunkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, chunk_index, content, content_hash,
			char_count, token_count, strategy, embedding, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range records {
		metadataJSON, err := json.Marshal(rec.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		createdAt := rec.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, documentID, rec.Chunk.Index,
			rec.Chunk.Content, rec.Chunk.ContentHash, rec.Chunk.CharCount,
			rec.Chunk.TokenCount, string(rec.Chunk.Strategy),
			float32SliceToBytes(rec.Embedding), string(metadataJSON), createdAt); err != nil {
			return fmt.Errorf("inserting chunk %d: %w", rec.Chunk.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// UpdateStatus transitions the document's lifecycle state.
func (s *Store) UpdateStatus(ctx context.Context, documentID string, status domain.DocumentStatus, chunkCount int) error {
	var (
		res sql.Result
		err error
	)
	if chunkCount >= 0 {
		res, err = s.db.ExecContext(ctx, `
			UPDATE documents SET status = ?, chunk_count = ?, updated_at = ? WHERE id = ?
		`, string(status), chunkCount, time.Now().UTC(), documentID)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE documents SET status = ?, updated_at = ? WHERE id = ?
		`, string(status), time.Now().UTC(), documentID)
	}
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return requireRowAffected(res, documentID)
}

// TouchDocument refreshes UpdatedAt and LastModified.
func (s *Store) TouchDocument(ctx context.Context, documentID string, lastModified time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET last_modified = ?, updated_at = ? WHERE id = ?
	`, lastModified, time.Now().UTC(), documentID)
	if err != nil {
		return fmt.Errorf("touching document: %w", err)
	}
	return requireRowAffected(res, documentID)
}

// DeleteByHash removes the document with the given content hash.
// Chunk deletion cascades via the foreign key.
func (s *Store) DeleteByHash(ctx context.Context, hash string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE content_hash = ?", hash)
	if err != nil {
		return false, fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

// SimilarityQuery ranks stored chunks by distance to the query vector.
// SQL narrows the candidate set; the distance itself is computed here
// because SQLite has no native vector type.
func (s *Store) SimilarityQuery(ctx context.Context, vector []float32, metric domain.DistanceMetric, filter driven.SimilarityFilter, limit int) ([]domain.DocumentMatch, error) {
	query := `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.embedding, c.metadata, c.created_at,
			d.filename, d.filepath, d.content_type
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL AND d.status = ?
	`
	args := []any{string(domain.StatusProcessed)}

	if len(filter.DocumentIDs) > 0 {
		query += " AND c.document_id IN (" + placeholders(len(filter.DocumentIDs)) + ")"
		for _, id := range filter.DocumentIDs {
			args = append(args, id)
		}
	}
	if len(filter.ContentTypes) > 0 {
		query += " AND d.content_type IN (" + placeholders(len(filter.ContentTypes)) + ")"
		for _, ct := range filter.ContentTypes {
			args = append(args, string(ct))
		}
	}
	if !filter.After.IsZero() {
		query += " AND d.created_at >= ?"
		args = append(args, filter.After)
	}
	if !filter.Before.IsZero() {
		query += " AND d.created_at <= ?"
		args = append(args, filter.Before)
	}
	if filter.ExcludeChunkID != "" {
		query += " AND c.id != ?"
		args = append(args, filter.ExcludeChunkID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	type scored struct {
		match    domain.DocumentMatch
		distance float64
	}
	var candidates []scored
	for rows.Next() {
		match, embedding, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		dist := domain.Distance(metric, vector, embedding)
		if math.IsInf(dist, 1) {
			continue
		}
		match.Similarity = domain.SimilarityFromDistance(dist)
		candidates = append(candidates, scored{match: match, distance: dist})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
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
func (s *Store) ChunksForDocument(ctx context.Context, documentID string, limit int) ([]domain.DocumentMatch, error) {
	query := `
		SELECT c.id, c.document_id, c.chunk_index, c.content, c.embedding, c.metadata, c.created_at,
			d.filename, d.filepath, d.content_type
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.document_id = ?
		ORDER BY c.chunk_index ASC
	`
	args := []any{documentID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying document chunks: %w", err)
	}
	defer rows.Close()

	var matches []domain.DocumentMatch //nolint:prealloc // size unknown from query
	for rows.Next() {
		match, _, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document chunks: %w", err)
	}
	return matches, nil
}

// GetChunkEmbedding returns the stored vector for a chunk.
func (s *Store) GetChunkEmbedding(ctx context.Context, chunkID string) ([]float32, error) {
	var blob []byte
	row := s.db.QueryRowContext(ctx, "SELECT embedding FROM chunks WHERE id = ?", chunkID)
	if err := row.Scan(&blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: chunk %s", domain.ErrNotFound, chunkID)
		}
		return nil, fmt.Errorf("scanning embedding: %w", err)
	}
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrNotFound, chunkID)
	}
	return bytesToFloat32Slice(blob), nil
}

// AggregateStats summarises the stored corpus.
func (s *Store) AggregateStats(ctx context.Context) (*domain.StoreStats, error) {
	stats := &domain.StoreStats{
		DocumentsByStatus:      make(map[domain.DocumentStatus]int),
		DocumentsByContentType: make(map[domain.ContentType]int),
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM documents GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("querying status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		stats.DocumentsByStatus[domain.DocumentStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status counts: %w", err)
	}

	typeRows, err := s.db.QueryContext(ctx, "SELECT content_type, COUNT(*) FROM documents GROUP BY content_type")
	if err != nil {
		return nil, fmt.Errorf("querying content type counts: %w", err)
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var ct string
		var count int
		if err := typeRows.Scan(&ct, &count); err != nil {
			return nil, fmt.Errorf("scanning content type count: %w", err)
		}
		stats.DocumentsByContentType[domain.ContentType(ct)] = count
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content type counts: %w", err)
	}

	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&stats.TotalChunks); err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	return stats, nil
}

const documentSelect = `
	SELECT id, filename, filepath, content_hash, size, mime_type, content_type,
		status, chunk_count, last_modified, metadata, created_at, updated_at
	FROM documents
`

// scanDocument reads one document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var mimeType sql.NullString
	var contentType, status, metadataJSON string
	var lastModified, createdAt, updatedAt sql.NullTime
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.Filepath, &doc.ContentHash,
		&doc.Size, &mimeType, &contentType, &status, &doc.ChunkCount,
		&lastModified, &metadataJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.MIMEType = mimeType.String
	doc.ContentType = domain.ContentType(contentType)
	doc.Status = domain.DocumentStatus(status)
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	if lastModified.Valid {
		doc.LastModified = lastModified.Time
	}
	if createdAt.Valid {
		doc.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}
	return &doc, nil
}

// scanMatch reads one chunk-join-document row into a DocumentMatch,
// returning the raw embedding alongside.
func scanMatch(rows *sql.Rows) (domain.DocumentMatch, []float32, error) {
	var match domain.DocumentMatch
	var blob []byte
	var metadataJSON, contentType string
	var createdAt sql.NullTime
	if err := rows.Scan(&match.ChunkID, &match.DocumentID, &match.ChunkIndex,
		&match.Content, &blob, &metadataJSON, &createdAt,
		&match.Filename, &match.Filepath, &contentType); err != nil {
		return domain.DocumentMatch{}, nil, fmt.Errorf("scanning chunk: %w", err)
	}
	match.ContentType = domain.ContentType(contentType)
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &match.Metadata); err != nil {
			return domain.DocumentMatch{}, nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}
	if createdAt.Valid {
		match.CreatedAt = createdAt.Time
	}
	return match, bytesToFloat32Slice(blob), nil
}

// requireRowAffected converts a zero-row update into ErrNotFound.
func requireRowAffected(res sql.Result, documentID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	return nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
