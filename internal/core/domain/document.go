package domain

import "time"

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

// Document lifecycle states. A document re-enters StatusProcessing
// only when an update pass replaces its chunk set.
const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusFailed     DocumentStatus = "failed"
)

// Document represents a source file submitted for ingestion.
// Its identity is the content hash: re-ingesting byte-identical
// content must never create a second document record.
type Document struct {
	// ID is the unique identifier for the document record.
	ID string

	// Filename is the base name of the source file.
	Filename string

	// Filepath is the absolute path of the source file.
	Filepath string

	// ContentHash is the SHA-256 digest of the file bytes (hex).
	// Unique across the store; used for deduplication.
	ContentHash string

	// Size is the file size in bytes.
	Size int64

	// MIMEType is the guessed MIME type (may be empty).
	MIMEType string

	// ContentType is the classification used for strategy dispatch
	// (text, markdown, code, ...).
	ContentType ContentType

	// Status is the current ingestion state.
	Status DocumentStatus

	// ChunkCount is the number of chunks currently stored.
	ChunkCount int

	// LastModified is the source file's modification time at ingest.
	LastModified time.Time

	// Metadata contains arbitrary key-value pairs (e.g. extension).
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the record was last updated.
	UpdatedAt time.Time
}
