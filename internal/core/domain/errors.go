package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type the pipeline cannot process.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline error taxonomy. Each class carries a distinct
	// propagation policy during batch ingestion.

	// ErrExtraction indicates a file was unreadable or undecodable by
	// any supported text encoding. Recoverable at document granularity.
	ErrExtraction = errors.New("extraction failed")

	// ErrChunking indicates size/token constraints could not be met
	// after recursive splitting reached the minimum-size floor.
	// Recoverable; the offending chunk is dropped or emitted
	// undersized per configured policy.
	ErrChunking = errors.New("chunking failed")

	// ErrStorage indicates a persistence failure. Fatal for the
	// current document; fatal for the run if connectivity is lost.
	ErrStorage = errors.New("storage failed")

	// ErrEmbedding indicates an embedding provider failure. Fatal for
	// the current document (ingestion) or current query (retrieval).
	ErrEmbedding = errors.New("embedding failed")

	// ErrSegmentation indicates file-level segmentation failed. The
	// caller may fall back to whole-file processing at its own risk.
	ErrSegmentation = errors.New("segmentation failed")
)
