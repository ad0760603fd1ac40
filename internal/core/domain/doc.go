// Package domain defines the core business entities for Alexandria.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A source file submitted for ingestion
//   - TextChunk: A bounded slice of extracted text
//   - ChunkRecord: The persisted, embedded form of a TextChunk
//   - FileSegment: A byte-range slice of an oversized source file
//   - SearchQuery / DocumentMatch: The retrieval request and hit types
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
