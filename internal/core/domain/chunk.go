package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// TextChunk is a bounded slice of extracted text, the atomic unit
// that gets embedded and indexed. Chunks are immutable once built:
// construct them with NewTextChunk so the derived fields (hash,
// character count) are computed exactly once.
type TextChunk struct {
	// Index is the ordinal position within the document. Indices
	// form a contiguous sequence starting at 0, or at a supplied
	// offset when a document is processed segment by segment.
	Index int

	// Content is the chunk text.
	Content string

	// ContentHash is the SHA-256 digest of Content (hex).
	ContentHash string

	// CharCount is len(Content) in bytes.
	CharCount int

	// TokenCount is the exact token count as measured by the
	// configured TokenCounter. Zero until the token post-pass runs.
	TokenCount int

	// Strategy identifies the chunking strategy that produced this chunk.
	Strategy ChunkStrategy

	// Metadata carries structural context: section title, header
	// level, sub-chunk flags, segment index.
	Metadata map[string]any
}

// NewTextChunk builds a chunk with its derived fields populated.
func NewTextChunk(index int, content string, strategy ChunkStrategy) TextChunk {
	sum := sha256.Sum256([]byte(content))
	return TextChunk{
		Index:       index,
		Content:     content,
		ContentHash: hex.EncodeToString(sum[:]),
		CharCount:   len(content),
		Strategy:    strategy,
		Metadata:    make(map[string]any),
	}
}

// ChunkRecord is the persisted form of a TextChunk: the chunk fields
// plus the owning document and the embedding vector. Records are
// deleted only via cascade when their document is deleted.
type ChunkRecord struct {
	// ID is the unique identifier for the stored chunk.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Chunk holds the text chunk fields.
	Chunk TextChunk

	// Embedding is the vector representation for similarity search.
	Embedding []float32

	// CreatedAt is when the record was stored.
	CreatedAt time.Time
}
