package domain

import "time"

// DistanceMetric selects how vector distance is computed.
type DistanceMetric string

// Supported distance metrics.
const (
	MetricEuclidean DistanceMetric = "euclidean"
	MetricCosine    DistanceMetric = "cosine"
)

// Valid reports whether the metric is one of the supported values.
func (m DistanceMetric) Valid() bool {
	return m == MetricEuclidean || m == MetricCosine
}

// SearchQuery is a retrieval request. Constructed per call; stateless.
type SearchQuery struct {
	// QueryText is the text to embed and match against stored chunks.
	QueryText string

	// MaxResults caps the number of matches returned.
	MaxResults int

	// DocumentIDs restricts the search to specific documents.
	DocumentIDs []string

	// ContentTypes restricts the search to documents of these types.
	ContentTypes []ContentType

	// After/Before bound the owning document's creation time.
	// Zero values disable the bound.
	After  time.Time
	Before time.Time

	// Metric selects the distance computation (default euclidean).
	Metric DistanceMetric

	// MinSimilarity drops matches below this score after ranking.
	// Zero disables the post-filter.
	MinSimilarity float64
}

// DocumentMatch is a ranked retrieval hit: a read-only view over a
// ChunkRecord joined with its document's source metadata.
type DocumentMatch struct {
	// ChunkID identifies the matched chunk record.
	ChunkID string

	// DocumentID identifies the owning document.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Similarity is 1/(1+distance), in (0, 1]. Zero for unranked
	// retrieval such as direct chunk listing.
	Similarity float64

	// ChunkIndex is the chunk's ordinal within its document.
	ChunkIndex int

	// Filename, Filepath and ContentType describe the source document.
	Filename    string
	Filepath    string
	ContentType ContentType

	// Metadata is the chunk's structural metadata.
	Metadata map[string]any

	// CreatedAt is when the chunk record was stored.
	CreatedAt time.Time
}

// SearchResult is the complete outcome of one retrieval request.
type SearchResult struct {
	// Query is the original query text.
	Query string

	// Matches are ordered by descending similarity.
	Matches []DocumentMatch

	// TotalMatches is len(Matches).
	TotalMatches int

	// SearchTime is the end-to-end duration of the request.
	SearchTime time.Duration

	// EmbeddingTime is the portion spent embedding the query.
	EmbeddingTime time.Duration
}

// HasResults reports whether the search returned any matches.
func (r SearchResult) HasResults() bool {
	return len(r.Matches) > 0
}

// BestMatch returns the highest scoring match, or nil if none.
func (r SearchResult) BestMatch() *DocumentMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// ContextualMatch pairs a ranked match with the chunks immediately
// surrounding it in the same document, so consumers get context
// without a second query round trip.
type ContextualMatch struct {
	// Match is the ranked hit.
	Match DocumentMatch

	// Context holds the chunks from ContextStart onward, in index
	// order, including the match itself.
	Context []DocumentMatch

	// ContextStart is the chunk index of the first context chunk.
	ContextStart int

	// DocumentChunkTotal is the total chunk count of the document.
	DocumentChunkTotal int
}
