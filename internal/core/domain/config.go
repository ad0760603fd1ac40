package domain

// ChunkStrategy selects how extracted text is split into chunks.
type ChunkStrategy string

// Text chunking strategies.
const (
	StrategyFixedSize ChunkStrategy = "fixed_size"
	StrategySentence  ChunkStrategy = "sentence_based"
	StrategyParagraph ChunkStrategy = "paragraph_based"
	StrategyCode      ChunkStrategy = "code_based"
	StrategyMarkdown  ChunkStrategy = "markdown_based"
)

// Valid reports whether the strategy is a known value.
func (s ChunkStrategy) Valid() bool {
	switch s {
	case StrategyFixedSize, StrategySentence, StrategyParagraph, StrategyCode, StrategyMarkdown:
		return true
	}
	return false
}

// UndersizedPolicy decides what happens to a chunk that cannot meet
// the minimum size after maximal splitting (e.g. one oversized token).
// The original behaviour was inconsistent between code paths; here it
// is a single explicit, deterministic choice.
type UndersizedPolicy string

const (
	// DropUndersized discards the offending chunk. This is the
	// default and is deliberately lossy.
	DropUndersized UndersizedPolicy = "drop"

	// EmitUndersized keeps the chunk despite violating the floor.
	EmitUndersized UndersizedPolicy = "emit"
)

// ChunkConfig bounds and shapes text chunking.
type ChunkConfig struct {
	// Strategy is the default strategy when content classification
	// does not force one (code and markdown always dispatch to their
	// dedicated strategies).
	Strategy ChunkStrategy

	// ForceStrategy makes Strategy win over content classification.
	// Set when the strategy was chosen explicitly on the command line.
	ForceStrategy bool

	// MaxChunkSize is the character budget per chunk. Every chunk but
	// possibly the last satisfies len(content) <= MaxChunkSize.
	MaxChunkSize int

	// MinChunkSize is the floor below which accumulated text is not
	// committed as a chunk (see UndersizedPolicy for the exception).
	MinChunkSize int

	// OverlapSize is the trailing slice of a committed chunk carried
	// into the start of the next one.
	OverlapSize int

	// MaxTokens is a hard token budget enforced by the post-pass.
	// Zero disables token enforcement.
	MaxTokens int

	// RespectBoundaries makes the fixed strategy snap to word breaks.
	RespectBoundaries bool

	// PreserveHeaders re-prepends the current markdown header to
	// continuation chunks after an overflow split.
	PreserveHeaders bool

	// Undersized picks the policy for floor violations.
	Undersized UndersizedPolicy
}

// DefaultChunkConfig returns the stock chunking configuration.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Strategy:          StrategySentence,
		MaxChunkSize:      1000,
		MinChunkSize:      100,
		OverlapSize:       100,
		MaxTokens:         512,
		RespectBoundaries: true,
		PreserveHeaders:   true,
		Undersized:        DropUndersized,
	}
}

// SegmentConfig bounds file-level segmentation of oversized files.
type SegmentConfig struct {
	// MaxSegmentSize is the threshold above which a text file is
	// pre-split before extraction.
	MaxSegmentSize int64

	// PreferredSegmentSize is the target size for each segment.
	PreferredSegmentSize int64

	// OverlapLines is the number of trailing lines carried into the
	// next segment.
	OverlapLines int

	// LineLengthFactor scales the sampled average line length when
	// size-based overlap is converted to bytes. The conversion is a
	// heuristic, not exact.
	LineLengthFactor float64

	// TempDir is where segment temp files are created. Empty means
	// the system temp directory.
	TempDir string
}

// DefaultSegmentConfig returns the stock segmentation configuration.
func DefaultSegmentConfig() SegmentConfig {
	return SegmentConfig{
		MaxSegmentSize:       100 * 1024 * 1024,
		PreferredSegmentSize: 50 * 1024 * 1024,
		OverlapLines:         50,
		LineLengthFactor:     1.0,
	}
}

// IngestConfig drives the ingestion orchestrator.
type IngestConfig struct {
	// SkipExisting skips files whose hash already has stored chunks.
	SkipExisting bool

	// UpdateExisting reprocesses a known hash when the file on disk
	// is newer than the stored record.
	UpdateExisting bool

	// Force reprocesses a known hash unconditionally, ignoring both
	// SkipExisting and the UpdateExisting timestamp comparison.
	Force bool

	// Workers bounds the ingestion worker pool for batch runs.
	Workers int

	// Chunk configures text chunking.
	Chunk ChunkConfig

	// Segment configures file-level segmentation.
	Segment SegmentConfig
}

// DefaultIngestConfig returns the stock ingestion configuration.
func DefaultIngestConfig() IngestConfig {
	return IngestConfig{
		SkipExisting: true,
		Workers:      4,
		Chunk:        DefaultChunkConfig(),
		Segment:      DefaultSegmentConfig(),
	}
}
