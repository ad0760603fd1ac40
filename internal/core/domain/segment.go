package domain

// FileSegment is a contiguous byte range of an oversized source file,
// materialised as an ephemeral temp file so text extraction operates
// on a bounded span. Segments are exclusively owned by the ingestion
// run that created them and must be released when the run ends; no
// Document or ChunkRecord may reference a segment path afterwards.
type FileSegment struct {
	// Index is the ordinal position of the segment within the file.
	Index int

	// Path is the ephemeral temp file holding the segment bytes.
	Path string

	// StartByte and EndByte delimit the range in the source file.
	// Line-boundary snapping may shift these from exact multiples
	// of the preferred segment size.
	StartByte int64
	EndByte   int64

	// Size is EndByte - StartByte (or the written byte count for
	// segments rebuilt from buffered lines).
	Size int64

	// LineStart and LineEnd are the covered line numbers when the
	// line-based strategy produced this segment. Zero when unknown.
	LineStart int
	LineEnd   int

	// SectionTitle is the markdown header that opens this segment,
	// when the markdown-section strategy produced it.
	SectionTitle string

	// HeaderLevel is the markdown header depth (1-6), zero otherwise.
	HeaderLevel int

	// SubChunk marks a segment that is one slice of an oversized
	// markdown section, split further by line count.
	SubChunk bool
}
