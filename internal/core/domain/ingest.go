package domain

// IngestionResult aggregates the outcome of a batch ingestion run.
// Per-document failures are recorded here and never abort siblings.
type IngestionResult struct {
	// TotalFiles is the number of files considered.
	TotalFiles int

	// ProcessedFiles is the number of files fully ingested.
	ProcessedFiles int

	// SkippedFiles is the number of files skipped by dedup policy.
	SkippedFiles int

	// FailedFiles is the number of files that errored.
	FailedFiles int

	// TotalChunks is the number of chunk records created.
	TotalChunks int

	// Errors holds one message per failed item.
	Errors []string
}

// Merge folds another result into this one. Used when worker results
// are combined into the batch aggregate.
func (r *IngestionResult) Merge(other IngestionResult) {
	r.TotalFiles += other.TotalFiles
	r.ProcessedFiles += other.ProcessedFiles
	r.SkippedFiles += other.SkippedFiles
	r.FailedFiles += other.FailedFiles
	r.TotalChunks += other.TotalChunks
	r.Errors = append(r.Errors, other.Errors...)
}

// StoreStats summarises the stored corpus for the stats command.
type StoreStats struct {
	// DocumentsByStatus counts documents per lifecycle state.
	DocumentsByStatus map[DocumentStatus]int

	// DocumentsByContentType counts documents per classification.
	DocumentsByContentType map[ContentType]int

	// TotalChunks is the number of stored chunk records.
	TotalChunks int
}
