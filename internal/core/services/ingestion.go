package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexandria-labs/alexandria-cli/internal/chunker"
	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driving"
	"github.com/alexandria-labs/alexandria-cli/internal/logger"
	"github.com/alexandria-labs/alexandria-cli/internal/segmenter"
)

// embedBatchSize bounds how many chunk texts go to the embedding
// service per request.
const embedBatchSize = 32

// Ensure IngestionOrchestrator implements the interface.
var _ driving.IngestionService = (*IngestionOrchestrator)(nil)

// IngestionOrchestrator drives documents through extraction,
// segmentation, chunking, embedding and storage.
type IngestionOrchestrator struct {
	store     driven.DocumentStore
	embedder  driven.EmbeddingService
	extractor driven.TextExtractor
	chunker   *chunker.Chunker
	segmenter *segmenter.Segmenter
	cfg       domain.IngestConfig
}

// NewIngestionOrchestrator creates an ingestion orchestrator.
func NewIngestionOrchestrator(
	store driven.DocumentStore,
	embedder driven.EmbeddingService,
	extractor driven.TextExtractor,
	chnk *chunker.Chunker,
	seg *segmenter.Segmenter,
	cfg domain.IngestConfig,
) *IngestionOrchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &IngestionOrchestrator{
		store:     store,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chnk,
		segmenter: seg,
		cfg:       cfg,
	}
}

// IngestFile ingests a single file.
func (o *IngestionOrchestrator) IngestFile(ctx context.Context, path string) (*domain.IngestionResult, error) {
	result := &domain.IngestionResult{TotalFiles: 1}
	if err := o.ingestOne(ctx, path, result); err != nil {
		return result, err
	}
	return result, nil
}

// IngestDirectory ingests all supported files under dir through a
// bounded worker pool. The summary always comes back; per-document
// failures are aggregated, never fatal for siblings.
func (o *IngestionOrchestrator) IngestDirectory(ctx context.Context, dir string, recursive bool) (*domain.IngestionResult, error) {
	paths, err := o.extractor.ScanDirectory(ctx, dir, recursive)
	if err != nil {
		return nil, fmt.Errorf("scanning directory: %w", err)
	}

	result := &domain.IngestionResult{}
	if len(paths) == 0 {
		return result, nil
	}

	logger.Info("Ingesting %d files from %s with %d workers", len(paths), dir, o.cfg.Workers)

	jobs := make(chan string)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	workers := o.cfg.Workers
	if workers > len(paths) {
		workers = len(paths)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				// Cancellation is honoured at document boundaries: a
				// document in flight finishes, the rest are abandoned.
				if ctx.Err() != nil {
					return
				}
				local := domain.IngestionResult{TotalFiles: 1}
				if err := o.ingestOne(ctx, path, &local); err != nil {
					logger.Warn("Failed to ingest %s: %v", path, err)
				}
				mu.Lock()
				result.Merge(local)
				mu.Unlock()
			}
		}()
	}

	for _, path := range paths {
		select {
		case jobs <- path:
		case <-ctx.Done():
			// Stop feeding; running documents complete.
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	logger.Info("Batch complete: %d processed, %d skipped, %d failed, %d chunks",
		result.ProcessedFiles, result.SkippedFiles, result.FailedFiles, result.TotalChunks)
	return result, nil
}

// Delete removes the document with the given content hash.
func (o *IngestionOrchestrator) Delete(ctx context.Context, hash string) (bool, error) {
	return o.store.DeleteByHash(ctx, hash)
}

// Stats summarises the stored corpus.
func (o *IngestionOrchestrator) Stats(ctx context.Context) (*domain.StoreStats, error) {
	return o.store.AggregateStats(ctx)
}

// ingestOne runs the full pipeline for one file and records the
// outcome in result. The returned error is also counted there.
//
//nolint:gocyclo // Pipeline orchestration with necessary sequential steps
func (o *IngestionOrchestrator) ingestOne(ctx context.Context, path string, result *domain.IngestionResult) error {
	fail := func(err error) error {
		result.FailedFiles++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
		return err
	}

	// 1. METADATA (hash, size, classification)
	meta, err := o.extractor.FileMetadata(ctx, path)
	if err != nil {
		return fail(err)
	}

	// 2. DEDUP DECISION by content hash
	doc, err := o.store.FindByHash(ctx, meta.ContentHash)
	switch {
	case err == nil:
		switch {
		case o.cfg.Force:
			// Forced run ignores freshness; chunks are replaced.
			if err := o.store.TouchDocument(ctx, doc.ID, meta.LastModified); err != nil {
				return fail(fmt.Errorf("touching document: %w", err))
			}
		case o.cfg.UpdateExisting:
			// Update pass reprocesses only when the file on disk is
			// newer than the stored record.
			if !meta.LastModified.After(doc.LastModified) {
				logger.Debug("Skipping %s: stored copy is up to date", path)
				result.SkippedFiles++
				return nil
			}
			if err := o.store.TouchDocument(ctx, doc.ID, meta.LastModified); err != nil {
				return fail(fmt.Errorf("touching document: %w", err))
			}
		case o.cfg.SkipExisting && (doc.ChunkCount > 0 || doc.Status != domain.StatusFailed):
			logger.Debug("Skipping %s: identical content already stored", path)
			result.SkippedFiles++
			return nil
		case o.cfg.SkipExisting:
			// A failed earlier run left no chunks; reprocess to heal it.
			if err := o.store.TouchDocument(ctx, doc.ID, meta.LastModified); err != nil {
				return fail(fmt.Errorf("touching document: %w", err))
			}
		default:
			return fail(fmt.Errorf("%w: content hash %s", domain.ErrAlreadyExists, meta.ContentHash))
		}
	case errors.Is(err, domain.ErrNotFound):
		doc = meta
		doc.ID = uuid.NewString()
		if err := o.store.CreateDocument(ctx, doc); err != nil {
			// A concurrent worker may have won the insert race.
			if errors.Is(err, domain.ErrAlreadyExists) {
				logger.Debug("Skipping %s: ingested concurrently", path)
				result.SkippedFiles++
				return nil
			}
			return fail(fmt.Errorf("creating document: %w", err))
		}
	default:
		return fail(fmt.Errorf("looking up document: %w", err))
	}

	if err := o.store.UpdateStatus(ctx, doc.ID, domain.StatusProcessing, -1); err != nil {
		return fail(fmt.Errorf("marking processing: %w", err))
	}

	// Everything past this point must resolve the processing state.
	records, err := o.buildRecords(ctx, doc)
	if err == nil && len(records) == 0 {
		err = fmt.Errorf("%w: no chunks created", domain.ErrChunking)
	}
	if err != nil {
		if statusErr := o.store.UpdateStatus(ctx, doc.ID, domain.StatusFailed, -1); statusErr != nil {
			logger.Warn("Failed to mark %s failed: %v", doc.ID, statusErr)
		}
		return fail(err)
	}

	// 5. STORE: old chunks swap out atomically on update passes.
	if err := o.store.ReplaceChunks(ctx, doc.ID, records); err != nil {
		if statusErr := o.store.UpdateStatus(ctx, doc.ID, domain.StatusFailed, -1); statusErr != nil {
			logger.Warn("Failed to mark %s failed: %v", doc.ID, statusErr)
		}
		return fail(fmt.Errorf("storing chunks: %w", err))
	}
	if err := o.store.UpdateStatus(ctx, doc.ID, domain.StatusProcessed, len(records)); err != nil {
		return fail(fmt.Errorf("marking processed: %w", err))
	}

	logger.Debug("Ingested %s: %d chunks", path, len(records))
	result.ProcessedFiles++
	result.TotalChunks += len(records)
	return nil
}

// buildRecords extracts, chunks and embeds the document's content.
func (o *IngestionOrchestrator) buildRecords(ctx context.Context, doc *domain.Document) ([]domain.ChunkRecord, error) {
	// 3. EXTRACT + CHUNK, segment by segment for oversized files
	chunks, err := o.chunkDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	// 4. EMBED in batches
	records := make([]domain.ChunkRecord, 0, len(chunks))
	now := time.Now().UTC()
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := o.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(batch))
		}
		for i, c := range batch {
			records = append(records, domain.ChunkRecord{
				ID:         uuid.NewString(),
				DocumentID: doc.ID,
				Chunk:      c,
				Embedding:  vectors[i],
				CreatedAt:  now,
			})
		}
	}
	return records, nil
}

// chunkDocument produces the document's full chunk sequence. Oversized
// files go through the segmenter first; chunk ordinals stay contiguous
// across segment boundaries.
func (o *IngestionOrchestrator) chunkDocument(ctx context.Context, doc *domain.Document) ([]domain.TextChunk, error) {
	oversized, err := o.segmenter.ShouldSegment(doc.Filepath)
	if err != nil {
		return nil, err
	}
	if !oversized {
		text, err := o.extractor.ExtractText(ctx, doc.Filepath)
		if err != nil {
			return nil, err
		}
		return o.chunker.Chunk(ctx, text, doc.ContentType)
	}

	logger.Info("Segmenting oversized file %s (%d bytes)", doc.Filename, doc.Size)
	run, err := o.segmenter.Segment(ctx, doc.Filepath, doc.ContentType)
	if err != nil {
		// A broken segmentation is not fatal for the document: warn
		// and process the whole file in one pass.
		if errors.Is(err, domain.ErrSegmentation) && ctx.Err() == nil {
			logger.Warn("Segmenting %s failed, processing whole file: %v", doc.Filename, err)
			text, exErr := o.extractor.ExtractText(ctx, doc.Filepath)
			if exErr != nil {
				return nil, exErr
			}
			return o.chunker.Chunk(ctx, text, doc.ContentType)
		}
		return nil, err
	}
	defer run.Release()

	var chunks []domain.TextChunk
	for _, seg := range run.Segments {
		text, err := o.extractor.ExtractText(ctx, seg.Path)
		if err != nil {
			return nil, fmt.Errorf("extracting segment %d: %w", seg.Index, err)
		}
		segChunks, err := o.chunker.ChunkAt(ctx, text, doc.ContentType, len(chunks))
		if err != nil {
			return nil, fmt.Errorf("chunking segment %d: %w", seg.Index, err)
		}
		for i := range segChunks {
			segChunks[i].Metadata["segment_index"] = seg.Index
			if seg.SectionTitle != "" {
				segChunks[i].Metadata["section_title"] = seg.SectionTitle
			}
			if seg.SubChunk {
				segChunks[i].Metadata["section_continuation"] = true
			}
		}
		chunks = append(chunks, segChunks...)
	}
	return chunks, nil
}
