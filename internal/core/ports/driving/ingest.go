package driving

import (
	"context"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

// IngestionService drives one or more documents through the
// extraction, chunking, embedding and storage pipeline.
type IngestionService interface {
	// IngestFile ingests a single file.
	IngestFile(ctx context.Context, path string) (*domain.IngestionResult, error)

	// IngestDirectory ingests all supported files under dir. Batch
	// runs always complete with a summary; per-document failures are
	// aggregated, never fatal for siblings.
	IngestDirectory(ctx context.Context, dir string, recursive bool) (*domain.IngestionResult, error)

	// Delete removes the document with the given content hash and
	// cascades chunk deletion. Returns false when nothing matched.
	Delete(ctx context.Context, hash string) (bool, error)

	// Stats summarises the stored corpus.
	Stats(ctx context.Context) (*domain.StoreStats, error)
}
