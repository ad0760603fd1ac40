package driven

import (
	"context"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

// TextExtractor reads source files: metadata for dedup decisions,
// then text content for chunking.
type TextExtractor interface {
	// FileMetadata builds an unsaved Document from the file on disk:
	// content hash, size, MIME type, classification, mod time.
	FileMetadata(ctx context.Context, path string) (*domain.Document, error)

	// ExtractText returns the file's text content. Text files go
	// through an encoding fallback chain before failing with
	// domain.ErrExtraction.
	ExtractText(ctx context.Context, path string) (string, error)

	// ScanDirectory lists supported files under dir, optionally
	// recursing into subdirectories.
	ScanDirectory(ctx context.Context, dir string, recursive bool) ([]string, error)
}
