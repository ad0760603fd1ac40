// Package extractor reads source files from disk: metadata for the
// deduplication decision, then text content for chunking. Non-UTF-8
// text files go through an encoding fallback chain before extraction
// fails.
package extractor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
	"github.com/alexandria-labs/alexandria-cli/internal/logger"
)

// Extractor implements driven.TextExtractor against the local
// filesystem.
type Extractor struct {
	runner CommandRunner
}

var _ driven.TextExtractor = (*Extractor)(nil)

// New creates a filesystem extractor.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// FileMetadata builds an unsaved Document for the file at path. The
// returned document has no ID and StatusPending; persistence and
// deduplication are the orchestrator's job.
func (e *Extractor) FileMetadata(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving %s: %w", domain.ErrExtraction, path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrExtraction, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	if !domain.IsSupportedFile(abs) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, filepath.Ext(abs))
	}

	hash, err := hashFile(abs)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(abs))
	return &domain.Document{
		Filename:     filepath.Base(abs),
		Filepath:     abs,
		ContentHash:  hash,
		Size:         info.Size(),
		MIMEType:     mime.TypeByExtension(ext),
		ContentType:  domain.ClassifyContent(abs),
		Status:       domain.StatusPending,
		LastModified: info.ModTime().UTC(),
		Metadata: map[string]any{
			"extension": ext,
		},
	}, nil
}

// ExtractText reads the file's text content. Binary document formats
// go through format-specific extraction; everything else is decoded
// as text, falling back through BOM-marked UTF-16, Windows-1252 and
// Latin-1 when the bytes are not valid UTF-8.
func (e *Extractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return e.extractPDF(ctx, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return "", fmt.Errorf("%w: reading %s: %w", domain.ErrExtraction, path, err)
	}

	switch ext {
	case ".docx":
		return extractDocx(data, path)
	case ".doc", ".rtf", ".odt":
		return "", fmt.Errorf("%w: no text extractor for %s", domain.ErrUnsupportedType, ext)
	case ".html":
		decoded, err := decodeText(data, path)
		if err != nil {
			return "", err
		}
		return stripHTML(decoded), nil
	}
	return decodeText(data, path)
}

// decodeText tries each encoding in order and returns the first
// successful decode.
func decodeText(data []byte, path string) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	type candidate struct {
		name string
		enc  encoding.Encoding
	}
	var decoders []candidate
	// UTF-16 only when a BOM identifies it; without one, almost any
	// even-length byte string "decodes" to garbage.
	if hasUTF16BOM(data) {
		decoders = append(decoders, candidate{"utf-16", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)})
	}
	decoders = append(decoders,
		candidate{"windows-1252", charmap.Windows1252},
		candidate{"latin-1", charmap.ISO8859_1},
	)
	for _, d := range decoders {
		decoded, err := d.enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		if utf8.Valid(decoded) {
			logger.Debug("Decoded %s as %s", filepath.Base(path), d.name)
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("%w: %s: no usable text encoding", domain.ErrExtraction, path)
}

// hasUTF16BOM reports a leading FF FE or FE FF byte order mark.
func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 &&
		((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF))
}

// ScanDirectory lists supported files under dir in sorted order.
// Hidden files and directories (dot-prefixed) are skipped.
func (e *Extractor) ScanDirectory(ctx context.Context, dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", domain.ErrExtraction, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(name, ".") || !recursive) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		if domain.IsSupportedFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scanning %s: %w", domain.ErrExtraction, dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// hashFile streams the file through SHA-256.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %w", domain.ErrExtraction, path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: hashing %s: %w", domain.ErrExtraction, path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
