// Package segmenter pre-splits oversized files into ephemeral
// on-disk segments so that files larger than memory-safe limits can
// be extracted and chunked piecewise. Segments are ordinary temp
// files owned by a Run and removed by Release.
package segmenter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/logger"
)

// Segmenter splits oversized files per a SegmentConfig.
type Segmenter struct {
	cfg domain.SegmentConfig
}

// New creates a segmenter, filling zero config fields with defaults.
func New(cfg domain.SegmentConfig) *Segmenter {
	def := domain.DefaultSegmentConfig()
	if cfg.MaxSegmentSize <= 0 {
		cfg.MaxSegmentSize = def.MaxSegmentSize
	}
	if cfg.PreferredSegmentSize <= 0 || cfg.PreferredSegmentSize > cfg.MaxSegmentSize {
		cfg.PreferredSegmentSize = def.PreferredSegmentSize
		if cfg.PreferredSegmentSize > cfg.MaxSegmentSize {
			cfg.PreferredSegmentSize = cfg.MaxSegmentSize
		}
	}
	if cfg.OverlapLines < 0 {
		cfg.OverlapLines = 0
	}
	if cfg.LineLengthFactor <= 0 {
		cfg.LineLengthFactor = def.LineLengthFactor
	}
	return &Segmenter{cfg: cfg}
}

// Run holds the ordered segments produced for one source file and
// owns their backing temp files.
type Run struct {
	Segments []domain.FileSegment
	dir      string
}

// Release removes every temp file the run created. Safe to call on a
// nil run and safe to call more than once.
func (r *Run) Release() {
	if r == nil || r.dir == "" {
		return
	}
	if err := os.RemoveAll(r.dir); err != nil {
		logger.Warn("Failed to remove segment temp dir %s: %v", r.dir, err)
	}
	r.dir = ""
}

// segmentableExtensions lists the plain-text formats that can be cut
// at byte or line offsets. Binary formats (PDF, DOCX) need their
// extractor to see the whole file and are never segmented.
var segmentableExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".rst":      true,
	".log":      true,
}

// ShouldSegment reports whether the file at path exceeds the
// segmentation threshold and has a format that survives splitting.
func (s *Segmenter) ShouldSegment(path string) (bool, error) {
	if !segmentableExtensions[strings.ToLower(filepath.Ext(path))] {
		return false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", domain.ErrSegmentation, path, err)
	}
	return info.Size() > s.cfg.MaxSegmentSize, nil
}

// Segment splits the file at path into ordered segments. The strategy
// follows the content classification: markdown splits at section
// headers, line-oriented text splits at line boundaries, and
// everything else splits at raw byte offsets snapped to line breaks.
// The caller must Release the returned run.
func (s *Segmenter) Segment(ctx context.Context, path string, contentType domain.ContentType) (*Run, error) {
	dir, err := os.MkdirTemp(s.cfg.TempDir, "alexandria-segments-")
	if err != nil {
		return nil, fmt.Errorf("%w: creating temp dir: %w", domain.ErrSegmentation, err)
	}
	run := &Run{dir: dir}

	switch contentType {
	case domain.ContentMarkdown:
		err = s.segmentBySections(ctx, path, run)
	case domain.ContentText, domain.ContentCode, domain.ContentCSV, domain.ContentStructured, domain.ContentMarkup:
		err = s.segmentByLines(ctx, path, run)
	default:
		err = s.segmentBySize(ctx, path, run)
	}
	if err != nil {
		run.Release()
		return nil, err
	}

	logger.Debug("Segmented %s into %d segments", filepath.Base(path), len(run.Segments))
	return run, nil
}

// writeSegment persists content as the run's next segment file and
// appends its descriptor.
func (r *Run) writeSegment(content []byte, seg domain.FileSegment) error {
	seg.Index = len(r.Segments)
	seg.Path = filepath.Join(r.dir, fmt.Sprintf("segment-%04d.txt", seg.Index))
	seg.Size = int64(len(content))
	if err := os.WriteFile(seg.Path, content, 0o600); err != nil {
		return fmt.Errorf("%w: writing segment %d: %w", domain.ErrSegmentation, seg.Index, err)
	}
	r.Segments = append(r.Segments, seg)
	return nil
}

func checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSegmentation, err)
	}
	return nil
}
