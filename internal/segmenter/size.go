package segmenter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

// lookaheadBytes is how far past the preferred cut point the size
// strategy searches for a line break before giving up and cutting raw.
const lookaheadBytes = 4096

// segmentBySize splits the file at raw byte offsets, extending each
// cut by up to lookaheadBytes to land on a line break. Consecutive
// segments overlap by an approximate byte count derived from the
// configured overlap lines and the observed average line length.
func (s *Segmenter) segmentBySize(ctx context.Context, path string, run *Run) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", domain.ErrSegmentation, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", domain.ErrSegmentation, path, err)
	}
	total := info.Size()

	var offset int64
	for offset < total {
		if err := checkCtx(ctx); err != nil {
			return err
		}

		want := s.cfg.PreferredSegmentSize
		if remaining := total - offset; remaining < want {
			want = remaining
		}
		buf := make([]byte, want+lookaheadBytes)
		n, err := f.ReadAt(buf, offset)
		if err != nil && err != io.EOF {
			return fmt.Errorf("%w: reading %s at %d: %w", domain.ErrSegmentation, path, offset, err)
		}
		buf = buf[:n]

		end := int(want)
		if end > len(buf) {
			end = len(buf)
		}
		if offset+int64(end) < total {
			// Extend to the next line break within the lookahead.
			if i := bytes.IndexByte(buf[end:], '\n'); i >= 0 {
				end += i + 1
			}
		}

		content := buf[:end]
		if err := run.writeSegment(content, domain.FileSegment{
			StartByte: offset,
			EndByte:   offset + int64(end),
		}); err != nil {
			return err
		}

		next := offset + int64(end)
		if next >= total {
			break
		}
		if back := s.overlapBytes(content); back > 0 && int64(back) < int64(end) {
			next -= int64(back)
			// Snap the overlap start forward to a line break so the
			// repeated region begins on a whole line.
			if i := s.lineStartAfter(f, next, offset+int64(end)); i > next {
				next = i
			}
		}
		if next <= offset {
			next = offset + int64(end)
		}
		offset = next
	}
	return nil
}

// overlapBytes estimates how many bytes OverlapLines cover, using the
// average line length observed in the segment just written.
func (s *Segmenter) overlapBytes(content []byte) int {
	if s.cfg.OverlapLines <= 0 || len(content) == 0 {
		return 0
	}
	lines := bytes.Count(content, []byte{'\n'})
	if lines == 0 {
		return 0
	}
	avg := float64(len(content)) / float64(lines)
	return int(avg * float64(s.cfg.OverlapLines) * s.cfg.LineLengthFactor)
}

// lineStartAfter returns the offset of the first line start at or
// after from, searching no further than limit.
func (s *Segmenter) lineStartAfter(f *os.File, from, limit int64) int64 {
	span := limit - from
	if span <= 0 {
		return from
	}
	if span > lookaheadBytes {
		span = lookaheadBytes
	}
	buf := make([]byte, span)
	n, err := f.ReadAt(buf, from)
	if err != nil && err != io.EOF {
		return from
	}
	if i := bytes.IndexByte(buf[:n], '\n'); i >= 0 {
		return from + int64(i) + 1
	}
	return from
}
