package segmenter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

var sectionHeaderRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// segmentBySections splits a markdown file at section headers so each
// segment carries one section. A section larger than the maximum
// segment size is sub-split at line boundaries, with every piece
// tagged as a sub-chunk of the same section. Headers inside fenced
// code blocks do not start sections.
func (s *Segmenter) segmentBySections(ctx context.Context, path string, run *Run) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", domain.ErrSegmentation, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), scannerBufferSize)

	var (
		section   [][]byte
		title     string
		level     int
		lineNo    int
		startLine int
		byteOff   int64
		startByte int64
		inFence   bool
	)
	flush := func() error {
		if len(section) == 0 {
			return nil
		}
		content := bytes.Join(section, []byte{'\n'})
		if len(bytes.TrimSpace(content)) == 0 {
			section = section[:0]
			startLine = lineNo
			startByte = byteOff
			return nil
		}
		base := domain.FileSegment{
			StartByte:    startByte,
			EndByte:      byteOff,
			LineStart:    startLine,
			LineEnd:      lineNo,
			SectionTitle: title,
			HeaderLevel:  level,
		}
		var err error
		if int64(len(content)) > s.cfg.MaxSegmentSize {
			err = s.subSplitSection(content, base, run)
		} else {
			err = run.writeSegment(content, base)
		}
		section = section[:0]
		startLine = lineNo
		startByte = byteOff
		return err
	}

	for scanner.Scan() {
		if lineNo%4096 == 0 {
			if err := checkCtx(ctx); err != nil {
				return err
			}
		}
		line := append([]byte(nil), scanner.Bytes()...)
		trimmed := strings.TrimSpace(string(line))
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence {
			if m := sectionHeaderRe.FindSubmatch(line); m != nil {
				if err := flush(); err != nil {
					return err
				}
				title = strings.TrimSpace(string(m[2]))
				level = len(m[1])
			}
		}
		section = append(section, line)
		lineNo++
		byteOff += int64(len(line)) + 1
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: scanning %s: %w", domain.ErrSegmentation, path, err)
	}
	return flush()
}

// subSplitSection cuts an oversized section at line boundaries into
// pieces of at most the preferred segment size, all sharing the
// parent section's title.
func (s *Segmenter) subSplitSection(content []byte, base domain.FileSegment, run *Run) error {
	lines := bytes.Split(content, []byte{'\n'})

	var (
		piece     [][]byte
		pieceSize int64
		lineOff   int
		fresh     int
	)
	flush := func(lineEnd int) error {
		// A piece holding only carried overlap has no new content.
		if len(piece) == 0 || fresh == 0 {
			return nil
		}
		seg := base
		seg.LineStart = base.LineStart + lineOff
		seg.LineEnd = base.LineStart + lineEnd
		seg.SubChunk = true
		if err := run.writeSegment(bytes.Join(piece, []byte{'\n'}), seg); err != nil {
			return err
		}
		keep := s.cfg.OverlapLines
		if keep >= len(piece) {
			keep = len(piece) - 1
		}
		if keep <= 0 {
			piece = piece[:0]
			pieceSize = 0
			lineOff = lineEnd
			fresh = 0
			return nil
		}
		// Pieces of one section repeat trailing lines like the
		// line-oriented splitter does.
		tail := piece[len(piece)-keep:]
		carried := make([][]byte, len(tail))
		copy(carried, tail)
		piece = carried
		pieceSize = 0
		for _, l := range piece {
			pieceSize += int64(len(l)) + 1
		}
		lineOff = lineEnd - keep
		fresh = 0
		return nil
	}

	for i, line := range lines {
		piece = append(piece, line)
		pieceSize += int64(len(line)) + 1
		fresh++
		if pieceSize >= s.cfg.PreferredSegmentSize {
			if err := flush(i + 1); err != nil {
				return err
			}
		}
	}
	return flush(len(lines))
}
