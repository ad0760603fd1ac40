package segmenter

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

const (
	// sampleLines is how many leading lines are measured to estimate
	// the file's average line length.
	sampleLines = 1000

	// minAvgLineLength floors the estimate so files full of short
	// lines do not produce absurd lines-per-segment counts.
	minAvgLineLength = 50

	// scannerBufferSize accommodates pathologically long lines.
	scannerBufferSize = 16 * 1024 * 1024
)

// segmentByLines splits the file at line boundaries. Lines per
// segment is derived from the preferred segment size and a sampled
// average line length; consecutive segments repeat the configured
// number of trailing lines.
func (s *Segmenter) segmentByLines(ctx context.Context, path string, run *Run) error {
	avg, err := sampleAvgLineLength(path)
	if err != nil {
		return err
	}
	linesPerSegment := int(s.cfg.PreferredSegmentSize / int64(avg))
	if linesPerSegment < 1 {
		linesPerSegment = 1
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", domain.ErrSegmentation, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), scannerBufferSize)

	var (
		buf       [][]byte
		bufBytes  int64
		lineNo    int
		startLine int
		byteOff   int64
		startByte int64
		fresh     int
	)
	flush := func(final bool) error {
		// The buffer can hold nothing but carried overlap when the
		// file ends exactly at a flush boundary; such a segment would
		// repeat content the previous one already has.
		if len(buf) == 0 || fresh == 0 {
			return nil
		}
		fresh = 0
		content := bytes.Join(buf, []byte{'\n'})
		if err := run.writeSegment(content, domain.FileSegment{
			StartByte: startByte,
			EndByte:   byteOff,
			LineStart: startLine,
			LineEnd:   lineNo,
		}); err != nil {
			return err
		}
		if final || s.cfg.OverlapLines <= 0 {
			buf = nil
			bufBytes = 0
			startLine = lineNo
			startByte = byteOff
			return nil
		}
		keep := s.cfg.OverlapLines
		if keep >= len(buf) {
			keep = len(buf) - 1
		}
		if keep <= 0 {
			buf = nil
			bufBytes = 0
			startLine = lineNo
			startByte = byteOff
			return nil
		}
		tail := buf[len(buf)-keep:]
		carried := make([][]byte, len(tail))
		var carriedBytes int64
		for i, l := range tail {
			carried[i] = l
			carriedBytes += int64(len(l)) + 1
		}
		buf = carried
		bufBytes = carriedBytes
		startLine = lineNo - keep
		startByte = byteOff - carriedBytes
		return nil
	}

	for scanner.Scan() {
		if lineNo%4096 == 0 {
			if err := checkCtx(ctx); err != nil {
				return err
			}
		}
		line := append([]byte(nil), scanner.Bytes()...)
		buf = append(buf, line)
		bufBytes += int64(len(line)) + 1
		fresh++
		lineNo++
		byteOff += int64(len(line)) + 1

		segLines := len(buf)
		if segLines >= linesPerSegment || bufBytes >= s.cfg.PreferredSegmentSize {
			if err := flush(false); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: scanning %s: %w", domain.ErrSegmentation, path, err)
	}
	return flush(true)
}

// sampleAvgLineLength measures the average length of the file's first
// sampleLines lines, floored at minAvgLineLength.
func sampleAvgLineLength(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: opening %s: %w", domain.ErrSegmentation, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), scannerBufferSize)

	var total, count int
	for scanner.Scan() && count < sampleLines {
		total += len(scanner.Bytes()) + 1
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("%w: sampling %s: %w", domain.ErrSegmentation, path, err)
	}
	if count == 0 {
		return minAvgLineLength, nil
	}
	avg := total / count
	if avg < minAvgLineLength {
		avg = minAvgLineLength
	}
	return avg, nil
}
