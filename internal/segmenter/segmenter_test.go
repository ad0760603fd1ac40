package segmenter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func testConfig(t *testing.T) domain.SegmentConfig {
	t.Helper()
	cfg := domain.DefaultSegmentConfig()
	cfg.MaxSegmentSize = 500
	cfg.PreferredSegmentSize = 200
	cfg.OverlapLines = 2
	cfg.TempDir = t.TempDir()
	return cfg
}

func TestShouldSegment(t *testing.T) {
	s := New(testConfig(t))

	small := writeTempFile(t, "small.txt", "just a few bytes")
	big := writeTempFile(t, "big.txt", strings.Repeat("0123456789abcdef\n", 64))

	ok, err := s.ShouldSegment(small)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ShouldSegment(big)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.ShouldSegment(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSegmentation)
}

func TestSegmentByLinesOrderedAndComplete(t *testing.T) {
	cfg := testConfig(t)
	cfg.OverlapLines = 0
	s := New(cfg)

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "line %02d with some filler text to give it length\n", i)
	}
	path := writeTempFile(t, "lines.txt", sb.String())

	run, err := s.Segment(context.Background(), path, domain.ContentText)
	require.NoError(t, err)
	defer run.Release()

	require.Greater(t, len(run.Segments), 1)

	var rebuilt strings.Builder
	prevEnd := 0
	for i, seg := range run.Segments {
		assert.Equal(t, i, seg.Index)
		assert.Equal(t, prevEnd, seg.LineStart, "segment %d does not start where %d ended", i, i-1)
		prevEnd = seg.LineEnd

		data, err := os.ReadFile(seg.Path)
		require.NoError(t, err)
		rebuilt.Write(data)
		rebuilt.WriteByte('\n')
	}
	for i := 0; i < 40; i++ {
		assert.Contains(t, rebuilt.String(), fmt.Sprintf("line %02d", i))
	}
}

func TestSegmentByLinesOverlap(t *testing.T) {
	cfg := testConfig(t)
	cfg.OverlapLines = 2
	s := New(cfg)

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "row %02d padded out with enough characters to matter\n", i)
	}
	path := writeTempFile(t, "overlap.txt", sb.String())

	run, err := s.Segment(context.Background(), path, domain.ContentText)
	require.NoError(t, err)
	defer run.Release()

	require.Greater(t, len(run.Segments), 1)
	for i := 1; i < len(run.Segments); i++ {
		prev, err := os.ReadFile(run.Segments[i-1].Path)
		require.NoError(t, err)
		cur, err := os.ReadFile(run.Segments[i].Path)
		require.NoError(t, err)

		firstLine := strings.SplitN(string(cur), "\n", 2)[0]
		assert.Contains(t, string(prev), firstLine,
			"segment %d does not repeat trailing lines of segment %d", i, i-1)
	}
}

func TestSegmentMarkdownSections(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxSegmentSize = 2000
	s := New(cfg)

	doc := "# Alpha\n\nAlpha body text.\n\n# Beta\n\nBeta body text.\n\n# Gamma\n\nGamma body text.\n"
	path := writeTempFile(t, "doc.md", doc)

	run, err := s.Segment(context.Background(), path, domain.ContentMarkdown)
	require.NoError(t, err)
	defer run.Release()

	require.Len(t, run.Segments, 3)
	assert.Equal(t, "Alpha", run.Segments[0].SectionTitle)
	assert.Equal(t, "Beta", run.Segments[1].SectionTitle)
	assert.Equal(t, "Gamma", run.Segments[2].SectionTitle)
	for _, seg := range run.Segments {
		assert.Equal(t, 1, seg.HeaderLevel)
		assert.False(t, seg.SubChunk)
	}
}

func TestSegmentMarkdownOversizedSectionSubSplits(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxSegmentSize = 300
	cfg.PreferredSegmentSize = 150
	s := New(cfg)

	var sb strings.Builder
	sb.WriteString("# Huge\n\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "body line %02d with sufficient padding characters\n", i)
	}
	path := writeTempFile(t, "huge.md", sb.String())

	run, err := s.Segment(context.Background(), path, domain.ContentMarkdown)
	require.NoError(t, err)
	defer run.Release()

	require.Greater(t, len(run.Segments), 1)
	for _, seg := range run.Segments {
		assert.Equal(t, "Huge", seg.SectionTitle)
		assert.True(t, seg.SubChunk)
	}
}

func TestSegmentMarkdownIgnoresFencedHeaders(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxSegmentSize = 2000
	s := New(cfg)

	doc := "# Real\n\ntext\n\n```\n# fenced pseudo header\n```\n\nmore text\n"
	path := writeTempFile(t, "fenced.md", doc)

	run, err := s.Segment(context.Background(), path, domain.ContentMarkdown)
	require.NoError(t, err)
	defer run.Release()

	require.Len(t, run.Segments, 1)
	assert.Equal(t, "Real", run.Segments[0].SectionTitle)
}

func TestSegmentBySizeSnapsToLineBreaks(t *testing.T) {
	cfg := testConfig(t)
	cfg.PreferredSegmentSize = 120
	cfg.OverlapLines = 0
	s := New(cfg)

	var sb strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&sb, "record %02d has a predictable width for the test\n", i)
	}
	path := writeTempFile(t, "data.bin", sb.String())

	run, err := s.Segment(context.Background(), path, domain.ContentDocument)
	require.NoError(t, err)
	defer run.Release()

	require.Greater(t, len(run.Segments), 1)
	for i, seg := range run.Segments[:len(run.Segments)-1] {
		data, err := os.ReadFile(seg.Path)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(string(data), "\n"),
			"segment %d does not end at a line break", i)
	}
}

func TestReleaseRemovesTempFiles(t *testing.T) {
	s := New(testConfig(t))

	path := writeTempFile(t, "lines.txt", strings.Repeat("a line of text that repeats\n", 30))
	run, err := s.Segment(context.Background(), path, domain.ContentText)
	require.NoError(t, err)
	require.NotEmpty(t, run.Segments)

	segPath := run.Segments[0].Path
	_, err = os.Stat(segPath)
	require.NoError(t, err)

	run.Release()
	_, err = os.Stat(segPath)
	assert.True(t, os.IsNotExist(err))

	// Idempotent, and safe on nil.
	run.Release()
	var nilRun *Run
	nilRun.Release()
}

func TestSegmentCancelledContext(t *testing.T) {
	s := New(testConfig(t))

	path := writeTempFile(t, "lines.txt", strings.Repeat("another line of text here\n", 50))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Segment(ctx, path, domain.ContentText)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSegmentation)
}

func TestShouldSegmentSkipsBinaryFormats(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxSegmentSize = 100
	s := New(cfg)

	// Splitting a PDF at byte offsets would feed the extractor garbage,
	// so size alone must not trigger segmentation.
	pdf := writeTempFile(t, "big.pdf", strings.Repeat("%PDF binary-ish payload\n", 25))
	ok, err := s.ShouldSegment(pdf)
	require.NoError(t, err)
	assert.False(t, ok)

	docx := writeTempFile(t, "big.docx", strings.Repeat("PK zip-ish payload\n", 25))
	ok, err = s.ShouldSegment(docx)
	require.NoError(t, err)
	assert.False(t, ok)

	txt := writeTempFile(t, "big.log", strings.Repeat("a log line with enough width\n", 25))
	ok, err = s.ShouldSegment(txt)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSegmentMarkdownSubSplitOverlap(t *testing.T) {
	cfg := testConfig(t)
	cfg.MaxSegmentSize = 300
	cfg.PreferredSegmentSize = 150
	cfg.OverlapLines = 2
	s := New(cfg)

	var sb strings.Builder
	sb.WriteString("# Huge\n\n")
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "body line %02d with sufficient padding characters\n", i)
	}
	path := writeTempFile(t, "huge.md", sb.String())

	run, err := s.Segment(context.Background(), path, domain.ContentMarkdown)
	require.NoError(t, err)
	defer run.Release()

	require.Greater(t, len(run.Segments), 1)
	for i := 1; i < len(run.Segments); i++ {
		prev, err := os.ReadFile(run.Segments[i-1].Path)
		require.NoError(t, err)
		cur, err := os.ReadFile(run.Segments[i].Path)
		require.NoError(t, err)

		firstLine := strings.SplitN(string(cur), "\n", 2)[0]
		assert.Contains(t, string(prev), firstLine,
			"sub-split piece %d does not repeat trailing lines of piece %d", i, i-1)
	}
}

func TestSegmentByLinesNoCarryoverOnlySegment(t *testing.T) {
	cfg := testConfig(t)
	cfg.PreferredSegmentSize = 200
	cfg.OverlapLines = 2
	s := New(cfg)

	// Eight 49-byte lines flush exactly at the end of the file; the
	// carried overlap alone must not become a trailing segment.
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&sb, "entry %02d %s\n", i, strings.Repeat("x", 39))
	}
	path := writeTempFile(t, "exact.txt", sb.String())

	run, err := s.Segment(context.Background(), path, domain.ContentText)
	require.NoError(t, err)
	defer run.Release()

	require.Len(t, run.Segments, 3)
	last, err := os.ReadFile(run.Segments[len(run.Segments)-1].Path)
	require.NoError(t, err)
	assert.Contains(t, string(last), "entry 07")
	assert.Equal(t, 8, run.Segments[len(run.Segments)-1].LineEnd)
}
