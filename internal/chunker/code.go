package chunker

import (
	"regexp"
	"strings"
)

// definitionRe matches lines that open a new top-level unit in the
// common languages the extractor classifies as code.
var definitionRe = regexp.MustCompile(`^\s*(func|def|function|class|type|interface|struct|impl|public|private|protected|static|const|var|let)\b`)

// chunkCode splits source code at definition boundaries and blank
// lines, keeping logical units together. Lines are accumulated until
// the budget would be exceeded; cuts prefer a definition start, then
// a blank line, then any line break.
func (c *Chunker) chunkCode(text string) []rawChunk {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		chunks  []rawChunk
		current []string
		size    int
		fresh   int
	)
	flush := func() {
		content := strings.Join(current, "\n")
		// A buffer holding only carried overlap has nothing new to say.
		if fresh > 0 && strings.TrimSpace(content) != "" {
			chunks = append(chunks, rawChunk{content: content, meta: map[string]any{
				"boundary": "code",
			}})
		}
		// Seed the next chunk with the trailing lines that fit the
		// overlap budget so the enclosing context survives the cut.
		carried := overlapTailLines(current, c.cfg.OverlapSize)
		current = append(current[:0], carried...)
		size = 0
		for _, l := range current {
			size += len(l) + 1
		}
		fresh = 0
	}

	for _, line := range lines {
		lineSize := len(line) + 1
		atDefinition := definitionRe.MatchString(line) && !isIndented(line)

		if size > 0 && size+lineSize > c.cfg.MaxChunkSize {
			// Over budget: prefer cutting just before a definition or
			// after a trailing blank line already in the buffer.
			if cut := lastCodeCut(current); cut > 0 && cut < len(current) {
				head := current[:cut]
				tail := append([]string(nil), current[cut:]...)
				current = head
				flush()
				// The tail already continues the buffer verbatim, so it
				// replaces the overlap seed rather than stacking on it.
				current = tail
				size = 0
				for _, l := range current {
					size += len(l) + 1
				}
				fresh = len(tail)
			} else {
				flush()
			}
		} else if atDefinition && size >= c.cfg.MinChunkSize {
			// A fresh top-level definition is a natural seam once the
			// buffer is big enough to stand alone.
			flush()
		}

		current = append(current, line)
		size += lineSize
		fresh++
	}
	flush()
	return chunks
}

// overlapTailLines returns a copy of the trailing lines that fit
// within budget bytes. Carrying the whole buffer would stall
// progress, so at least the first line is always released.
func overlapTailLines(lines []string, budget int) []string {
	if budget <= 0 || len(lines) <= 1 {
		return nil
	}
	size := 0
	start := len(lines)
	for start > 1 {
		l := len(lines[start-1]) + 1
		if size+l > budget {
			break
		}
		size += l
		start--
	}
	if start == len(lines) {
		return nil
	}
	return append([]string(nil), lines[start:]...)
}

// lastCodeCut returns the index of the best cut line inside a buffer:
// the last top-level definition start, or the line after the last
// blank line. Returns 0 when no good cut exists.
func lastCodeCut(lines []string) int {
	for i := len(lines) - 1; i > 0; i-- {
		if definitionRe.MatchString(lines[i]) && !isIndented(lines[i]) {
			return i
		}
	}
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			return i + 1
		}
	}
	return 0
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
