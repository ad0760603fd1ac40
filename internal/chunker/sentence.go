package chunker

import (
	"regexp"
	"strings"
)

// sentenceRe matches one sentence: a run of non-terminator characters
// followed by one or more terminators. Trailing text without a
// terminator is appended separately by splitSentences.
var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+`)

// splitSentences breaks text into sentences on ., ! and ? terminators.
// A final fragment without a terminator is kept as its own sentence.
func splitSentences(text string) []string {
	locs := sentenceRe.FindAllStringIndex(text, -1)
	var sentences []string
	last := 0
	for _, loc := range locs {
		s := strings.TrimSpace(text[loc[0]:loc[1]])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// chunkSentences accumulates whole sentences until adding the next
// one would exceed MaxChunkSize, then flushes. The next chunk is
// seeded with up to OverlapSize trailing characters of the previous
// one, extended to a whole-sentence overlap when possible.
func (c *Chunker) chunkSentences(text string) []rawChunk {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var (
		chunks  []rawChunk
		current strings.Builder
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, rawChunk{content: current.String(), meta: map[string]any{
			"boundary": "sentence",
		}})
		overlap := c.overlapTail(current.String())
		current.Reset()
		current.WriteString(overlap)
	}

	for _, sentence := range sentences {
		// A single sentence over budget is cut at natural boundaries so
		// every piece stays within the character budget.
		if len(sentence) > c.cfg.MaxChunkSize {
			flush()
			current.Reset()
			for _, piece := range c.splitOversized(sentence) {
				chunks = append(chunks, rawChunk{content: piece, meta: map[string]any{
					"boundary": "sentence",
				}})
			}
			continue
		}
		joined := current.Len() + len(sentence)
		if current.Len() > 0 {
			joined++ // separating space
		}
		if joined > c.cfg.MaxChunkSize {
			flush()
			if current.Len() > 0 && current.Len()+1+len(sentence) > c.cfg.MaxChunkSize {
				// Overlap seed plus sentence still over budget; drop the seed.
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	if strings.TrimSpace(current.String()) != "" {
		content := current.String()
		// Suppress a flush that would only repeat the overlap seed.
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1].content, content) {
			chunks = append(chunks, rawChunk{content: content, meta: map[string]any{
				"boundary": "sentence",
			}})
		}
	}
	return chunks
}

// splitOversized cuts a single unit longer than MaxChunkSize into
// budget-sized pieces, backing each cut up to the nearest word or
// sentence boundary.
func (c *Chunker) splitOversized(text string) []string {
	var pieces []string
	start := 0
	for start < len(text) {
		end := start + c.cfg.MaxChunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.backscanBoundary(text, start, end)
			end = snapToRune(text, end)
			if end <= start {
				end = nextRune(text, start)
			}
		}
		if piece := strings.TrimSpace(text[start:end]); piece != "" {
			pieces = append(pieces, piece)
		}
		start = end
	}
	return pieces
}

// overlapTail returns the trailing OverlapSize characters of content,
// preferring to start at a sentence boundary inside that tail.
func (c *Chunker) overlapTail(content string) string {
	// Seeding with the whole previous chunk would stall progress.
	if c.cfg.OverlapSize <= 0 || len(content) <= c.cfg.OverlapSize {
		return ""
	}
	tail := content[snapToRune(content, len(content)-c.cfg.OverlapSize):]
	// Prefer a clean sentence start within the tail.
	if i := lastSentenceEnd(tail); i >= 0 && i < len(tail)-1 {
		return strings.TrimSpace(tail[i:])
	}
	if i := strings.IndexByte(tail, ' '); i >= 0 && i < len(tail)-1 {
		return strings.TrimSpace(tail[i:])
	}
	return strings.TrimSpace(tail)
}

// chunkParagraphs accumulates whole paragraphs (blank-line separated)
// until the budget is reached. Paragraphs larger than the budget are
// handed to the sentence strategy.
func (c *Chunker) chunkParagraphs(text string) []rawChunk {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var (
		chunks  []rawChunk
		current strings.Builder
	)
	flush := func() {
		if strings.TrimSpace(current.String()) == "" {
			current.Reset()
			return
		}
		chunks = append(chunks, rawChunk{content: current.String(), meta: map[string]any{
			"boundary": "paragraph",
		}})
		overlap := c.overlapTail(current.String())
		current.Reset()
		current.WriteString(overlap)
	}

	for _, para := range paragraphs {
		if len(para) > c.cfg.MaxChunkSize {
			flush()
			current.Reset()
			for _, rc := range c.chunkSentences(para) {
				rc.meta["boundary"] = "paragraph"
				chunks = append(chunks, rc)
			}
			continue
		}
		joined := current.Len() + len(para)
		if current.Len() > 0 {
			joined += 2 // separating blank line
		}
		if joined > c.cfg.MaxChunkSize {
			flush()
			if current.Len() > 0 && current.Len()+2+len(para) > c.cfg.MaxChunkSize {
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return chunks
}

// splitParagraphs splits on blank lines, trimming each paragraph and
// dropping empty ones.
func splitParagraphs(text string) []string {
	parts := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	var paragraphs []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}
