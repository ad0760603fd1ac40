package chunker

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

// chunkFixedSize cuts text into windows of at most MaxChunkSize
// characters (and MaxTokens tokens when an exact counter is wired),
// backing each cut up to the nearest natural boundary. Consecutive
// windows overlap by OverlapSize characters.
func (c *Chunker) chunkFixedSize(ctx context.Context, text string) ([]rawChunk, error) {
	var chunks []rawChunk
	start := 0
	for start < len(text) {
		end, err := c.windowEnd(ctx, text, start)
		if err != nil {
			return nil, err
		}
		if end < len(text) {
			end = c.backscanBoundary(text, start, end)
		}
		end = snapToRune(text, end)
		// A collapsed window (one rune already over budget) must still
		// advance, or the loop never terminates.
		if end <= start {
			end = nextRune(text, start)
		}

		content := text[start:end]
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, rawChunk{content: content, meta: map[string]any{
				"char_start": start,
				"char_end":   end,
			}})
		}

		if end >= len(text) {
			break
		}
		next := end - c.cfg.OverlapSize
		// The window must always advance.
		if next <= start {
			next = end
		}
		start = snapToRune(text, next)
	}
	return chunks, nil
}

// windowEnd finds the largest end offset from start that satisfies
// both the character budget and, when a counter is available, the
// token budget. Token fitting is a binary search over the window
// length against the exact counter.
func (c *Chunker) windowEnd(ctx context.Context, text string, start int) (int, error) {
	end := start + c.cfg.MaxChunkSize
	if end > len(text) {
		end = len(text)
	}
	if c.counter == nil || c.cfg.MaxTokens <= 0 {
		return end, nil
	}

	// Heuristic first guess; the search below corrects it.
	guess := start + c.cfg.MaxTokens*avgCharsPerToken
	if guess < end {
		end = guess
	}
	end = snapToRune(text, end)

	n, err := c.counter.Count(ctx, text[start:end])
	if err != nil {
		return 0, fmt.Errorf("%w: counting tokens: %w", domain.ErrChunking, err)
	}
	if n <= c.cfg.MaxTokens {
		return c.expandWindow(ctx, text, start, end)
	}

	// Shrink: binary search the largest window under the budget.
	lo, hi := start+1, end
	for lo < hi {
		mid := snapToRune(text, lo+(hi-lo+1)/2)
		if mid <= lo {
			break
		}
		n, err := c.counter.Count(ctx, text[start:mid])
		if err != nil {
			return 0, fmt.Errorf("%w: counting tokens: %w", domain.ErrChunking, err)
		}
		if n <= c.cfg.MaxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return snapToRune(text, lo), nil
}

// expandWindow greedily grows a window that came in under the token
// budget, one heuristic step at a time, without exceeding the
// character budget.
func (c *Chunker) expandWindow(ctx context.Context, text string, start, end int) (int, error) {
	limit := start + c.cfg.MaxChunkSize
	if limit > len(text) {
		limit = len(text)
	}
	step := c.cfg.MaxTokens * avgCharsPerToken / 4
	if step < 1 {
		step = 1
	}
	for end < limit {
		candidate := end + step
		if candidate > limit {
			candidate = limit
		}
		candidate = snapToRune(text, candidate)
		n, err := c.counter.Count(ctx, text[start:candidate])
		if err != nil {
			return 0, fmt.Errorf("%w: counting tokens: %w", domain.ErrChunking, err)
		}
		if n > c.cfg.MaxTokens {
			break
		}
		if candidate == end {
			break
		}
		end = candidate
	}
	return end, nil
}

// backscanBoundary moves a raw cut point backwards to the closest
// natural boundary, trying paragraph breaks first, then sentence
// ends, then line breaks, then word breaks. A boundary is only
// accepted if the resulting chunk stays at or above MinChunkSize.
func (c *Chunker) backscanBoundary(text string, start, end int) int {
	if !c.cfg.RespectBoundaries {
		return end
	}
	floor := start + c.cfg.MinChunkSize
	if floor >= end {
		return end
	}
	window := text[start:end]

	if i := strings.LastIndex(window, "\n\n"); i >= 0 && start+i+2 > floor {
		return start + i + 2
	}
	if i := lastSentenceEnd(window); i >= 0 && start+i > floor {
		return start + i
	}
	if i := strings.LastIndexByte(window, '\n'); i >= 0 && start+i+1 > floor {
		return start + i + 1
	}
	if i := strings.LastIndexByte(window, ' '); i >= 0 && start+i+1 > floor {
		return start + i + 1
	}
	return end
}

// lastSentenceEnd returns the offset just past the last sentence
// terminator that is followed by whitespace, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		if s[i] == ' ' || s[i] == '\n' || s[i] == '\t' {
			switch s[i-1] {
			case '.', '!', '?':
				return i
			}
		}
	}
	return -1
}

// nextRune returns the offset just past the rune starting at offset.
func nextRune(text string, offset int) int {
	_, size := utf8.DecodeRuneInString(text[offset:])
	if size == 0 {
		return offset + 1
	}
	return offset + size
}

// snapToRune moves an offset left until it sits on a rune boundary so
// raw cuts never split a multi-byte character.
func snapToRune(text string, offset int) int {
	if offset >= len(text) {
		return len(text)
	}
	if offset < 0 {
		return 0
	}
	for offset > 0 && !utf8.RuneStart(text[offset]) {
		offset--
	}
	return offset
}
