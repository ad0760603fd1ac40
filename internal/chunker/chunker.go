// Package chunker splits extracted text into ordered, bounded chunks
// that satisfy character and token budgets while respecting natural
// boundaries (sentences, paragraphs, code blocks, markdown sections).
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
	"github.com/alexandria-labs/alexandria-cli/internal/logger"
)

// maxResplitDepth bounds the recursive re-splitting of oversized
// chunks. Combined with the minimum-size floor this guarantees
// termination on pathological input (e.g. one token-dense "word"
// larger than the budget).
const maxResplitDepth = 8

// avgCharsPerToken seeds the fixed strategy's initial window before
// the exact counter refines it.
const avgCharsPerToken = 4

// rawChunk is a strategy's intermediate output before post-processing.
type rawChunk struct {
	content string
	meta    map[string]any
}

// Chunker turns extracted text into bounded TextChunks.
type Chunker struct {
	cfg     domain.ChunkConfig
	counter driven.TokenCounter
}

// New creates a chunker. counter may be nil, which disables the exact
// token budget (MaxTokens is then ignored).
func New(cfg domain.ChunkConfig, counter driven.TokenCounter) *Chunker {
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = domain.DefaultChunkConfig().MaxChunkSize
	}
	if cfg.MinChunkSize < 0 {
		cfg.MinChunkSize = 0
	}
	if cfg.OverlapSize >= cfg.MaxChunkSize {
		cfg.OverlapSize = cfg.MaxChunkSize / 4
	}
	if cfg.Undersized == "" {
		cfg.Undersized = domain.DropUndersized
	}
	return &Chunker{cfg: cfg, counter: counter}
}

// Chunk splits text into chunks indexed from 0.
func (c *Chunker) Chunk(ctx context.Context, text string, contentType domain.ContentType) ([]domain.TextChunk, error) {
	return c.ChunkAt(ctx, text, contentType, 0)
}

// ChunkAt splits text into chunks whose indices start at startIndex.
// The offset keeps ordinals contiguous when a document is processed
// segment by segment. Empty or whitespace-only input yields zero
// chunks and no error.
func (c *Chunker) ChunkAt(ctx context.Context, text string, contentType domain.ContentType, startIndex int) ([]domain.TextChunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	strategy := c.strategyFor(contentType)
	logger.Debug("Chunking %d bytes with %s strategy", len(text), strategy)

	var (
		raw []rawChunk
		err error
	)
	switch strategy {
	case domain.StrategyFixedSize:
		raw, err = c.chunkFixedSize(ctx, text)
	case domain.StrategySentence:
		raw = c.chunkSentences(text)
	case domain.StrategyParagraph:
		raw = c.chunkParagraphs(text)
	case domain.StrategyCode:
		raw = c.chunkCode(text)
	case domain.StrategyMarkdown:
		raw = c.chunkMarkdown(text)
	default:
		raw = c.chunkSentences(text)
	}
	if err != nil {
		return nil, err
	}

	raw, counts, err := c.enforceTokenBudget(ctx, raw)
	if err != nil {
		return nil, err
	}

	// The document tail is exempt from the minimum: a short final
	// chunk (or a short document) is still worth keeping.
	last := -1
	for i := len(raw) - 1; i >= 0; i-- {
		if strings.TrimSpace(raw[i].content) != "" {
			last = i
			break
		}
	}

	chunks := make([]domain.TextChunk, 0, len(raw))
	for i, rc := range raw {
		content := strings.TrimSpace(rc.content)
		if content == "" {
			continue
		}
		if i != last && len(content) < c.cfg.MinChunkSize && c.cfg.Undersized == domain.DropUndersized {
			logger.Debug("Dropping undersized chunk (%d < %d chars)", len(content), c.cfg.MinChunkSize)
			continue
		}
		// Renumber so indices stay contiguous after re-splitting.
		chunk := domain.NewTextChunk(startIndex+len(chunks), content, strategy)
		chunk.TokenCount = counts[i]
		for k, v := range rc.meta {
			chunk.Metadata[k] = v
		}
		chunk.Metadata["strategy"] = string(strategy)
		chunk.Metadata["max_chunk_size"] = c.cfg.MaxChunkSize
		chunk.Metadata["overlap_size"] = c.cfg.OverlapSize
		chunks = append(chunks, chunk)
	}

	logger.Debug("Created %d chunks using %s strategy", len(chunks), strategy)
	return chunks, nil
}

// strategyFor dispatches on content classification unless the
// configured strategy was forced explicitly.
func (c *Chunker) strategyFor(contentType domain.ContentType) domain.ChunkStrategy {
	if c.cfg.ForceStrategy && c.cfg.Strategy.Valid() {
		return c.cfg.Strategy
	}
	switch contentType {
	case domain.ContentCode:
		return domain.StrategyCode
	case domain.ContentMarkdown:
		return domain.StrategyMarkdown
	}
	if c.cfg.Strategy.Valid() {
		return c.cfg.Strategy
	}
	return domain.StrategySentence
}

// enforceTokenBudget re-measures every chunk with the exact counter
// and recursively re-splits the ones over budget using the fixed
// strategy. Returns the surviving chunks and their token counts.
func (c *Chunker) enforceTokenBudget(ctx context.Context, raw []rawChunk) ([]rawChunk, []int, error) {
	if c.counter == nil || c.cfg.MaxTokens <= 0 {
		counts := make([]int, len(raw))
		return raw, counts, nil
	}

	var (
		out    []rawChunk
		counts []int
	)
	for _, rc := range raw {
		kept, keptCounts, err := c.fitTokenBudget(ctx, rc, 0)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, kept...)
		counts = append(counts, keptCounts...)
	}
	return out, counts, nil
}

// fitTokenBudget returns rc unchanged when it is within budget,
// otherwise re-splits it. Recursion stops at the minimum-size floor or
// the depth bound; what remains is dropped or emitted per policy.
func (c *Chunker) fitTokenBudget(ctx context.Context, rc rawChunk, depth int) ([]rawChunk, []int, error) {
	n, err := c.counter.Count(ctx, rc.content)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: counting tokens: %w", domain.ErrChunking, err)
	}
	if n <= c.cfg.MaxTokens {
		return []rawChunk{rc}, []int{n}, nil
	}

	if depth >= maxResplitDepth || len(rc.content) <= c.cfg.MinChunkSize {
		// Cannot split further. Deliberate stop condition.
		if c.cfg.Undersized == domain.EmitUndersized {
			logger.Warn("Chunk exceeds token budget (%d > %d) but cannot be split further; emitting", n, c.cfg.MaxTokens)
			return []rawChunk{rc}, []int{n}, nil
		}
		logger.Warn("Chunk exceeds token budget (%d > %d) and cannot be split further; dropping", n, c.cfg.MaxTokens)
		return nil, nil, nil
	}

	sub, err := c.chunkFixedSize(ctx, rc.content)
	if err != nil {
		return nil, nil, err
	}
	// Splitting produced no progress; treat like the floor case.
	if len(sub) == 0 || (len(sub) == 1 && sub[0].content == rc.content) {
		return c.fitTokenBudget(ctx, rawChunk{content: rc.content, meta: rc.meta}, maxResplitDepth)
	}

	var (
		out    []rawChunk
		counts []int
	)
	for _, s := range sub {
		merged := mergeMeta(rc.meta, s.meta)
		merged["resplit"] = true
		kept, keptCounts, err := c.fitTokenBudget(ctx, rawChunk{content: s.content, meta: merged}, depth+1)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, kept...)
		counts = append(counts, keptCounts...)
	}
	return out, counts, nil
}

// mergeMeta copies parent metadata then overlays child keys.
func mergeMeta(parent, child map[string]any) map[string]any {
	merged := make(map[string]any, len(parent)+len(child))
	for k, v := range parent {
		merged[k] = v
	}
	for k, v := range child {
		merged[k] = v
	}
	return merged
}
