package chunker

import (
	"regexp"
	"strings"
)

var headerRe = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// mdSection is a header plus the body that follows it, up to the next
// header of any level.
type mdSection struct {
	title string
	level int
	body  string
}

// chunkMarkdown splits a document at headers so each chunk covers one
// section. Oversized section bodies fall back to the paragraph
// strategy; when PreserveHeaders is set the section header is
// re-prepended to every continuation chunk so each chunk keeps its
// context.
func (c *Chunker) chunkMarkdown(text string) []rawChunk {
	sections := splitMarkdownSections(text)
	if len(sections) == 0 {
		return nil
	}

	var chunks []rawChunk
	for _, sec := range sections {
		header := ""
		if sec.title != "" {
			header = strings.Repeat("#", sec.level) + " " + sec.title
		}
		full := sec.body
		if header != "" {
			full = header + "\n\n" + sec.body
		}

		if len(full) <= c.cfg.MaxChunkSize {
			if strings.TrimSpace(full) == "" {
				continue
			}
			chunks = append(chunks, rawChunk{content: full, meta: sectionMeta(sec, false)})
			continue
		}

		for i, rc := range c.chunkParagraphs(sec.body) {
			content := rc.content
			if c.cfg.PreserveHeaders && header != "" {
				content = header + "\n\n" + content
			}
			meta := sectionMeta(sec, i > 0)
			chunks = append(chunks, rawChunk{content: content, meta: meta})
		}
	}
	return chunks
}

func sectionMeta(sec mdSection, continuation bool) map[string]any {
	meta := map[string]any{"boundary": "markdown"}
	if sec.title != "" {
		meta["section_title"] = sec.title
		meta["header_level"] = sec.level
	}
	if continuation {
		meta["section_continuation"] = true
	}
	return meta
}

// splitMarkdownSections walks the document line by line collecting
// header-delimited sections. Text before the first header becomes a
// preamble section with no title. Headers inside fenced code blocks
// are ignored.
func splitMarkdownSections(text string) []mdSection {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var (
		sections []mdSection
		current  mdSection
		body     []string
		inFence  bool
	)
	flush := func() {
		current.body = strings.TrimSpace(strings.Join(body, "\n"))
		if current.body != "" || current.title != "" {
			sections = append(sections, current)
		}
		body = body[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence {
			if m := headerRe.FindStringSubmatch(line); m != nil {
				flush()
				current = mdSection{title: strings.TrimSpace(m[2]), level: len(m[1])}
				continue
			}
		}
		body = append(body, line)
	}
	flush()
	return sections
}
