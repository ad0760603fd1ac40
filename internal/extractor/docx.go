package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

// extractDocx pulls the paragraph text out of a DOCX archive's
// word/document.xml.
func extractDocx(data []byte, path string) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a valid docx archive", domain.ErrExtraction, path)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: opening document.xml in %s: %w", domain.ErrExtraction, path, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close() //nolint:errcheck
		if err != nil {
			return "", fmt.Errorf("%w: reading document.xml in %s: %w", domain.ErrExtraction, path, err)
		}
		return parseDocumentXML(content, path)
	}
	return "", fmt.Errorf("%w: %s has no word/document.xml", domain.ErrExtraction, path)
}

// documentXML mirrors the parts of word/document.xml that carry text.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// parseDocumentXML flattens the paragraph/run/text hierarchy. Blank
// lines separate paragraphs so downstream paragraph chunking works.
func parseDocumentXML(content []byte, path string) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: parsing document.xml in %s: %w", domain.ErrExtraction, path, err)
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
