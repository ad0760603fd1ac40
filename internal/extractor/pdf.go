package extractor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/alexandria-labs/alexandria-cli/internal/core/domain"
)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = fmt.Errorf(
	"%w: pdftotext not found in PATH (install poppler-utils)", domain.ErrExtraction)

// CommandRunner executes an external command and returns its stdout.
// Abstracted so PDF extraction is testable without poppler installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// extractPDF shells out to pdftotext, writing the text to stdout.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	out, err := e.runner.Run(ctx, "pdftotext", "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrPDFToolNotFound
		}
		return "", fmt.Errorf("%w: pdftotext %s: %w", domain.ErrExtraction, path, err)
	}
	return strings.TrimSpace(string(out)), nil
}
