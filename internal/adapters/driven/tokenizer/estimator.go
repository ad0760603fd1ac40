// Package tokenizer provides TokenCounter adapters: a heuristic
// chars-per-token estimator for offline use and an HTTP adapter for
// inference servers that expose a tokenize endpoint.
package tokenizer

import (
	"context"
	"unicode/utf8"

	"github.com/alexandria-labs/alexandria-cli/internal/core/ports/driven"
)

// DefaultCharsPerToken approximates English prose under BPE
// vocabularies.
const DefaultCharsPerToken = 4.0

// Ensure Estimator implements the interface.
var _ driven.TokenCounter = (*Estimator)(nil)

// Estimator counts tokens as rune count divided by a chars-per-token
// ratio. It never fails and needs no network.
type Estimator struct {
	charsPerToken float64
}

// NewEstimator creates an estimator. ratio <= 0 uses the default.
func NewEstimator(ratio float64) *Estimator {
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	return &Estimator{charsPerToken: ratio}
}

// Count returns the estimated token count for text.
func (e *Estimator) Count(_ context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	n := int(float64(utf8.RuneCountInString(text)) / e.charsPerToken)
	if n < 1 {
		n = 1
	}
	return n, nil
}
