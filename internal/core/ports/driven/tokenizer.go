package driven

import "context"

// TokenCounter measures text in tokenizer units. The chunker treats it
// as an external black box: the token budget is enforced against
// whatever this counter reports, not against any particular vocabulary.
//
// Implementations may include:
//   - HTTP tokenize endpoints of local inference servers
//   - A chars-per-token estimator for offline use
type TokenCounter interface {
	// Count returns the number of tokens in text.
	Count(ctx context.Context, text string) (int, error)
}
