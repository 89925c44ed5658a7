package llm

import (
	"context"
	"regexp"
	"strings"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// Sanitize removes <think>...</think> regions (which may span lines) from a
// raw completion and trims the surrounding whitespace.
func Sanitize(raw string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
}

// CompleteClean calls c and sanitizes the result.
func CompleteClean(ctx context.Context, c Completer, prompt string) (string, error) {
	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return Sanitize(raw), nil
}
