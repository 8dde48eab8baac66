package summarizer

import (
	"context"
)

// Input describes the payload for a caption request.
type Input struct {
	// Text is the post body to condense.
	Text string
	// Author is optional context, usually the poster's handle.
	Author string
	// MaxChars is the room the display has for the caption.
	MaxChars int
}

// Summarizer condenses a post into a caption that fits the display.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}

// Truncate cuts text to maxChars bytes on a word boundary when possible and
// marks the cut with "...". It is the fallback when no summarizer is set.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}

	const ellipsis = "..."
	if maxChars <= len(ellipsis) {
		return text[:maxChars]
	}

	cut := text[:maxChars-len(ellipsis)]
	if text[len(cut)] != ' ' {
		if i := lastSpace(cut); i > 0 {
			cut = cut[:i]
		}
	}

	return cut + ellipsis
}

func lastSpace(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' {
			return i
		}
	}
	return -1
}
