package display

import (
	"context"
	"skyticker/internal/domain"
	"slices"
	"strings"
)

// Frame is everything a display may render at once.
type Frame struct {
	Status    string
	LoggedIn  bool
	HasUnread bool
	Unread    int
	Post      domain.Post
	Words     []string
	Caption   string
}

type Display interface {
	Show(ctx context.Context, frame Frame) error
}

// Paginate packs words greedily into lines of at most width bytes and groups
// the lines into pages of the given height. Words longer than a line are
// split.
func Paginate(words []string, width int, lines int) [][]string {
	width = max(width, 1)
	lines = max(lines, 1)

	var (
		all []string
		cur strings.Builder
	)

	flush := func() {
		if cur.Len() > 0 {
			all = append(all, cur.String())
			cur.Reset()
		}
	}

	for _, word := range words {
		if len(word) > width {
			flush()
			for len(word) > width {
				all = append(all, word[:width])
				word = word[width:]
			}
		}

		if word == "" {
			continue
		}

		switch {
		case cur.Len() == 0:
		case cur.Len()+1+len(word) <= width:
			cur.WriteByte(' ')
		default:
			flush()
		}
		cur.WriteString(word)
	}
	flush()

	var pages [][]string
	for page := range slices.Chunk(all, lines) {
		pages = append(pages, page)
	}

	return pages
}
