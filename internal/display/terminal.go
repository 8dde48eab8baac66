package display

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Terminal renders frames as fixed-width pages of text.
type Terminal struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	lines int
}

func NewTerminal(w io.Writer, width int, lines int) *Terminal {
	return &Terminal{
		w:     w,
		width: width,
		lines: lines,
	}
}

func (t *Terminal) Show(_ context.Context, frame Frame) error {
	var b strings.Builder

	if frame.HasUnread {
		fmt.Fprintf(&b, "[%d unread]\n", frame.Unread)
	}

	words := frame.Words
	if frame.Caption != "" {
		words = strings.Fields(frame.Caption)
	}

	if len(words) == 0 {
		b.WriteString(frame.Status)
		b.WriteByte('\n')
	} else {
		if frame.Post.Handle != "" {
			fmt.Fprintf(&b, "@%s", frame.Post.Handle)
			if frame.Post.Name != "" {
				fmt.Fprintf(&b, " (%s)", frame.Post.Name)
			}
			b.WriteByte('\n')
		}
		if frame.Post.Date != "" {
			b.WriteString(frame.Post.Date)
			b.WriteByte('\n')
		}

		pages := Paginate(words, t.width, t.lines)
		for i, page := range pages {
			fmt.Fprintf(&b, "-- %d/%d --\n", i+1, len(pages))
			for _, line := range page {
				b.WriteString(line)
				b.WriteByte('\n')
			}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := io.WriteString(t.w, b.String()); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}
