package ticker

import (
	"context"
	"skyticker/internal/bluesky"
	"skyticker/internal/domain"
	"skyticker/internal/summarizer"
	"skyticker/internal/text"
	"time"
)

func domainUnread(count int) domain.Unread {
	return domain.Unread{Count: count, CheckedAt: time.Now().UTC()}
}

// restore seeds the client from the last saved snapshot so the displays have
// something to show before the first poll.
func (t *Ticker) restore(ctx context.Context) {
	if t.db == nil {
		return
	}

	snapshot, err := t.db.LoadSnapshot(ctx)
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to load snapshot",
			"error", err)
	}

	if snapshot.Post == (domain.Post{}) && snapshot.Unread.Count == 0 {
		return
	}

	t.client.Restore(snapshot.Post, snapshot.Unread.Count)

	t.mu.Lock()
	t.caption = t.fallbackCaption(snapshot.Post.Text)
	t.mu.Unlock()

	t.log.InfoContext(ctx, "Snapshot is restored",
		"handle", snapshot.Post.Handle,
		"unreadCount", snapshot.Unread.Count,
		"unreadCheckedAt", snapshot.Unread.CheckedAt)

	t.show(ctx)
}

// buildCaption returns an empty caption when the post fits the display.
func (t *Ticker) buildCaption(ctx context.Context, post bluesky.PopularPost) string {
	maxChars := t.settings.CaptionMaxChars
	if maxChars <= 0 || len(post.Text) <= maxChars {
		return ""
	}

	if t.summarizer == nil {
		return t.fallbackCaption(post.Text)
	}

	caption, err := t.summarizer.Summarize(ctx, summarizer.Input{
		Text:     post.Text,
		Author:   post.Handle,
		MaxChars: maxChars,
	})
	if err != nil {
		t.log.ErrorContext(ctx, "Failed to summarize post",
			"error", err,
			"handle", post.Handle,
			"fallback", true,
			"textLen", len(post.Text))

		return t.fallbackCaption(post.Text)
	}

	if t.settings.FilterText {
		caption = text.Sanitize(caption)
	}

	return summarizer.Truncate(caption, maxChars)
}

func (t *Ticker) fallbackCaption(postText string) string {
	maxChars := t.settings.CaptionMaxChars
	if maxChars <= 0 || len(postText) <= maxChars {
		return ""
	}

	return summarizer.Truncate(postText, maxChars)
}
