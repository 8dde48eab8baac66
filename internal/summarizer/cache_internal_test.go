package summarizer

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingSummarizer struct {
	calls int
	err   error
}

func (s *countingSummarizer) Summarize(_ context.Context, input Input) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}

	return "caption of " + input.Author, nil
}

func newTestCache(inner Summarizer, maxEntries int, now *time.Time) *Cached {
	c := NewCached(inner, maxEntries, time.Hour)
	c.now = func() time.Time { return *now }

	return c
}

func TestCachedSummarizesOnce(t *testing.T) {
	inner := &countingSummarizer{}
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCache(inner, 2, &now)
	input := Input{Text: "long post", Author: "alice", MaxChars: 80}

	for range 3 {
		caption, err := c.Summarize(context.Background(), input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if caption != "caption of alice" {
			t.Fatalf("unexpected caption: %q", caption)
		}
	}

	if inner.calls != 1 {
		t.Fatalf("expected 1 call, got %d", inner.calls)
	}
}

func TestCachedExpiresEntries(t *testing.T) {
	inner := &countingSummarizer{}
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCache(inner, 2, &now)
	input := Input{Text: "long post", Author: "alice", MaxChars: 80}

	if _, err := c.Summarize(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := c.Summarize(context.Background(), input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if inner.calls != 2 {
		t.Fatalf("expected expired entry to be summarized again, got %d calls", inner.calls)
	}
}

func TestCachedEvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingSummarizer{}
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCache(inner, 2, &now)
	ctx := context.Background()

	a := Input{Text: "a", Author: "a"}
	b := Input{Text: "b", Author: "b"}

	for _, input := range []Input{a, b, a, {Text: "c", Author: "c"}} {
		if _, err := c.Summarize(ctx, input); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}

	if _, err := c.Summarize(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected entry a to remain cached, got %d calls", inner.calls)
	}

	if _, err := c.Summarize(ctx, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 4 {
		t.Fatalf("expected entry b to be evicted, got %d calls", inner.calls)
	}
}

func TestCachedDoesNotStoreErrors(t *testing.T) {
	inner := &countingSummarizer{err: errors.New("boom")}
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := newTestCache(inner, 2, &now)

	if _, err := c.Summarize(context.Background(), Input{Text: "x"}); err == nil {
		t.Fatalf("expected error")
	}

	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}
