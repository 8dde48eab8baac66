package summarizer

import (
	"container/list"
	"context"
	"strconv"
	"sync"
	"time"
)

const (
	DefaultCacheMaxEntries = 64
	DefaultCacheTTL        = 6 * time.Hour
)

// Cached remembers captions per post so a post that stays on top is
// summarized once.
type Cached struct {
	inner Summarizer
	ttl   time.Duration
	now   func() time.Time

	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
}

type cacheEntry struct {
	key       string
	caption   string
	expiresAt time.Time
}

func NewCached(inner Summarizer, maxEntries int, ttl time.Duration) *Cached {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &Cached{
		inner:      inner,
		ttl:        ttl,
		now:        time.Now,
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

func (c *Cached) Summarize(ctx context.Context, input Input) (string, error) {
	key := cacheKey(input)
	now := c.now()

	if caption, ok := c.get(key, now); ok {
		return caption, nil
	}

	caption, err := c.inner.Summarize(ctx, input)
	if err != nil {
		return "", err
	}

	c.set(key, caption, now)

	return caption, nil
}

func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func cacheKey(input Input) string {
	return input.Author + "\x00" + strconv.Itoa(input.MaxChars) + "\x00" + input.Text
}

func (c *Cached) get(key string, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := elem.Value.(*cacheEntry)
	if now.After(entry.expiresAt) {
		c.removeElement(elem)

		return "", false
	}

	c.order.MoveToFront(elem)

	return entry.caption, true
}

func (c *Cached) set(key string, caption string, now time.Time) {
	if caption == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := now.Add(c.ttl)

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.caption = caption
		entry.expiresAt = expiresAt
		c.order.MoveToFront(elem)

		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{
		key:       key,
		caption:   caption,
		expiresAt: expiresAt,
	})

	c.evictExpiredLocked(now)
	for len(c.entries) > c.maxEntries {
		c.removeElement(c.order.Back())
	}
}

func (c *Cached) evictExpiredLocked(now time.Time) {
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*cacheEntry).expiresAt) {
			c.removeElement(elem)
		}
		elem = prev
	}
}

func (c *Cached) removeElement(elem *list.Element) {
	delete(c.entries, elem.Value.(*cacheEntry).key)
	c.order.Remove(elem)
}
