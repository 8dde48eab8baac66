package bluesky

import (
	"context"
	"fmt"
	"skyticker/internal/domain"
	"skyticker/internal/jsondoc"
	"skyticker/internal/text"
)

const (
	ErrorLogin  = "login"
	ErrorNoData = "no data"

	popularPostPath = "feed.0.post"
)

// PopularPost is the result of a post fetch. Error is empty on success,
// ErrorLogin without a session and ErrorNoData when nothing could be fetched.
type PopularPost struct {
	domain.Post

	Words []string
	Links []string
	Error string
}

// GetPopularPost fetches the single most popular post. With filterText every
// field is reduced to printable ASCII.
func (c *Client) GetPopularPost(ctx context.Context, filterText bool) (PopularPost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.LoggedIn() {
		return PopularPost{Error: ErrorLogin}, ErrNotLoggedIn
	}

	body, err := c.getXRPC(ctx, getPopularMethod, map[string]string{"limit": "1"}, true)
	if err != nil {
		c.log.DebugContext(ctx, "No popular post is received",
			"error", err)
		c.dropSession(ctx, err)

		return PopularPost{Error: ErrorNoData}, fmt.Errorf("get popular post: %w: %w", ErrNoData, err)
	}

	doc, err := c.decoder.Decode(ctx, body)
	if err != nil {
		return PopularPost{Error: ErrorNoData}, fmt.Errorf("decode popular post: %w: %w", ErrNoData, err)
	}

	result := c.storePost(extractPopularPost(doc), filterText)

	c.log.InfoContext(ctx, "Popular post is fetched",
		"handle", result.Handle,
		"date", result.Date,
		"wordCount", len(result.Words))

	return result, nil
}

// extractPopularPost leaves fields missing from the response empty, so an
// empty feed yields an empty post.
func extractPopularPost(doc *jsondoc.Document) domain.Post {
	entry := doc.Get(popularPostPath)

	return domain.Post{
		Handle: entry.Get("author.handle").String(),
		Name:   entry.Get("author.displayName").String(),
		Date:   entry.Get("record.createdAt").String(),
		Text:   entry.Get("record.text").String(),
	}
}

// storePost must be called with c.mu held.
func (c *Client) storePost(post domain.Post, filterText bool) PopularPost {
	if filterText {
		post = domain.Post{
			Handle: text.Sanitize(post.Handle),
			Name:   text.Sanitize(post.Name),
			Date:   text.Sanitize(post.Date),
			Text:   text.Sanitize(post.Text),
		}
	}

	words := text.Words(post.Text)

	c.post = post
	c.words = words
	c.status = post.Text

	return PopularPost{
		Post:  post,
		Words: words,
		Links: text.Links(post.Text),
	}
}
