package bluesky

import (
	"skyticker/internal/domain"
	"skyticker/internal/text"
	"slices"
)

// State is everything the host environment can observe.
type State struct {
	LoggedIn    bool
	Token       string
	DID         string
	Handle      string
	HasUnread   bool
	UnreadCount int
	Post        domain.Post
	Words       []string
	Status      string
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		LoggedIn:    c.session.LoggedIn(),
		Token:       c.session.Token,
		DID:         c.session.DID,
		Handle:      c.session.Handle,
		HasUnread:   c.unread > 0,
		UnreadCount: c.unread,
		Post:        c.post,
		Words:       slices.Clone(c.words),
		Status:      c.status,
	}
}

// Restore seeds the last post and unread count, e.g. from a persisted
// snapshot. The session is untouched.
func (c *Client) Restore(post domain.Post, unread int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.post = post
	c.words = text.Words(post.Text)
	c.unread = unread
}
