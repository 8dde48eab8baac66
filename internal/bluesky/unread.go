package bluesky

import (
	"context"
	"fmt"
)

// CheckUnread fetches the unread notification count. State is only updated on
// success.
func (c *Client) CheckUnread(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.LoggedIn() {
		return 0, ErrNotLoggedIn
	}

	body, err := c.getXRPC(ctx, getUnreadCountMethod, nil, true)
	if err != nil {
		c.log.DebugContext(ctx, "No unread count is received",
			"error", err)
		c.dropSession(ctx, err)

		return 0, fmt.Errorf("get unread count: %w", err)
	}

	doc, err := c.decoder.Decode(ctx, body)
	if err != nil {
		return 0, fmt.Errorf("decode unread count: %w", err)
	}

	count := int(doc.Get("count").Int())
	c.unread = count

	c.log.InfoContext(ctx, "Unread count is checked",
		"count", count)

	return count, nil
}
