package bluesky

import (
	"context"
	"errors"
	"fmt"
	"skyticker/internal/domain"
)

const (
	statusLoggingIn   = "Logging in"
	statusLoggedIn    = "Logged in."
	statusLoginFailed = "Login failed."
	statusExpired     = "Session expired."

	bearerPrefix = "Bearer "
)

// Session is empty while logged out. Token carries the "Bearer " prefix.
type Session struct {
	DID    string
	Handle string
	Token  string
}

func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// Login creates a session. Any failure leaves the client logged out.
func (c *Client) Login(ctx context.Context, identifier string, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.status = statusLoggingIn
	c.session = Session{}

	session, err := c.createSession(ctx, identifier, password)
	if err != nil {
		c.status = statusLoginFailed
		c.log.WarnContext(ctx, "Failed to log in",
			"error", err,
			"host", c.host)

		return err
	}

	c.session = session
	c.status = statusLoggedIn
	c.log.InfoContext(ctx, "Logged in",
		"did", session.DID,
		"handle", session.Handle,
		"host", c.host)

	return nil
}

func (c *Client) createSession(
	ctx context.Context,
	identifier string,
	password string,
) (Session, error) {
	body, err := c.postXRPC(ctx, createSessionMethod, map[string]string{
		"identifier": identifier,
		"password":   password,
	}, false)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}

	doc, err := c.decoder.Decode(ctx, body)
	if err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}

	accessJwt := doc.Get("accessJwt").String()
	if accessJwt == "" {
		return Session{}, fmt.Errorf("decode session: %w", ErrMissingToken)
	}

	return Session{
		DID:    doc.Get("did").String(),
		Handle: doc.Get("handle").String(),
		Token:  bearerPrefix + accessJwt,
	}, nil
}

// dropSession forgets a session the server no longer accepts so the next
// caller logs in again. The caller holds c.mu.
func (c *Client) dropSession(ctx context.Context, err error) {
	if !errors.Is(err, ErrSessionExpired) {
		return
	}

	c.log.WarnContext(ctx, "Session is rejected by server",
		"error", err,
		"handle", c.session.Handle,
		"host", c.host)

	c.session = Session{}
	c.status = statusExpired
}

func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session
}

// Account is the session without its token.
func (c *Client) Account() domain.Account {
	c.mu.Lock()
	defer c.mu.Unlock()

	return domain.Account{
		DID:    c.session.DID,
		Handle: c.session.Handle,
		Host:   c.host,
	}
}
