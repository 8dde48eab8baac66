package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"skyticker/internal/domain"
	"skyticker/internal/jsondoc"
	"skyticker/internal/text"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/tidwall/gjson"
)

const (
	userAgent        = "skyticker/1.0"
	clientTimeout    = 20 * time.Second
	maxResponseBytes = 1 << 20

	DefaultHost            = "bsky.social"
	DefaultProfileFeedBase = "https://bsky.app"

	createSessionMethod  = "com.atproto.server.createSession"
	getUnreadCountMethod = "app.bsky.notification.getUnreadCount"
	getPopularMethod     = "app.bsky.unspecced.getPopular"
)

var (
	ErrNotLoggedIn      = errors.New("not logged in")
	ErrNoData           = errors.New("no data")
	ErrMissingToken     = errors.New("access token is missing")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrSessionExpired   = errors.New("session expired")
)

// Client talks XRPC to a single server and owns the session and the last
// results. Operations are serialized.
type Client struct {
	mu sync.Mutex

	host            string
	profileFeedBase string
	httpClient      *http.Client
	feedParser      *gofeed.Parser
	decoder         *jsondoc.Decoder
	log             *slog.Logger

	session Session
	unread  int
	post    domain.Post
	words   []string
	status  string
}

func NewClient(
	host string,
	httpClient *http.Client,
	decoder *jsondoc.Decoder,
	log *slog.Logger,
) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: clientTimeout}
	}

	feedParser := gofeed.NewParser()
	feedParser.Client = httpClient
	feedParser.UserAgent = userAgent

	return &Client{
		host:            NormalizeHost(host),
		profileFeedBase: DefaultProfileFeedBase,
		httpClient:      httpClient,
		feedParser:      feedParser,
		decoder:         decoder,
		log:             log,
	}
}

// NormalizeHost prefixes https:// unless a scheme is present and ensures a
// trailing slash.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if !strings.HasPrefix(host, "https://") && !strings.HasPrefix(host, "http://") {
		host = "https://" + host
	}
	if !strings.HasSuffix(host, "/") {
		host += "/"
	}
	return host
}

func (c *Client) SetServer(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.host = NormalizeHost(host)
}

func (c *Client) Host() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.host
}

func (c *Client) SetProfileFeedBase(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.profileFeedBase = strings.TrimSuffix(strings.TrimSpace(base), "/")
}

func (c *Client) xrpcURL(method string) string {
	return c.host + "xrpc/" + method
}

func (c *Client) getXRPC(
	ctx context.Context,
	method string,
	query map[string]string,
	withAuth bool,
) ([]byte, error) {
	reqURL := c.xrpcURL(method) + text.EncodeQuery(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if withAuth {
		req.Header.Set("Authorization", c.session.Token)
	}

	return c.do(ctx, req, method)
}

func (c *Client) postXRPC(
	ctx context.Context,
	method string,
	payload map[string]string,
	withAuth bool,
) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.xrpcURL(method), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if withAuth {
		req.Header.Set("Authorization", c.session.Token)
	}

	return c.do(ctx, req, method)
}

func (c *Client) do(ctx context.Context, req *http.Request, method string) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"xrpcMethod", method)
		}
	}()

	c.log.DebugContext(ctx, "XRPC response is received",
		"httpMethod", req.Method,
		"xrpcMethod", method,
		"status", resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if req.Header.Get("Authorization") != "" && rejectsToken(resp.StatusCode, body) {
			return nil, fmt.Errorf("do request: %w: %w: %d", ErrSessionExpired, ErrUnexpectedStatus, resp.StatusCode)
		}

		return nil, fmt.Errorf("do request: %w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return body, nil
}

// rejectsToken reports whether the server refused the access token itself.
func rejectsToken(status int, body []byte) bool {
	if status == http.StatusUnauthorized {
		return true
	}
	if status != http.StatusBadRequest {
		return false
	}

	switch gjson.GetBytes(body, "error").String() {
	case "ExpiredToken", "InvalidToken":
		return true
	default:
		return false
	}
}
