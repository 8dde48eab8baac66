package bluesky

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"skyticker/internal/domain"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// LatestProfilePost reads the newest post from the public RSS feed of a
// profile. No session is needed.
func (c *Client) LatestProfilePost(
	ctx context.Context,
	handle string,
	filterText bool,
) (PopularPost, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	handle = strings.TrimSpace(handle)
	if handle == "" {
		return PopularPost{Error: ErrorNoData}, errors.New("handle is empty")
	}

	feedURL := c.profileFeedURL(handle)

	parsed, err := c.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return PopularPost{Error: ErrorNoData}, fmt.Errorf("parse feed (URL = %s): %w: %w", feedURL, ErrNoData, err)
	}

	if len(parsed.Items) == 0 {
		return PopularPost{Error: ErrorNoData}, fmt.Errorf("parse feed (URL = %s): %w: no items", feedURL, ErrNoData)
	}

	item := parsed.Items[0]

	body := item.Description
	if body == "" {
		body = item.Content
	}

	postText, err := plainText(body)
	if err != nil {
		return PopularPost{Error: ErrorNoData}, fmt.Errorf("strip HTML: %w", err)
	}

	var date string
	if item.PublishedParsed != nil {
		date = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else {
		date = strings.TrimSpace(item.Published)
	}

	name := strings.TrimSpace(parsed.Title)
	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		name = strings.TrimSpace(item.Author.Name)
	}

	result := c.storePost(domain.Post{
		Handle: handle,
		Name:   name,
		Date:   date,
		Text:   postText,
	}, filterText)

	c.log.InfoContext(ctx, "Profile post is fetched",
		"handle", handle,
		"feedURL", feedURL,
		"itemCount", len(parsed.Items))

	return result, nil
}

func (c *Client) profileFeedURL(handle string) string {
	return fmt.Sprintf("%s/profile/%s/rss", c.profileFeedBase, url.PathEscape(handle))
}

func plainText(fragment string) (string, error) {
	if !strings.ContainsRune(fragment, '<') {
		return strings.TrimSpace(fragment), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("create document from reader: %w", err)
	}

	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml(" ")
	})

	return strings.TrimSpace(doc.Text()), nil
}
