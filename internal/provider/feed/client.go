// Package feed pulls RSS and Atom entries from the feeds configured on an
// integration.
package feed

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/provider"
)

// Setting keys read from the integration metadata.
const (
	SettingFeedURLs = "feed_urls"
	SettingItemType = "item_type"
)

type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Client implements provider.Client over public feeds. Each page is one feed,
// the cursor is the index of the next feed to read.
type Client struct {
	provider.StaticTokens

	parser *gofeed.Parser
	logger *slog.Logger
}

var (
	_ provider.Client    = (*Client)(nil)
	_ provider.Anonymous = (*Client)(nil)
)

func New(cfg Config, logger *slog.Logger) *Client {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: cfg.Timeout}
	if cfg.UserAgent != "" {
		parser.UserAgent = cfg.UserAgent
	}
	return &Client{
		parser: parser,
		logger: logger.With("provider", domain.ProviderFeed),
	}
}

func (c *Client) Provider() string { return domain.ProviderFeed }

func (c *Client) RequiresCredentials() bool { return false }

func (c *Client) FetchItems(ctx context.Context, acct provider.Account, since time.Time, cursor string) (*provider.FetchPage, error) {
	urls := acct.Settings.Strings(SettingFeedURLs)
	if len(urls) == 0 {
		return nil, fmt.Errorf("feed: no %s configured", SettingFeedURLs)
	}

	idx := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 || n >= len(urls) {
			return nil, fmt.Errorf("feed: invalid cursor %q", cursor)
		}
		idx = n
	}

	url := urls[idx]
	parsed, err := c.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("feed: parse %s: %w", url, err)
	}

	itemType := cmp.Or(acct.Settings.String(SettingItemType), string(domain.ItemTypeArticle))

	page := &provider.FetchPage{}
	for _, it := range parsed.Items {
		published := itemTime(it)
		if !since.IsZero() && !published.IsZero() && !published.After(since) {
			continue
		}
		page.Items = append(page.Items, transform(parsed, it, itemType, published))
	}
	if idx+1 < len(urls) {
		page.NextCursor = strconv.Itoa(idx + 1)
	}

	c.logger.Debug("parsed feed", "url", url, "entries", len(parsed.Items), "new", len(page.Items))
	return page, nil
}

func (c *Client) GetAccountInfo(ctx context.Context, acct provider.Account) (map[string]any, error) {
	urls := acct.Settings.Strings(SettingFeedURLs)
	if len(urls) == 0 {
		return nil, fmt.Errorf("feed: no %s configured", SettingFeedURLs)
	}
	titles := make([]string, 0, len(urls))
	for _, url := range urls {
		parsed, err := c.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			return nil, fmt.Errorf("feed: parse %s: %w", url, err)
		}
		titles = append(titles, parsed.Title)
	}
	return map[string]any{"feeds": titles}, nil
}

func transform(f *gofeed.Feed, it *gofeed.Item, itemType string, published time.Time) domain.StandardIngestItem {
	raw, _ := json.Marshal(it)

	meta := map[string]any{
		domain.MetaSourceType: "feed",
		"feed_title":          f.Title,
	}
	if len(it.Enclosures) > 0 && it.Enclosures[0] != nil {
		meta["enclosure_url"] = it.Enclosures[0].URL
	}

	return domain.StandardIngestItem{
		SourceID:   cmp.Or(it.GUID, it.Link),
		SourceURL:  it.Link,
		Type:       itemType,
		Title:      it.Title,
		Content:    cmp.Or(it.Content, it.Description),
		Summary:    it.Description,
		Author:     author(it),
		Tags:       it.Categories,
		OccurredAt: published,
		Metadata:   meta,
		RawData:    raw,
	}
}

func itemTime(it *gofeed.Item) time.Time {
	if it.PublishedParsed != nil {
		return it.PublishedParsed.UTC()
	}
	if it.UpdatedParsed != nil {
		return it.UpdatedParsed.UTC()
	}
	return time.Time{}
}

func author(it *gofeed.Item) string {
	var names []string
	for _, a := range it.Authors {
		if a == nil {
			continue
		}
		if name := strings.TrimSpace(cmp.Or(a.Name, a.Email)); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 && it.Author != nil {
		return strings.TrimSpace(cmp.Or(it.Author.Name, it.Author.Email))
	}
	return strings.Join(names, ", ")
}
