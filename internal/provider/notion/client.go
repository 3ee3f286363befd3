// Package notion pulls recently edited pages from a Notion workspace.
package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jomei/notionapi"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/provider"
)

const blockPageSize = 100

// Config holds Notion client configuration.
type Config struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
	Retry    provider.RetryConfig
}

// Client implements provider.Client for Notion pages shared with the
// integration.
type Client struct {
	provider.StaticTokens

	httpClient *http.Client
	pageSize   int
	retry      provider.RetryConfig
	logger     *slog.Logger
}

var _ provider.Client = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) *Client {
	logger = logger.With("provider", domain.ProviderNotion)

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.BaseURL != "" {
		target, err := url.Parse(cfg.BaseURL)
		if err != nil || target.Host == "" {
			logger.Warn("ignoring invalid notion base url", "base_url", cfg.BaseURL)
		} else {
			httpClient.Transport = hostTransport{target: target, next: http.DefaultTransport}
		}
	}

	return &Client{
		httpClient: httpClient,
		pageSize:   cfg.PageSize,
		retry:      cfg.Retry,
		logger:     logger,
	}
}

func (c *Client) Provider() string { return domain.ProviderNotion }

// api returns an SDK client bound to one workspace token.
func (c *Client) api(token string) *notionapi.Client {
	return notionapi.NewClient(notionapi.Token(token), notionapi.WithHTTPClient(c.httpClient))
}

// FetchItems searches pages sorted by last edit, newest first, and stops the
// run once it reaches pages older than since. A page whose body cannot be
// read fails the whole call so it is picked up again on the next run.
func (c *Client) FetchItems(ctx context.Context, acct provider.Account, since time.Time, cursor string) (*provider.FetchPage, error) {
	api := c.api(acct.Credentials.AccessToken)
	req := &notionapi.SearchRequest{
		Filter:      notionapi.SearchFilter{Property: "object", Value: "page"},
		Sort:        &notionapi.SortObject{Direction: notionapi.SortOrderDESC, Timestamp: notionapi.TimestampLastEdited},
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    c.pageSize,
	}

	var resp *notionapi.SearchResponse
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		resp, err = api.Search.Do(ctx, req)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("notion: search: %w", err)
	}

	page := &provider.FetchPage{}
	reachedWatermark := false
	for _, obj := range resp.Results {
		p, ok := obj.(*notionapi.Page)
		if !ok {
			continue
		}
		if !since.IsZero() && !p.LastEditedTime.After(since) {
			reachedWatermark = true
			break
		}
		if p.Archived {
			continue
		}

		content, err := c.pageContent(ctx, api, p.ID)
		if err != nil {
			return nil, fmt.Errorf("notion: content of page %s: %w", p.ID, err)
		}

		raw, _ := json.Marshal(p)
		page.Items = append(page.Items, domain.StandardIngestItem{
			SourceID:   string(p.ID),
			SourceURL:  p.URL,
			Type:       "page",
			Title:      pageTitle(p.Properties),
			Content:    content,
			Tags:       pageTags(p.Properties),
			OccurredAt: p.LastEditedTime,
			Metadata: map[string]any{
				"created_time": p.CreatedTime.Format(time.RFC3339),
			},
			RawData: raw,
		})
	}

	if resp.HasMore && !reachedWatermark && resp.NextCursor != "" {
		page.NextCursor = string(resp.NextCursor)
	}

	c.logger.Debug("fetched page",
		"results", len(resp.Results),
		"items", len(page.Items),
		"has_more", page.NextCursor != "",
	)

	return page, nil
}

func (c *Client) GetAccountInfo(ctx context.Context, acct provider.Account) (map[string]any, error) {
	api := c.api(acct.Credentials.AccessToken)

	var me *notionapi.User
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		me, err = api.User.Me(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("notion: users/me: %w", err)
	}

	info := map[string]any{
		"bot_id": string(me.ID),
		"name":   me.Name,
	}
	if me.Bot != nil && me.Bot.WorkspaceName != "" {
		info["workspace_name"] = me.Bot.WorkspaceName
	}
	return info, nil
}

func (c *Client) pageContent(ctx context.Context, api *notionapi.Client, pageID notionapi.ObjectID) (string, error) {
	var lines []string
	pagination := &notionapi.Pagination{PageSize: blockPageSize}
	for {
		var resp *notionapi.GetChildrenResponse
		err := c.call(ctx, func(ctx context.Context) error {
			var err error
			resp, err = api.Block.GetChildren(ctx, notionapi.BlockID(pageID), pagination)
			return err
		})
		if err != nil {
			return "", err
		}

		for _, b := range resp.Results {
			if text := plainText(b); text != "" {
				lines = append(lines, text)
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		pagination = &notionapi.Pagination{PageSize: blockPageSize, StartCursor: notionapi.Cursor(resp.NextCursor)}
	}
	return strings.Join(lines, "\n"), nil
}

// call retries fn under the client's policy. API errors in the 4xx range
// other than 429 are not retried.
func (c *Client) call(ctx context.Context, fn func(ctx context.Context) error) error {
	return provider.Retry(ctx, c.retry, c.logger, func(ctx context.Context) error {
		err := fn(ctx)
		var apiErr *notionapi.Error
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests {
			return &provider.PermanentError{Err: err}
		}
		return err
	})
}

func plainText(b notionapi.Block) string {
	switch b := b.(type) {
	case *notionapi.ParagraphBlock:
		return joinRichText(b.Paragraph.RichText)
	case *notionapi.Heading1Block:
		return joinRichText(b.Heading1.RichText)
	case *notionapi.Heading2Block:
		return joinRichText(b.Heading2.RichText)
	case *notionapi.Heading3Block:
		return joinRichText(b.Heading3.RichText)
	case *notionapi.BulletedListItemBlock:
		return joinRichText(b.BulletedListItem.RichText)
	case *notionapi.NumberedListItemBlock:
		return joinRichText(b.NumberedListItem.RichText)
	case *notionapi.ToDoBlock:
		return joinRichText(b.ToDo.RichText)
	case *notionapi.QuoteBlock:
		return joinRichText(b.Quote.RichText)
	case *notionapi.CalloutBlock:
		return joinRichText(b.Callout.RichText)
	}
	return ""
}

func pageTitle(props notionapi.Properties) string {
	for _, p := range props {
		if t, ok := p.(*notionapi.TitleProperty); ok {
			return joinRichText(t.Title)
		}
	}
	return ""
}

func pageTags(props notionapi.Properties) []string {
	var tags []string
	for _, name := range slices.Sorted(maps.Keys(props)) {
		switch p := props[name].(type) {
		case *notionapi.MultiSelectProperty:
			for _, o := range p.MultiSelect {
				tags = append(tags, o.Name)
			}
		case *notionapi.SelectProperty:
			if p.Select.Name != "" {
				tags = append(tags, p.Select.Name)
			}
		}
	}
	return tags
}

func joinRichText(parts []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range parts {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}

// hostTransport sends every request to target's scheme and host.
type hostTransport struct {
	target *url.URL
	next   http.RoundTripper
}

func (t hostTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	req.Host = t.target.Host
	return t.next.RoundTrip(req)
}
