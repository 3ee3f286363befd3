// Package slack pulls channel messages from Slack.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	slackapi "github.com/slack-go/slack"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/provider"
)

// Config holds Slack client configuration.
type Config struct {
	APIURL   string
	PageSize int
	Timeout  time.Duration
}

// Client implements provider.Client for Slack channels listed in the
// integration setting "channel_ids".
type Client struct {
	provider.StaticTokens

	apiURL     string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger
}

var _ provider.Client = (*Client)(nil)

func New(cfg Config, logger *slog.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 200
	}
	return &Client{
		apiURL:     cfg.APIURL,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("provider", domain.ProviderSlack),
	}
}

func (c *Client) Provider() string { return domain.ProviderSlack }

func (c *Client) api(token string) *slackapi.Client {
	opts := []slackapi.Option{slackapi.OptionHTTPClient(c.httpClient)}
	if c.apiURL != "" {
		opts = append(opts, slackapi.OptionAPIURL(c.apiURL))
	}
	return slackapi.New(token, opts...)
}

// FetchItems pages through channel history oldest-bound by since. The cursor
// is "<channel index>|<slack cursor>" so one run can span several channels.
func (c *Client) FetchItems(ctx context.Context, acct provider.Account, since time.Time, cursor string) (*provider.FetchPage, error) {
	channels := acct.Settings.Strings("channel_ids")
	if len(channels) == 0 {
		return nil, errors.New("slack: no channel_ids configured")
	}

	idx, slackCursor, err := parseCursor(cursor)
	if err != nil {
		return nil, err
	}
	if idx >= len(channels) {
		return &provider.FetchPage{}, nil
	}
	channel := channels[idx]

	params := &slackapi.GetConversationHistoryParameters{
		ChannelID: channel,
		Cursor:    slackCursor,
		Limit:     c.pageSize,
	}
	if !since.IsZero() {
		params.Oldest = formatTS(since)
	}

	resp, err := c.api(acct.Credentials.AccessToken).GetConversationHistoryContext(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("slack: conversation history %s: %w", channel, err)
	}

	page := &provider.FetchPage{Items: make([]domain.StandardIngestItem, 0, len(resp.Messages))}
	for _, msg := range resp.Messages {
		if msg.SubType != "" && msg.SubType != "thread_broadcast" {
			continue
		}
		page.Items = append(page.Items, c.transform(channel, msg))
	}

	switch {
	case resp.HasMore && resp.ResponseMetaData.NextCursor != "":
		page.NextCursor = fmt.Sprintf("%d|%s", idx, resp.ResponseMetaData.NextCursor)
	case idx+1 < len(channels):
		page.NextCursor = fmt.Sprintf("%d|", idx+1)
	}

	c.logger.Debug("fetched page",
		"channel", channel,
		"messages", len(resp.Messages),
		"items", len(page.Items),
	)

	return page, nil
}

func (c *Client) GetAccountInfo(ctx context.Context, acct provider.Account) (map[string]any, error) {
	resp, err := c.api(acct.Credentials.AccessToken).AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack: auth test: %w", err)
	}
	return map[string]any{
		"team":     resp.Team,
		"team_id":  resp.TeamID,
		"user":     resp.User,
		"user_id":  resp.UserID,
		"team_url": resp.URL,
	}, nil
}

func (c *Client) transform(channel string, msg slackapi.Message) domain.StandardIngestItem {
	itemType := "message"
	if msg.ThreadTimestamp != "" && msg.ThreadTimestamp == msg.Timestamp && msg.ReplyCount > 0 {
		itemType = "thread"
	}

	raw, _ := json.Marshal(msg.Msg)

	return domain.StandardIngestItem{
		SourceID:   channel + ":" + msg.Timestamp,
		SourceURL:  permalink(channel, msg.Timestamp),
		Type:       itemType,
		Title:      domain.TruncateRunes(firstLine(msg.Text), 80),
		Content:    msg.Text,
		Author:     msg.User,
		OccurredAt: parseTS(msg.Timestamp),
		Metadata: map[string]any{
			"channel_id":  channel,
			"reply_count": msg.ReplyCount,
		},
		RawData: raw,
	}
}

func parseCursor(cursor string) (int, string, error) {
	if cursor == "" {
		return 0, "", nil
	}
	idxStr, rest, _ := strings.Cut(cursor, "|")
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return 0, "", fmt.Errorf("slack: bad cursor %q", cursor)
	}
	return idx, rest, nil
}

func formatTS(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/1000)
}

// parseTS converts a Slack timestamp like "1234567890.123456".
func parseTS(ts string) time.Time {
	secStr, fracStr, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var usec int64
	if fracStr != "" {
		fracStr = (fracStr + "000000")[:6]
		usec, _ = strconv.ParseInt(fracStr, 10, 64)
	}
	return time.Unix(sec, usec*1000).UTC()
}

func permalink(channel, ts string) string {
	return fmt.Sprintf("https://slack.com/archives/%s/p%s", channel, strings.ReplaceAll(ts, ".", ""))
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
