// Package gcalendar pulls events from Google Calendar as meetings.
package gcalendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/provider"
)

// Config holds Google Calendar client configuration.
type Config struct {
	PageSize int64
	Timeout  time.Duration
	// Endpoint overrides the API base path (tests).
	Endpoint string
}

// Client implements provider.Client for Google Calendar. The calendar is
// taken from the integration setting "calendar_id", default "primary".
type Client struct {
	refresher *provider.OAuthRefresher
	pageSize  int64
	timeout   time.Duration
	endpoint  string
	logger    *slog.Logger
}

var _ provider.Client = (*Client)(nil)

func New(cfg Config, oauthCfg *oauth2.Config, logger *slog.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		refresher: provider.NewOAuthRefresher(oauthCfg),
		pageSize:  pageSize,
		timeout:   cfg.Timeout,
		endpoint:  cfg.Endpoint,
		logger:    logger.With("provider", domain.ProviderGoogleCalendar),
	}
}

func (c *Client) Provider() string { return domain.ProviderGoogleCalendar }

func (c *Client) RefreshIfNeeded(ctx context.Context, creds domain.Credentials) (domain.Credentials, bool, error) {
	return c.refresher.RefreshIfNeeded(ctx, creds)
}

func (c *Client) service(ctx context.Context, creds domain.Credentials) (*calendar.Service, error) {
	httpClient := &http.Client{
		Timeout:   c.timeout,
		Transport: &oauth2.Transport{Source: c.refresher.TokenSource(ctx, creds)},
	}
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return srv, nil
}

func (c *Client) FetchItems(ctx context.Context, acct provider.Account, since time.Time, cursor string) (*provider.FetchPage, error) {
	srv, err := c.service(ctx, acct.Credentials)
	if err != nil {
		return nil, err
	}

	calendarID := acct.Settings.String("calendar_id")
	if calendarID == "" {
		calendarID = "primary"
	}

	call := srv.Events.List(calendarID).
		SingleEvents(true).
		ShowDeleted(false).
		MaxResults(c.pageSize)
	if !since.IsZero() {
		call = call.UpdatedMin(since.UTC().Format(time.RFC3339))
	}
	if cursor != "" {
		call = call.PageToken(cursor)
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gcalendar: list events: %w", err)
	}

	page := &provider.FetchPage{
		Items:      make([]domain.StandardIngestItem, 0, len(events.Items)),
		NextCursor: events.NextPageToken,
	}
	for _, ev := range events.Items {
		if ev.Status == "cancelled" {
			continue
		}
		page.Items = append(page.Items, transform(ev))
	}

	c.logger.Debug("fetched page", "calendar", calendarID, "events", len(events.Items))
	return page, nil
}

func (c *Client) GetAccountInfo(ctx context.Context, acct provider.Account) (map[string]any, error) {
	srv, err := c.service(ctx, acct.Credentials)
	if err != nil {
		return nil, err
	}
	entry, err := srv.CalendarList.Get("primary").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gcalendar: get calendar: %w", err)
	}
	return map[string]any{
		"calendar_id": entry.Id,
		"summary":     entry.Summary,
		"time_zone":   entry.TimeZone,
	}, nil
}

func transform(ev *calendar.Event) domain.StandardIngestItem {
	start := eventTime(ev.Start)

	attendees := make([]string, 0, len(ev.Attendees))
	for _, a := range ev.Attendees {
		if a.DisplayName != "" {
			attendees = append(attendees, a.DisplayName)
		} else if a.Email != "" {
			attendees = append(attendees, a.Email)
		}
	}

	meta := map[string]any{
		domain.MetaAttendees: attendees,
	}
	if !start.IsZero() {
		meta["starts_at"] = start.Format(time.RFC3339)
	}
	if end := eventTime(ev.End); !end.IsZero() {
		meta["ends_at"] = end.Format(time.RFC3339)
	}
	if ev.Location != "" {
		meta["location"] = ev.Location
	}

	raw, _ := json.Marshal(ev)

	return domain.StandardIngestItem{
		SourceID:   ev.Id,
		SourceURL:  ev.HtmlLink,
		Type:       "event",
		Title:      ev.Summary,
		Content:    ev.Description,
		OccurredAt: start,
		Metadata:   meta,
		RawData:    raw,
	}
}

func eventTime(t *calendar.EventDateTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed.UTC()
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse(time.DateOnly, t.Date); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
