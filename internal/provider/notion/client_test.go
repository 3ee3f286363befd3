package notion

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/provider"
)

type NotionClientTestSuite struct {
	suite.Suite
	server   *httptest.Server
	mux      *http.ServeMux
	client   *Client
	searches atomic.Int32
}

func (s *NotionClientTestSuite) SetupTest() {
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(s.mux)
	s.searches.Store(0)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.client = New(Config{
		BaseURL:  s.server.URL,
		PageSize: 10,
		Timeout:  5 * time.Second,
		Retry:    provider.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	}, logger)
}

func (s *NotionClientTestSuite) TearDownTest() {
	s.server.Close()
}

func TestNotionClientTestSuite(t *testing.T) {
	suite.Run(t, new(NotionClientTestSuite))
}

func (s *NotionClientTestSuite) acct() provider.Account {
	return provider.Account{Credentials: domain.Credentials{AccessToken: "secret_x"}}
}

func (s *NotionClientTestSuite) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func apiError(status int, code string) map[string]any {
	return map[string]any{"object": "error", "status": status, "code": code, "message": code}
}

func (s *NotionClientTestSuite) serveSearch(now time.Time) {
	s.mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		s.Equal("Bearer secret_x", r.Header.Get("Authorization"))
		s.writeJSON(w, http.StatusOK, map[string]any{
			"object": "list",
			"results": []map[string]any{
				{
					"object": "page", "id": "p1", "url": "https://notion.so/p1",
					"created_time": now.Add(-48 * time.Hour), "last_edited_time": now,
					"properties": map[string]any{
						"Name": map[string]any{"id": "title", "type": "title", "title": []map[string]any{
							{"type": "text", "text": map[string]any{"content": "Roadmap"}, "plain_text": "Roadmap"},
						}},
						"Tags": map[string]any{"id": "t", "type": "multi_select", "multi_select": []map[string]any{
							{"id": "o1", "name": "planning", "color": "blue"},
						}},
					},
				},
				{
					"object": "page", "id": "p0", "url": "https://notion.so/p0",
					"created_time": now.Add(-96 * time.Hour), "last_edited_time": now.Add(-72 * time.Hour),
					"properties": map[string]any{},
				},
			},
			"has_more":    true,
			"next_cursor": "cur-2",
		})
	})
}

func richText(text string) map[string]any {
	return map[string]any{"rich_text": []map[string]any{
		{"type": "text", "text": map[string]any{"content": text}, "plain_text": text},
	}}
}

func (s *NotionClientTestSuite) TestFetchItems_StopsAtWatermark() {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s.serveSearch(now)
	s.mux.HandleFunc("/v1/blocks/p1/children", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"object": "list",
			"results": []map[string]any{
				{"object": "block", "id": "b1", "type": "heading_1", "heading_1": richText("Q4")},
				{"object": "block", "id": "b2", "type": "paragraph", "paragraph": richText("Launch pricing")},
			},
			"has_more": false,
		})
	})

	page, err := s.client.FetchItems(context.Background(), s.acct(), now.Add(-24*time.Hour), "")
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Empty(page.NextCursor)

	item := page.Items[0]
	s.Equal("p1", item.SourceID)
	s.Equal("Roadmap", item.Title)
	s.Equal("Q4\nLaunch pricing", item.Content)
	s.Equal([]string{"planning"}, item.Tags)
	s.Equal("page", item.Type)
}

func (s *NotionClientTestSuite) TestFetchItems_UnreadableBodyFailsTheFetch() {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	s.serveSearch(now)
	var reads atomic.Int32
	s.mux.HandleFunc("/v1/blocks/p1/children", func(w http.ResponseWriter, r *http.Request) {
		reads.Add(1)
		s.writeJSON(w, http.StatusInternalServerError, apiError(http.StatusInternalServerError, "internal_server_error"))
	})

	page, err := s.client.FetchItems(context.Background(), s.acct(), now.Add(-24*time.Hour), "")

	s.Require().Error(err)
	s.Nil(page)
	s.Contains(err.Error(), "page p1")
	s.Equal(int32(3), reads.Load())
}

func (s *NotionClientTestSuite) TestFetchItems_RetriesServerErrors() {
	s.mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if s.searches.Add(1) < 2 {
			s.writeJSON(w, http.StatusBadGateway, apiError(http.StatusBadGateway, "bad_gateway"))
			return
		}
		_, _ = io.WriteString(w, `{"object":"list","results":[],"has_more":false}`)
	})

	page, err := s.client.FetchItems(context.Background(), s.acct(), time.Time{}, "")
	s.Require().NoError(err)
	s.Empty(page.Items)
	s.Equal(int32(2), s.searches.Load())
}

func (s *NotionClientTestSuite) TestFetchItems_UnauthorizedIsNotRetried() {
	s.mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		s.searches.Add(1)
		s.writeJSON(w, http.StatusUnauthorized, apiError(http.StatusUnauthorized, "unauthorized"))
	})

	_, err := s.client.FetchItems(context.Background(), s.acct(), time.Time{}, "")
	s.Error(err)
	var perm *provider.PermanentError
	s.ErrorAs(err, &perm)
	s.Equal(int32(1), s.searches.Load())
}

func (s *NotionClientTestSuite) TestGetAccountInfo() {
	s.mux.HandleFunc("/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"object":"user","id":"bot-1","type":"bot","name":"Sync","bot":{"workspace_name":"Acme"}}`)
	})

	info, err := s.client.GetAccountInfo(context.Background(), s.acct())
	s.Require().NoError(err)
	s.Equal("Acme", info["workspace_name"])
	s.Equal("bot-1", info["bot_id"])
}
