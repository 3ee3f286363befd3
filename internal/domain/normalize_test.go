package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ingestedAt = time.Date(2024, 10, 15, 12, 0, 0, 0, time.UTC)

func TestNormalizeItem(t *testing.T) {
	occurred := time.Date(2024, 10, 15, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	item, err := NormalizeItem("u1", ProviderNotion, StandardIngestItem{
		SourceID:   "  page-1 ",
		SourceURL:  "https://notion.so/page-1",
		Type:       "page",
		Title:      "  Q4   planning\n notes ",
		Content:    "\n body \n",
		Summary:    " short ",
		Author:     "dana",
		Tags:       []string{"#Roadmap", "roadmap", " ", "Pricing"},
		OccurredAt: occurred,
		Metadata:   map[string]any{"database_id": "db1"},
		Hints:      Hints{Priority: PriorityHigh},
	}, ingestedAt)

	require.NoError(t, err)
	assert.Equal(t, "page-1", item.SourceID)
	assert.Equal(t, ItemTypeDocument, item.ItemType)
	assert.Equal(t, "Q4 planning notes", item.Title)
	assert.Equal(t, "body", item.Content)
	assert.Equal(t, ItemStatusPending, item.Status)
	assert.Equal(t, time.UTC, item.OccurredAt.Location())
	assert.True(t, item.OccurredAt.Equal(occurred))
	assert.Equal(t, []string{"pricing", "roadmap"}, item.Tags())
	assert.Equal(t, "short", item.Metadata.String(MetaSummary))
	assert.Equal(t, "dana", item.Metadata.String(MetaAuthor))
	assert.Equal(t, "page", item.Metadata.String(MetaSourceType))
	assert.Equal(t, "high", item.Metadata.String(MetaPriority))
	assert.Equal(t, "db1", item.Metadata.String("database_id"))
	assert.Len(t, item.ContentHash, 64)
}

func TestNormalizeItem_Rejects(t *testing.T) {
	_, err := NormalizeItem("u1", ProviderSlack, StandardIngestItem{Title: "x"}, ingestedAt)
	assert.Error(t, err)

	_, err = NormalizeItem("u1", ProviderSlack, StandardIngestItem{SourceID: "s", Title: "  ", Content: "\n"}, ingestedAt)
	assert.Error(t, err)
}

func TestNormalizeItem_UndatedItemUsesIngestTime(t *testing.T) {
	in := StandardIngestItem{SourceID: "s", Title: "Standup"}

	first, err := NormalizeItem("u1", ProviderSlack, in, ingestedAt)
	require.NoError(t, err)
	assert.Equal(t, ingestedAt, first.OccurredAt)

	later, err := NormalizeItem("u1", ProviderSlack, in, ingestedAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, ingestedAt.Add(time.Hour), later.OccurredAt)
	assert.Equal(t, first.ContentHash, later.ContentHash)
}

func TestNormalizeItem_TruncatesLongTitle(t *testing.T) {
	item, err := NormalizeItem("u1", ProviderFeed, StandardIngestItem{
		SourceID: "s",
		Title:    strings.Repeat("é", 400),
	}, ingestedAt)

	require.NoError(t, err)
	assert.Equal(t, maxTitleRunes, len([]rune(item.Title)))
	assert.True(t, strings.HasSuffix(item.Title, "..."))
}

func TestContentHash_TracksMeaningfulFields(t *testing.T) {
	in := StandardIngestItem{SourceID: "s", Title: "Standup", Content: "notes"}
	a, err := NormalizeItem("u1", ProviderSlack, in, ingestedAt)
	require.NoError(t, err)

	in.Metadata = map[string]any{"reactions": 3}
	b, err := NormalizeItem("u1", ProviderSlack, in, ingestedAt)
	require.NoError(t, err)
	assert.Equal(t, a.ContentHash, b.ContentHash)

	in.Content = "edited notes"
	c, err := NormalizeItem("u1", ProviderSlack, in, ingestedAt)
	require.NoError(t, err)
	assert.NotEqual(t, a.ContentHash, c.ContentHash)
}

func TestToStandard_RoundTripsNormalizedFields(t *testing.T) {
	item, err := NormalizeItem("u1", ProviderLinear, StandardIngestItem{
		SourceID: "LIN-1",
		Type:     "ticket",
		Title:    "Fix login",
		Summary:  "users locked out",
		Tags:     []string{"auth"},
		Hints:    Hints{Priority: PriorityMedium},
	}, ingestedAt)
	require.NoError(t, err)

	std := ToStandard(item)

	assert.Equal(t, "LIN-1", std.SourceID)
	assert.Equal(t, string(ItemTypeIssue), std.Type)
	assert.Equal(t, "users locked out", std.Summary)
	assert.Equal(t, []string{"auth"}, std.Tags)
	assert.Equal(t, PriorityMedium, std.Hints.Priority)
}

func TestResolveItemType(t *testing.T) {
	tests := []struct {
		provider string
		raw      string
		want     ItemType
	}{
		{ProviderSlack, "", ItemTypeMessage},
		{ProviderSlack, "Action Item", ItemTypeTask},
		{ProviderGitHub, "pull-request", ItemTypeIssue},
		{ProviderGoogleCalendar, "unknown", ItemTypeMeeting},
		{"dropbox", "whatever", ItemTypeDocument},
		{ProviderFeed, " POST ", ItemTypeArticle},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveItemType(tt.provider, tt.raw), "%s/%q", tt.provider, tt.raw)
	}
}

func TestParsePriority(t *testing.T) {
	p, ok := ParsePriority("Urgent")
	assert.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	p, ok = ParsePriority("p3")
	assert.True(t, ok)
	assert.Equal(t, PriorityLow, p)

	_, ok = ParsePriority("someday")
	assert.False(t, ok)
}

func TestProviderDisplayName(t *testing.T) {
	assert.Equal(t, "Google Calendar", ProviderDisplayName(ProviderGoogleCalendar))
	assert.Equal(t, "Dropbox", ProviderDisplayName("dropbox"))
	assert.Equal(t, "Élan", ProviderDisplayName("élan"))
	assert.Equal(t, "Unknown", ProviderDisplayName(""))
}

func TestJSONMap_ScanDecodesArrays(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"tags":["a","b"],"n":1}`)))

	assert.Equal(t, []string{"a", "b"}, m.Strings(MetaTags))
	assert.Empty(t, m.String("n"))

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)
}
