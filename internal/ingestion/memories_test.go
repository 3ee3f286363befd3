package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge_sync/internal/domain"
)

func memoriesByKey(ms []domain.Memory) map[string]domain.Memory {
	out := make(map[string]domain.Memory, len(ms))
	for _, m := range ms {
		out[m.Key] = m
	}
	return out
}

func TestDeriveMemories_Meeting(t *testing.T) {
	src := Source{UserID: "u1", Provider: domain.ProviderGoogleCalendar}
	item := domain.StandardIngestItem{
		SourceID:   "ev1",
		Title:      "Pricing review",
		Summary:    "Agreed on three tiers",
		Tags:       []string{"pricing"},
		OccurredAt: time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC),
		Metadata:   map[string]any{domain.MetaAttendees: []any{"Ana", "Bo"}},
	}

	got := memoriesByKey(DeriveMemories(src, domain.ItemTypeMeeting, item))
	require.Len(t, got, 3)

	base := got["google_calendar_meeting_ev1"]
	assert.Equal(t, "meetings", base.Category)
	assert.Equal(t, 70, base.Confidence)
	assert.Equal(t, "Pricing review: Agreed on three tiers", base.Value)

	meeting := got["meeting_google_calendar_ev1"]
	assert.Equal(t, 85, meeting.Confidence)
	assert.Equal(t, `Meeting "Pricing review" on 2026-10-14 with Ana, Bo: Agreed on three tiers`, meeting.Value)

	tags := got["tags_google_calendar_ev1"]
	assert.Equal(t, 90, tags.Confidence)
	assert.Equal(t, `"Pricing review" tagged with pricing`, tags.Value)
	assert.Equal(t, "u1", tags.UserID)
	assert.Equal(t, domain.ProviderGoogleCalendar, tags.Source)
}

func TestDeriveMemories_Highlight(t *testing.T) {
	src := Source{UserID: "u1", Provider: domain.ProviderReadwise}
	item := domain.StandardIngestItem{SourceID: "h1", Title: "Deep Work", Content: "Focus is a skill"}

	got := DeriveMemories(src, domain.ItemTypeHighlight, item)
	require.Len(t, got, 1)
	assert.Equal(t, "highlight_readwise_h1", got[0].Key)
	assert.Equal(t, "reading_highlights", got[0].Category)
	assert.Equal(t, 80, got[0].Confidence)
	assert.Equal(t, `"Focus is a skill" (from Deep Work)`, got[0].Value)
}

func TestDeriveMemories_TaskStatus(t *testing.T) {
	src := Source{UserID: "u1", Provider: domain.ProviderGitHub}
	item := domain.StandardIngestItem{
		SourceID: "42",
		Title:    "Flaky test",
		Metadata: map[string]any{domain.MetaStatus: "In Progress"},
	}

	got := DeriveMemories(src, domain.ItemTypeIssue, item)
	require.Len(t, got, 1)
	assert.Equal(t, "issue_github_42_status", got[0].Key)
	assert.Equal(t, 75, got[0].Confidence)
	assert.Equal(t, `issue "Flaky test" is in progress`, got[0].Value)
}

func TestDeriveMemories_PlainMessageYieldsNothing(t *testing.T) {
	src := Source{UserID: "u1", Provider: domain.ProviderSlack}
	item := domain.StandardIngestItem{SourceID: "C:1", Content: "lunch?"}

	assert.Empty(t, DeriveMemories(src, domain.ItemTypeMessage, item))
}
