package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"knowledge_sync/internal/domain"
)

func itemAt(provider string, t domain.ItemType, title, content string, at time.Time) *domain.IngestedItem {
	return &domain.IngestedItem{
		ID:         provider + ":" + title,
		Provider:   provider,
		ItemType:   t,
		Title:      title,
		Content:    content,
		OccurredAt: at,
	}
}

func TestScoreItem_DecreasesWithAge(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	terms := []string{"pricing"}

	prev := ScoreItem(itemAt("slack", domain.ItemTypeMessage, "pricing", "", now), terms, now)
	assert.InDelta(t, 1+0.35*2+0.20, prev, 1e-9)

	for _, days := range []int{1, 3, 7, 14, 30, 90} {
		at := now.Add(-time.Duration(days) * 24 * time.Hour)
		score := ScoreItem(itemAt("slack", domain.ItemTypeMessage, "pricing", "", at), terms, now)
		assert.Less(t, score, prev, "age %d days", days)
		prev = score
	}
}

func TestScoreItem_TitleMatchBeatsContentMatch(t *testing.T) {
	now := time.Now()
	terms := []string{"deck"}

	title := ScoreItem(itemAt("notion", domain.ItemTypeDocument, "deck", "xxxx", now), terms, now)
	content := ScoreItem(itemAt("notion", domain.ItemTypeDocument, "xxxx", "deck", now), terms, now)
	assert.Greater(t, title, content)
	assert.InDelta(t, 0.35, title-content, 1e-9)
}

func TestScoreItem_FutureTimestampIsClamped(t *testing.T) {
	now := time.Now()
	got := ScoreItem(itemAt("gcal", domain.ItemTypeMeeting, "sync", "", now.Add(48*time.Hour)), nil, now)
	assert.InDelta(t, 1.30, got, 1e-9)
}

func TestTypeBoost(t *testing.T) {
	assert.Equal(t, 0.35, TypeBoost(domain.ItemTypeEmail))
	assert.Equal(t, 0.25, TypeBoost(domain.ItemTypeIssue))
	assert.Equal(t, 0.05, TypeBoost(domain.ItemTypeClip))
	assert.Equal(t, 0.05, TypeBoost("unknown"))
}
