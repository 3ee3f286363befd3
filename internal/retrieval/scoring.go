package retrieval

import (
	"math"
	"sort"
	"strings"
	"time"

	"knowledge_sync/internal/domain"
)

const (
	recencyDecayDays = 10.0
	termWeight       = 0.35
	titleMatchWeight = 2
	bodyMatchWeight  = 1
	defaultTypeBoost = 0.05
)

var typeBoosts = map[domain.ItemType]float64{
	domain.ItemTypeEmail:     0.35,
	domain.ItemTypeMeeting:   0.30,
	domain.ItemTypeTask:      0.30,
	domain.ItemTypeIssue:     0.25,
	domain.ItemTypeMessage:   0.20,
	domain.ItemTypeDocument:  0.20,
	domain.ItemTypeNote:      0.15,
	domain.ItemTypeHighlight: 0.10,
	domain.ItemTypeComment:   0.10,
	domain.ItemTypeArticle:   0.05,
	domain.ItemTypeBookmark:  0.05,
	domain.ItemTypeClip:      0.05,
}

// ScoredItem pairs an item with its relevance score.
type ScoredItem struct {
	Item  *domain.IngestedItem
	Score float64
}

// TypeBoost returns the fixed actionability weight of an item type.
func TypeBoost(t domain.ItemType) float64 {
	if b, ok := typeBoosts[t]; ok {
		return b
	}
	return defaultTypeBoost
}

// ScoreItem is recency + term matches + type boost. Recency decays as
// e^(-ageDays/10); a title match counts double a content match.
func ScoreItem(item *domain.IngestedItem, terms []string, now time.Time) float64 {
	ageDays := now.Sub(item.Timestamp()).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	recency := math.Exp(-ageDays / recencyDecayDays)

	title := strings.ToLower(item.Title)
	content := strings.ToLower(item.Content)
	matches := 0
	for _, t := range terms {
		if t == "" {
			continue
		}
		if strings.Contains(title, t) {
			matches += titleMatchWeight
		}
		if strings.Contains(content, t) {
			matches += bodyMatchWeight
		}
	}

	return recency + termWeight*float64(matches) + TypeBoost(item.ItemType)
}

// ScoreItems scores every item and returns them best first.
func ScoreItems(items []*domain.IngestedItem, terms []string, now time.Time) []ScoredItem {
	out := make([]ScoredItem, len(items))
	for i, it := range items {
		out[i] = ScoredItem{Item: it, Score: ScoreItem(it, terms, now)}
	}
	sortByScore(out)
	return out
}

func sortByScore(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
}
