package retrieval

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"knowledge_sync/internal/domain"
)

const (
	DefaultDigestWindow = 7 * 24 * time.Hour
	maxHighlights       = 5
)

// BuildIntegrationSummary renders a one-line digest of item counts per
// provider within window before now. It returns "" when nothing falls inside
// the window.
func BuildIntegrationSummary(items []*domain.IngestedItem, now time.Time, window time.Duration) string {
	if window <= 0 {
		window = DefaultDigestWindow
	}
	since := now.Add(-window)

	counts := make(map[string]int)
	for _, it := range items {
		ts := it.Timestamp()
		if ts.Before(since) || ts.After(now) {
			continue
		}
		counts[it.Provider]++
	}
	if len(counts) == 0 {
		return ""
	}

	providers := make([]string, 0, len(counts))
	for p := range counts {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool {
		if counts[providers[i]] != counts[providers[j]] {
			return counts[providers[i]] > counts[providers[j]]
		}
		return providers[i] < providers[j]
	})

	parts := make([]string, len(providers))
	for i, p := range providers {
		noun := "items"
		if counts[p] == 1 {
			noun = "item"
		}
		parts[i] = fmt.Sprintf("%d %s %s", counts[p], domain.ProviderDisplayName(p), noun)
	}
	return fmt.Sprintf("Last %s: %s.", windowLabel(window), strings.Join(parts, ", "))
}

// BuildIntegrationHighlights lists up to five titled items, in input order.
func BuildIntegrationHighlights(items []*domain.IngestedItem) []string {
	var out []string
	for _, it := range items {
		if len(out) == maxHighlights {
			break
		}
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		out = append(out, fmt.Sprintf("- [%s] %s (%s)",
			domain.ProviderDisplayName(it.Provider), title, it.Timestamp().UTC().Format("Jan 2")))
	}
	return out
}

func windowLabel(window time.Duration) string {
	days := int(window.Hours() / 24)
	switch {
	case days == 1:
		return "day"
	case days > 1:
		return fmt.Sprintf("%d days", days)
	default:
		return window.String()
	}
}
