package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

const maxTitleRunes = 300

// NormalizeItem turns a provider item into an IngestedItem ready for upsert.
// The returned item has no ID; the store assigns it. An item the provider
// did not date is stamped with ingestedAt.
func NormalizeItem(userID, provider string, in StandardIngestItem, ingestedAt time.Time) (*IngestedItem, error) {
	sourceID := strings.TrimSpace(in.SourceID)
	if sourceID == "" {
		return nil, errors.New("item has no source id")
	}

	title := collapseSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" && content == "" {
		return nil, errors.New("item has neither title nor content")
	}
	title = TruncateRunes(title, maxTitleRunes)

	itemType := ResolveItemType(provider, in.Type)

	metadata := JSONMap{}
	for k, v := range in.Metadata {
		metadata[k] = v
	}
	if tags := normalizeTags(in.Tags); len(tags) > 0 {
		metadata[MetaTags] = tags
	}
	if s := strings.TrimSpace(in.Summary); s != "" {
		metadata[MetaSummary] = s
	}
	if in.Author != "" {
		metadata[MetaAuthor] = in.Author
	}
	if in.Type != "" && ItemType(in.Type) != itemType {
		metadata[MetaSourceType] = in.Type
	}
	if in.Hints.Priority != "" {
		metadata[MetaPriority] = string(in.Hints.Priority)
	}

	item := &IngestedItem{
		UserID:     userID,
		Provider:   provider,
		SourceID:   sourceID,
		SourceURL:  strings.TrimSpace(in.SourceURL),
		ItemType:   itemType,
		Title:      title,
		Content:    content,
		RawData:    RawJSON(in.RawData),
		Metadata:   metadata,
		Status:     ItemStatusPending,
		OccurredAt: in.OccurredAt.UTC(),
	}
	// Hash before the default so an undated item is not "changed" every run.
	item.ContentHash = ContentHash(item)
	if item.OccurredAt.IsZero() {
		item.OccurredAt = ingestedAt.UTC()
	}
	return item, nil
}

// ContentHash fingerprints the fields that make an update meaningful.
func ContentHash(item *IngestedItem) string {
	h := sha256.New()
	for _, part := range []string{
		string(item.ItemType),
		item.Title,
		item.Content,
		item.SourceURL,
		item.Metadata.String(MetaSummary),
		strings.Join(item.Metadata.Strings(MetaTags), ","),
		item.OccurredAt.Format(time.RFC3339),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ToStandard rebuilds the transient form from a stored item, used when the
// pipeline runs on items that are already persisted.
func ToStandard(item *IngestedItem) StandardIngestItem {
	std := StandardIngestItem{
		SourceID:   item.SourceID,
		SourceURL:  item.SourceURL,
		Type:       string(item.ItemType),
		Title:      item.Title,
		Content:    item.Content,
		Summary:    item.Metadata.String(MetaSummary),
		Author:     item.Metadata.String(MetaAuthor),
		Tags:       item.Tags(),
		OccurredAt: item.OccurredAt,
		Metadata:   item.Metadata,
		RawData:    []byte(item.RawData),
	}
	if p, ok := ParsePriority(item.Metadata.String(MetaPriority)); ok {
		std.Hints.Priority = p
	}
	return std
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#")))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TruncateRunes cuts s to at most n runes, appending "..." when cut.
func TruncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	cut := max(n-3, 0)
	return strings.TrimSpace(string(runes[:cut])) + "..."
}

// FirstNonEmpty returns the first non-blank string.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
