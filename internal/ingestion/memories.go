package ingestion

import (
	"fmt"
	"strings"
	"time"

	"knowledge_sync/internal/domain"
)

// Fixed confidence per rule. More specific rules rank higher.
const (
	confidenceSummary   = 70
	confidenceTask      = 75
	confidenceHighlight = 80
	confidenceMeeting   = 85
	confidenceTags      = 90

	memoryValueRunes = 500
)

// DeriveMemories returns the memories an item yields. Keys are stable per
// (provider, source id) so re-ingesting overwrites the same records.
func DeriveMemories(src Source, itemType domain.ItemType, item domain.StandardIngestItem) []domain.Memory {
	var out []domain.Memory
	category := domain.MemoryCategoryFor(itemType)
	title := strings.TrimSpace(item.Title)
	add := func(key, value, category string, confidence int) {
		out = append(out, domain.Memory{
			UserID:     src.UserID,
			Key:        key,
			Value:      domain.TruncateRunes(value, memoryValueRunes),
			Category:   category,
			Confidence: confidence,
			Source:     src.Provider,
		})
	}

	if summary := strings.TrimSpace(item.Summary); summary != "" {
		value := summary
		if title != "" {
			value = title + ": " + summary
		}
		add(fmt.Sprintf("%s_%s_%s", src.Provider, itemType, item.SourceID), value, category, confidenceSummary)
	}

	switch itemType {
	case domain.ItemTypeMeeting:
		add(fmt.Sprintf("meeting_%s_%s", src.Provider, item.SourceID), meetingValue(title, item), "meetings", confidenceMeeting)

	case domain.ItemTypeHighlight:
		if quote := strings.TrimSpace(item.Content); quote != "" {
			value := fmt.Sprintf("%q", quote)
			if title != "" {
				value += " (from " + title + ")"
			}
			add(fmt.Sprintf("highlight_%s_%s", src.Provider, item.SourceID), value, "reading_highlights", confidenceHighlight)
		}

	case domain.ItemTypeTask, domain.ItemTypeIssue:
		status := "open"
		if s, ok := item.Metadata[domain.MetaStatus].(string); ok && s != "" {
			status = strings.ToLower(s)
		}
		add(fmt.Sprintf("%s_%s_%s_status", itemType, src.Provider, item.SourceID),
			fmt.Sprintf("%s %q is %s", itemType, domain.FirstNonEmpty(title, item.SourceID), status),
			"tasks", confidenceTask)
	}

	if tags := cleanTags(item.Tags); len(tags) > 0 {
		add(fmt.Sprintf("tags_%s_%s", src.Provider, item.SourceID),
			fmt.Sprintf("%q tagged with %s", domain.FirstNonEmpty(title, item.SourceID), strings.Join(tags, ", ")),
			category, confidenceTags)
	}

	return out
}

func meetingValue(title string, item domain.StandardIngestItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meeting %q", domain.FirstNonEmpty(title, "untitled"))
	if !item.OccurredAt.IsZero() {
		b.WriteString(" on " + item.OccurredAt.UTC().Format(time.DateOnly))
	}
	if attendees := attendeeNames(item.Metadata); len(attendees) > 0 {
		b.WriteString(" with " + strings.Join(attendees, ", "))
	}
	if notes := domain.FirstNonEmpty(item.Summary, item.Content); notes != "" {
		b.WriteString(": " + strings.TrimSpace(notes))
	}
	return b.String()
}

func attendeeNames(meta map[string]any) []string {
	switch v := meta[domain.MetaAttendees].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
