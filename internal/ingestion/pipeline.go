// Package ingestion derives captures, memories and tasks from ingested items.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"knowledge_sync/internal/domain"
)

const (
	StageCapture = "capture"
	StageMemory  = "memory"
	StageTask    = "task"

	taskTitleRunes = 100
)

// Options suppress derivation stages or pin the artifacts to a project.
type Options struct {
	SkipCapture  bool
	SkipMemories bool
	SkipTasks    bool
	ProjectID    string
}

// Source identifies who an item belongs to and where it came from. ItemID is
// the stored IngestedItem id and may be empty for items that were never
// persisted.
type Source struct {
	UserID   string
	Provider string
	ItemID   string
}

// Result is the per-item outcome. Err joins the DerivationError of every
// failed stage; the other stages still ran.
type Result struct {
	Success   bool
	CaptureID string
	MemoryIDs []string
	TaskIDs   []string
	Err       error
}

// Entry is one element of a batch.
type Entry struct {
	Source Source
	Item   domain.StandardIngestItem
}

type Pipeline struct {
	store  ArtifactStore
	logger *slog.Logger
}

func NewPipeline(store ArtifactStore, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:  store,
		logger: logger.With("component", "ingestion"),
	}
}

func (p *Pipeline) Process(ctx context.Context, src Source, item domain.StandardIngestItem, opts Options) Result {
	itemType := domain.ResolveItemType(src.Provider, item.Type)
	var (
		res  Result
		errs []error
	)

	if !opts.SkipCapture {
		id, err := p.store.SaveCapture(ctx, buildCapture(src, itemType, item, opts))
		if err != nil {
			errs = append(errs, &domain.DerivationError{Stage: StageCapture, Err: err})
		} else {
			res.CaptureID = id
		}
	}

	if !opts.SkipMemories {
		for _, m := range DeriveMemories(src, itemType, item) {
			id, err := p.store.SaveMemory(ctx, &m)
			if err != nil {
				errs = append(errs, &domain.DerivationError{Stage: StageMemory, Err: err})
				continue
			}
			res.MemoryIDs = append(res.MemoryIDs, id)
		}
	}

	if !opts.SkipTasks && wantsTask(itemType, item) {
		id, err := p.store.SaveTask(ctx, buildTask(src, itemType, item, opts))
		if err != nil {
			errs = append(errs, &domain.DerivationError{Stage: StageTask, Err: err})
		} else {
			res.TaskIDs = append(res.TaskIDs, id)
		}
	}

	res.Err = errors.Join(errs...)
	res.Success = res.Err == nil
	if !res.Success {
		p.logger.Warn("derivation failed",
			"provider", src.Provider,
			"source_id", item.SourceID,
			"error", res.Err,
		)
	}
	return res
}

// ProcessBatch runs Process over entries in order. A failed entry never stops
// the batch; its error is on its own Result.
func (p *Pipeline) ProcessBatch(ctx context.Context, entries []Entry, opts Options) []Result {
	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		results = append(results, p.Process(ctx, e.Source, e.Item, opts))
	}
	return results
}

func buildCapture(src Source, itemType domain.ItemType, item domain.StandardIngestItem, opts Options) *domain.Capture {
	title := strings.TrimSpace(item.Title)
	body := strings.TrimSpace(item.Content)
	if body == "" {
		body = strings.TrimSpace(item.Summary)
	}

	var b strings.Builder
	if title != "" && !strings.Contains(body, title) {
		b.WriteString(title)
		if body != "" {
			b.WriteString("\n\n")
		}
	}
	b.WriteString(body)
	b.WriteString("\n\n")
	b.WriteString(attribution(src.Provider, item.SourceURL))

	return &domain.Capture{
		UserID:       src.UserID,
		SourceItemID: optional(src.ItemID),
		Type:         domain.CaptureTypeFor(itemType),
		Title:        domain.FirstNonEmpty(title, domain.TruncateRunes(body, taskTitleRunes)),
		Content:      strings.TrimSpace(b.String()),
		ProjectID:    optional(opts.ProjectID),
	}
}

func attribution(provider, url string) string {
	name := domain.ProviderDisplayName(provider)
	if url == "" {
		return "Source: " + name
	}
	return fmt.Sprintf("Source: %s (%s)", name, url)
}

func wantsTask(itemType domain.ItemType, item domain.StandardIngestItem) bool {
	return itemType == domain.ItemTypeTask || itemType == domain.ItemTypeIssue || item.Hints.CreateTask
}

func buildTask(src Source, itemType domain.ItemType, item domain.StandardIngestItem, opts Options) *domain.Task {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = domain.TruncateRunes(strings.TrimSpace(item.Content), taskTitleRunes)
	}

	return &domain.Task{
		UserID:       src.UserID,
		SourceItemID: optional(src.ItemID),
		ProjectID:    optional(opts.ProjectID),
		Title:        title,
		Description:  strings.TrimSpace(item.Content),
		Priority:     taskPriority(item),
		AISuggested:  true,
		Rationale: fmt.Sprintf("Suggested from a %s %s",
			domain.ProviderDisplayName(src.Provider), itemType),
		DueAt: dueAt(item.Metadata),
	}
}

func taskPriority(item domain.StandardIngestItem) domain.Priority {
	if item.Hints.Priority != "" {
		if p, ok := domain.ParsePriority(string(item.Hints.Priority)); ok {
			return p
		}
	}
	if raw, ok := item.Metadata[domain.MetaPriority].(string); ok {
		if p, ok := domain.ParsePriority(raw); ok {
			return p
		}
	}
	return domain.PriorityMedium
}

func dueAt(meta map[string]any) *time.Time {
	switch v := meta[domain.MetaDueAt].(type) {
	case time.Time:
		if !v.IsZero() {
			return &v
		}
	case string:
		for _, layout := range []string{time.RFC3339, time.DateOnly} {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return &t
			}
		}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
