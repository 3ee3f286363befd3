// Package indexer keeps item embeddings in step with item writes.
package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"knowledge_sync/internal/domain"
)

type Indexer struct {
	items    ItemStore
	embedder Embedder
	logger   *slog.Logger
}

func New(items ItemStore, embedder Embedder, logger *slog.Logger) *Indexer {
	return &Indexer{
		items:    items,
		embedder: embedder,
		logger:   logger.With("component", "indexer"),
	}
}

// HandleEvent embeds the item an event points at. Events for items that no
// longer exist are acknowledged and ignored.
func (i *Indexer) HandleEvent(ctx context.Context, event domain.ItemEvent) error {
	item, err := i.items.Get(ctx, event.ItemID)
	if errors.Is(err, sql.ErrNoRows) {
		i.logger.Debug("item gone, skipping", "item_id", event.ItemID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load item %s: %w", event.ItemID, err)
	}
	return i.index(ctx, item)
}

// Backfill embeds one batch of items that have no vector yet and returns
// how many were stored. Failed items stay pending for the next pass.
func (i *Indexer) Backfill(ctx context.Context, batch int) (int, error) {
	items, err := i.items.ListMissingEmbeddings(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("list items missing embeddings: %w", err)
	}

	indexed := 0
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := i.index(ctx, item); err != nil {
			i.logger.Warn("backfill item failed", "item_id", item.ID, "error", err)
			continue
		}
		indexed++
	}

	if len(items) > 0 {
		i.logger.Info("backfill pass finished", "candidates", len(items), "indexed", indexed)
	}
	return indexed, nil
}

func (i *Indexer) index(ctx context.Context, item *domain.IngestedItem) error {
	vector, err := i.embedder.Embed(ctx, EmbeddingText(item))
	if err != nil {
		return &domain.EmbeddingError{Err: err}
	}
	// An empty vector marks blank items as done so backfill skips them.
	if vector == nil {
		vector = []float64{}
	}

	if err := i.items.SetEmbedding(ctx, item.ID, vector); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("store embedding: %w", err)
	}

	i.logger.Debug("item indexed", "item_id", item.ID, "dims", len(vector))
	return nil
}

// EmbeddingText is the text an item is embedded from.
func EmbeddingText(item *domain.IngestedItem) string {
	title := strings.TrimSpace(item.Title)
	content := strings.TrimSpace(item.Content)
	switch {
	case title == "":
		return content
	case content == "":
		return title
	default:
		return title + "\n\n" + content
	}
}
