// Package retrieval builds bounded, provider-diverse context windows from
// ingested items for AI calls.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"knowledge_sync/internal/config"
	"knowledge_sync/internal/domain"
)

// Request describes one context build. Zero MaxItems/MaxPerProvider fall
// back to configuration.
type Request struct {
	UserID         string            `json:"-"`
	Messages       []Message         `json:"messages"`
	ExtraText      string            `json:"extra_text,omitempty"`
	Providers      []string          `json:"providers,omitempty"`
	ItemTypes      []domain.ItemType `json:"item_types,omitempty"`
	MaxItems       int               `json:"max_items,omitempty"`
	MaxPerProvider int               `json:"max_per_provider,omitempty"`
}

// ContextItem is the prompt-facing view of one selected item.
type ContextItem struct {
	ID        string          `json:"id"`
	Provider  string          `json:"provider"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	ItemType  domain.ItemType `json:"item_type"`
	SourceURL string          `json:"source_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Metadata  domain.JSONMap  `json:"metadata,omitempty"`
	Score     float64         `json:"score"`
}

type ContextWindow struct {
	Items      []ContextItem `json:"items"`
	Summary    string        `json:"summary,omitempty"`
	Highlights []string      `json:"highlights,omitempty"`
	Terms      []string      `json:"terms,omitempty"`
}

type Engine struct {
	items    ItemStore
	embedder Embedder
	config   config.RetrievalConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(items ItemStore, embedder Embedder, cfg config.RetrievalConfig, logger *slog.Logger) *Engine {
	return &Engine{
		items:    items,
		embedder: embedder,
		config:   cfg,
		logger:   logger.With("component", "retrieval"),
		now:      time.Now,
	}
}

// FetchAdditionalIntegrationData unions semantic and keyword candidates for
// query, semantic first, deduplicated by item id and cut to the filter limit.
// An empty query has no semantic candidates; an embedding failure degrades
// to keyword results only.
func (e *Engine) FetchAdditionalIntegrationData(ctx context.Context, userID, query string, f domain.ItemFilter) ([]*domain.IngestedItem, error) {
	if f.Limit <= 0 {
		f.Limit = e.config.CandidateLimit
	}

	semantic := e.semanticCandidates(ctx, userID, query, f)

	terms := ExtractSearchTerms([]Message{{Role: RoleUser, Content: query}}, e.config.MaxTerms, "")
	keyword, err := e.items.SearchByTerms(ctx, userID, terms, f)
	if err != nil {
		if len(semantic) == 0 {
			return nil, fmt.Errorf("keyword search: %w", err)
		}
		e.logger.Warn("keyword search failed, using semantic results only", "error", err)
	}

	merged := mergeUnique(semantic, keyword)
	if len(merged) > f.Limit {
		merged = merged[:f.Limit]
	}
	return merged, nil
}

func (e *Engine) semanticCandidates(ctx context.Context, userID, query string, f domain.ItemFilter) []*domain.IngestedItem {
	if e.embedder == nil || strings.TrimSpace(query) == "" {
		return nil
	}

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		e.logger.Warn("embedding failed, falling back to keyword search",
			"error", &domain.EmbeddingError{Err: err})
		return nil
	}
	if len(vector) == 0 {
		return nil
	}

	items, err := e.items.SearchSimilar(ctx, userID, vector, e.config.MinSimilarity, f)
	if err != nil {
		e.logger.Warn("vector search failed, falling back to keyword search", "error", err)
		return nil
	}
	return items
}

// BuildContext gathers recent and query-matched items, scores and
// diversifies them, and attaches the digest and highlights.
func (e *Engine) BuildContext(ctx context.Context, req Request) (*ContextWindow, error) {
	now := e.now()
	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = e.config.MaxItems
	}
	maxPerProvider := req.MaxPerProvider
	if maxPerProvider <= 0 {
		maxPerProvider = e.config.MaxPerProvider
	}

	terms := ExtractSearchTerms(req.Messages, e.config.MaxTerms, req.ExtraText)
	filter := domain.ItemFilter{
		Providers: req.Providers,
		ItemTypes: req.ItemTypes,
		Limit:     e.config.CandidateLimit,
	}

	recentFilter := filter
	recentFilter.Since = now.Add(-e.config.Window)
	recent, err := e.items.ListRecent(ctx, req.UserID, recentFilter)
	if err != nil {
		e.logger.Warn("recent items unavailable", "user_id", req.UserID, "error", err)
	}

	additional, err := e.FetchAdditionalIntegrationData(ctx, req.UserID, queryText(req), filter)
	if err != nil {
		e.logger.Warn("additional integration data unavailable", "user_id", req.UserID, "error", err)
	}

	candidates := mergeUnique(recent, additional)
	selected := SelectDiverseItems(ScoreItems(candidates, terms, now), maxItems, maxPerProvider)

	window := &ContextWindow{
		Items: make([]ContextItem, 0, len(selected)),
		Terms: terms,
	}
	selectedItems := make([]*domain.IngestedItem, 0, len(selected))
	for _, s := range selected {
		selectedItems = append(selectedItems, s.Item)
		window.Items = append(window.Items, ContextItem{
			ID:        s.Item.ID,
			Provider:  s.Item.Provider,
			Title:     s.Item.Title,
			Content:   domain.TruncateRunes(s.Item.Content, e.config.MaxContentChars),
			ItemType:  s.Item.ItemType,
			SourceURL: s.Item.SourceURL,
			CreatedAt: s.Item.Timestamp(),
			Metadata:  s.Item.Metadata,
			Score:     s.Score,
		})
	}
	window.Summary = BuildIntegrationSummary(selectedItems, now, DefaultDigestWindow)
	window.Highlights = BuildIntegrationHighlights(selectedItems)

	e.logger.Debug("context built",
		"user_id", req.UserID,
		"candidates", len(candidates),
		"selected", len(selected),
		"terms", terms,
	)
	return window, nil
}

// queryText is the latest user turn plus any extra text.
func queryText(req Request) string {
	var parts []string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			parts = append(parts, req.Messages[i].Content)
			break
		}
	}
	if req.ExtraText != "" {
		parts = append(parts, req.ExtraText)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func mergeUnique(lists ...[]*domain.IngestedItem) []*domain.IngestedItem {
	seen := make(map[string]struct{})
	var out []*domain.IngestedItem
	for _, list := range lists {
		for _, it := range list {
			if _, ok := seen[it.ID]; ok {
				continue
			}
			seen[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}
