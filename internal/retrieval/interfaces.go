package retrieval

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"knowledge_sync/internal/domain"
)

type ItemStore interface {
	ListRecent(ctx context.Context, userID string, f domain.ItemFilter) ([]*domain.IngestedItem, error)
	SearchByTerms(ctx context.Context, userID string, terms []string, f domain.ItemFilter) ([]*domain.IngestedItem, error)
	SearchSimilar(ctx context.Context, userID string, vector []float64, minScore float64, f domain.ItemFilter) ([]*domain.IngestedItem, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
