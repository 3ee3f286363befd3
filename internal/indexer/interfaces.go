package indexer

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"knowledge_sync/internal/domain"
)

type ItemStore interface {
	Get(ctx context.Context, id string) (*domain.IngestedItem, error)
	SetEmbedding(ctx context.Context, id string, vector []float64) error
	ListMissingEmbeddings(ctx context.Context, limit int) ([]*domain.IngestedItem, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
