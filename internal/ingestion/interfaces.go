package ingestion

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"knowledge_sync/internal/domain"
)

type ArtifactStore interface {
	SaveCapture(ctx context.Context, capture *domain.Capture) (string, error)
	SaveMemory(ctx context.Context, memory *domain.Memory) (string, error)
	SaveTask(ctx context.Context, task *domain.Task) (string, error)
}
