package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/retrieval"
)

type Syncer interface {
	SyncIntegration(ctx context.Context, userID, providerID string) (*domain.SyncResult, error)
}

type IntegrationManager interface {
	Connect(ctx context.Context, userID, providerID string, creds domain.Credentials, settings map[string]any) (*domain.Integration, error)
	Disconnect(ctx context.Context, userID, providerID string) error
	Status(ctx context.Context, userID string) ([]domain.IntegrationStatus, error)
}

type ContextBuilder interface {
	BuildContext(ctx context.Context, req retrieval.Request) (*retrieval.ContextWindow, error)
}

// ArtifactReader lists what the ingestion pipeline derived for a user.
type ArtifactReader interface {
	ListTasks(ctx context.Context, userID string) ([]*domain.Task, error)
	ListMemories(ctx context.Context, userID string) ([]*domain.Memory, error)
}
