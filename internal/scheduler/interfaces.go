package scheduler

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"knowledge_sync/internal/domain"
)

type SyncStateStore interface {
	ListDue(ctx context.Context, staleBefore time.Time, limit int) ([]*domain.SyncState, error)
}

// Syncer runs one (user, provider) sync.
type Syncer interface {
	SyncIntegration(ctx context.Context, userID, providerID string) (*domain.SyncResult, error)
}
