package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/ingestion"
	"knowledge_sync/internal/provider"
)

type IntegrationStore interface {
	Get(ctx context.Context, userID, providerID string) (*domain.Integration, error)
	Upsert(ctx context.Context, in *domain.Integration) (int64, error)
	UpdateCredentials(ctx context.Context, userID, providerID string, creds domain.Credentials) error
	Delete(ctx context.Context, userID, providerID string) error
	ListByUser(ctx context.Context, userID string) ([]*domain.Integration, error)
}

type SyncStateStore interface {
	Init(ctx context.Context, userID, providerID string) error
	TryAcquire(ctx context.Context, userID, providerID string, now time.Time, staleAfter time.Duration) (*domain.SyncState, bool, error)
	Complete(ctx context.Context, lease domain.SyncLease, now, watermark time.Time, processed int) error
	Checkpoint(ctx context.Context, lease domain.SyncLease, now time.Time, cursor string, sweepStart time.Time, processed int) error
	Fail(ctx context.Context, lease domain.SyncLease, now time.Time, message string) error
	ListByUser(ctx context.Context, userID string) ([]*domain.SyncState, error)
}

type ItemStore interface {
	Upsert(ctx context.Context, item *domain.IngestedItem) (*domain.UpsertResult, error)
	SetStatus(ctx context.Context, id string, status domain.ItemStatus) error
}

type Pipeline interface {
	Process(ctx context.Context, src ingestion.Source, item domain.StandardIngestItem, opts ingestion.Options) ingestion.Result
}

type ProviderRegistry interface {
	Client(providerID string) (provider.Client, bool)
	Providers() []string
}

// ProviderClient mirrors provider.Client so tests can mock it.
type ProviderClient interface {
	Provider() string
	FetchItems(ctx context.Context, acct provider.Account, since time.Time, cursor string) (*provider.FetchPage, error)
	GetAccountInfo(ctx context.Context, acct provider.Account) (map[string]any, error)
	RefreshIfNeeded(ctx context.Context, creds domain.Credentials) (domain.Credentials, bool, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, event domain.ItemEvent) error
}
