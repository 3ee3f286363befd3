package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/provider"
)

// MetadataAccount is the integration metadata key holding cached account info.
const MetadataAccount = "account"

// IntegrationService connects and disconnects providers for a user.
type IntegrationService struct {
	registry     ProviderRegistry
	integrations IntegrationStore
	states       SyncStateStore
	txManager    TransactionManager
	logger       *slog.Logger
}

func NewIntegrationService(
	registry ProviderRegistry,
	integrations IntegrationStore,
	states SyncStateStore,
	txManager TransactionManager,
	logger *slog.Logger,
) *IntegrationService {
	return &IntegrationService{
		registry:     registry,
		integrations: integrations,
		states:       states,
		txManager:    txManager,
		logger:       logger.With("component", "integrations"),
	}
}

// Connect validates creds against the provider and stores the integration
// with an idle sync state. Reconnecting replaces credentials and settings.
func (s *IntegrationService) Connect(ctx context.Context, userID, providerID string, creds domain.Credentials, settings map[string]any) (*domain.Integration, error) {
	client, ok := s.registry.Client(providerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotRegistered, providerID)
	}
	if provider.RequiresCredentials(client) && creds.Empty() {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingCredentials, providerID)
	}

	metadata := domain.JSONMap{}
	maps.Copy(metadata, settings)

	info, err := client.GetAccountInfo(ctx, provider.Account{UserID: userID, Credentials: creds, Settings: metadata})
	if err != nil {
		return nil, &domain.ProviderFetchError{Provider: providerID, Err: fmt.Errorf("account info: %w", err)}
	}
	metadata[MetadataAccount] = info

	in := &domain.Integration{
		UserID:      userID,
		Provider:    providerID,
		Metadata:    metadata,
		Credentials: creds,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		id, err := s.integrations.Upsert(txCtx, in)
		if err != nil {
			return fmt.Errorf("upsert integration: %w", err)
		}
		in.ID = id
		return s.states.Init(txCtx, userID, providerID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("integration connected", "user_id", userID, "provider", providerID)
	return in, nil
}

// Disconnect removes the integration together with its sync state and items.
func (s *IntegrationService) Disconnect(ctx context.Context, userID, providerID string) error {
	if err := s.integrations.Delete(ctx, userID, providerID); err != nil {
		return fmt.Errorf("delete integration: %w", err)
	}
	s.logger.Info("integration disconnected", "user_id", userID, "provider", providerID)
	return nil
}

func (s *IntegrationService) Status(ctx context.Context, userID string) ([]domain.IntegrationStatus, error) {
	integrations, err := s.integrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list integrations: %w", err)
	}
	states, err := s.states.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sync states: %w", err)
	}

	byProvider := make(map[string]*domain.SyncState, len(states))
	for _, st := range states {
		byProvider[st.Provider] = st
	}

	out := make([]domain.IntegrationStatus, 0, len(integrations))
	for _, in := range integrations {
		state, ok := byProvider[in.Provider]
		if !ok {
			state = &domain.SyncState{UserID: userID, Provider: in.Provider, Status: domain.SyncStatusIdle}
		}
		out = append(out, domain.IntegrationStatus{
			Provider:    in.Provider,
			DisplayName: domain.ProviderDisplayName(in.Provider),
			State:       state,
		})
	}
	return out, nil
}
