package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"knowledge_sync/internal/config"
	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/ingestion"
	"knowledge_sync/internal/provider"
)

type SyncService struct {
	registry     ProviderRegistry
	integrations IntegrationStore
	states       SyncStateStore
	items        ItemStore
	pipeline     Pipeline
	publisher    Publisher
	logger       *slog.Logger
	config       config.SyncConfig
	now          func() time.Time
}

func NewSyncService(
	registry ProviderRegistry,
	integrations IntegrationStore,
	states SyncStateStore,
	items ItemStore,
	pipeline Pipeline,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		registry:     registry,
		integrations: integrations,
		states:       states,
		items:        items,
		pipeline:     pipeline,
		publisher:    publisher,
		logger:       logger.With("component", "sync"),
		config:       cfg,
		now:          time.Now,
	}
}

// SyncIntegration runs one incremental sync for a (user, provider) pair.
//
// Configuration problems (unknown provider, missing integration or
// credentials) are returned as errors with no state change. A concurrent run
// yields domain.ErrSyncInProgress. Provider failures end the run in the error
// state and are reported through the result, not the error. When the page
// budget runs out the cursor is checkpointed, the watermark stays put and
// the result has HasMore set.
func (s *SyncService) SyncIntegration(ctx context.Context, userID, providerID string) (res *domain.SyncResult, err error) {
	start := s.now()
	logger := s.logger.With("user_id", userID, "provider", providerID)

	client, ok := s.registry.Client(providerID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderNotRegistered, providerID)
	}

	integration, err := s.integrations.Get(ctx, userID, providerID)
	if err != nil {
		return nil, fmt.Errorf("load integration: %w", err)
	}
	if provider.RequiresCredentials(client) && integration.Credentials.Empty() {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingCredentials, providerID)
	}

	state, acquired, err := s.states.TryAcquire(ctx, userID, providerID, start, s.config.StaleAfter)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !acquired {
		logger.Info("sync already in progress, skipping")
		return nil, domain.ErrSyncInProgress
	}

	result := &domain.SyncResult{UserID: userID, Provider: providerID}
	lease := state.Lease(userID, providerID, start)
	released := false

	// Whatever happens below, the pair must leave the syncing state.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("sync panicked", "panic", r)
			err = fmt.Errorf("sync panicked: %v", r)
			res = result
		}
		if released {
			return
		}
		msg := "sync aborted"
		if err != nil {
			msg = err.Error()
		}
		if ferr := s.states.Fail(context.WithoutCancel(ctx), lease, s.now(), msg); ferr != nil {
			logger.Error("failed to release sync lock", "error", ferr)
		}
		result.Success = false
	}()

	fail := func(cause error) (*domain.SyncResult, error) {
		released = true
		result.RecordError("", cause)
		result.Duration = s.now().Sub(start)
		logger.Warn("sync failed", "error", cause, "duration", result.Duration)
		if ferr := s.states.Fail(context.WithoutCancel(ctx), lease, s.now(), cause.Error()); ferr != nil {
			return result, fmt.Errorf("record sync failure: %w", ferr)
		}
		return result, nil
	}

	creds, rotated, err := client.RefreshIfNeeded(ctx, integration.Credentials)
	if err != nil {
		return fail(&domain.ProviderFetchError{Provider: providerID, Err: fmt.Errorf("refresh credentials: %w", err)})
	}
	if rotated {
		if err := s.integrations.UpdateCredentials(ctx, userID, providerID, creds); err != nil {
			return fail(fmt.Errorf("persist refreshed credentials: %w", err))
		}
		logger.Info("credentials refreshed")
	}

	// A sweep is one pass from the watermark to the end of the provider's
	// pages. It may span several runs when the page budget cuts it short.
	sweepStart := start
	cursor := ""
	if state.Resuming() {
		cursor = *state.ResumeCursor
		if state.SweepStartedAt != nil {
			sweepStart = *state.SweepStartedAt
		}
	}

	since := state.Watermark()
	if since.IsZero() {
		since = sweepStart.AddDate(0, 0, -s.config.MaxHistoricalDays)
	}
	acct := provider.Account{UserID: userID, Credentials: creds, Settings: integration.Metadata}

	logger.Info("starting sync", "since", since, "resume", cursor != "", "max_pages", s.config.MaxPagesPerSync)

	maxPages := max(1, s.config.MaxPagesPerSync)
	for page := 0; page < maxPages; page++ {
		fetched, err := client.FetchItems(ctx, acct, since, cursor)
		if err != nil {
			return fail(&domain.ProviderFetchError{Provider: providerID, Err: err})
		}

		result.ItemsFetched += len(fetched.Items)
		for _, item := range fetched.Items {
			s.ingest(ctx, logger, userID, providerID, item, result)
		}

		cursor = fetched.NextCursor
		if cursor == "" {
			break
		}
	}

	if cursor != "" {
		logger.Info("page budget exhausted, sweep continues next run", "max_pages", maxPages)
		err = s.states.Checkpoint(ctx, lease, s.now(), cursor, sweepStart, result.ItemsProcessed)
		result.HasMore = true
	} else {
		err = s.states.Complete(ctx, lease, s.now(), sweepStart, result.ItemsProcessed)
	}
	if errors.Is(err, domain.ErrLockLost) {
		// Another run owns the pair now; it must not be failed from here.
		released = true
		logger.Warn("sync lock taken over before release", "started_at", lease.StartedAt)
		return result, fmt.Errorf("release sync lock: %w", err)
	}
	if err != nil {
		return result, fmt.Errorf("complete sync: %w", err)
	}
	released = true

	result.Success = true
	result.Duration = s.now().Sub(start)

	logger.Info("sync completed",
		"fetched", result.ItemsFetched,
		"created", result.ItemsCreated,
		"updated", result.ItemsUpdated,
		"retried", result.ItemsRetried,
		"skipped", result.ItemsSkipped,
		"errors", len(result.Errors),
		"published", result.Published,
		"has_more", result.HasMore,
		"duration", result.Duration,
	)

	return result, nil
}

// ingest stores one provider item and, when it is new, changed or left
// unfinished by an earlier run, derives artifacts and announces it. Failures
// are recorded on result.
func (s *SyncService) ingest(ctx context.Context, logger *slog.Logger, userID, providerID string, in domain.StandardIngestItem, result *domain.SyncResult) {
	item, err := domain.NormalizeItem(userID, providerID, in, s.now())
	if err != nil {
		result.RecordError(in.SourceID, fmt.Errorf("normalize: %w", err))
		return
	}

	up, err := s.items.Upsert(ctx, item)
	if err != nil {
		perr := &domain.ItemPersistenceError{SourceID: item.SourceID, Err: err}
		logger.Warn("item not persisted", "error", perr)
		result.RecordError(item.SourceID, perr)
		return
	}

	action := domain.ItemActionUpdated
	switch {
	case up.IsNew:
		action = domain.ItemActionCreated
		result.ItemsCreated++
	case up.Changed:
		result.ItemsUpdated++
	case up.Retry:
		result.ItemsRetried++
	default:
		result.ItemsSkipped++
		return
	}
	result.ItemsProcessed++

	std := domain.ToStandard(up.Item)
	std.Hints = in.Hints
	src := ingestion.Source{UserID: userID, Provider: providerID, ItemID: up.Item.ID}

	status := domain.ItemStatusProcessed
	if out := s.pipeline.Process(ctx, src, std, ingestion.Options{}); !out.Success {
		status = domain.ItemStatusFailed
		result.RecordError(item.SourceID, out.Err)
	}
	if err := s.items.SetStatus(ctx, up.Item.ID, status); err != nil {
		logger.Warn("failed to set item status", "item_id", up.Item.ID, "error", err)
	}

	if s.publisher == nil {
		return
	}
	event := domain.ItemEvent{
		Action:    action,
		UserID:    userID,
		ItemID:    up.Item.ID,
		Provider:  providerID,
		SourceID:  item.SourceID,
		Timestamp: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish item event", "item_id", up.Item.ID, "error", err)
		return
	}
	result.Published++
}
