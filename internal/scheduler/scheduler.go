package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"knowledge_sync/internal/config"
	"knowledge_sync/internal/domain"
)

// candidateFactor over-fetches due rows so backoff filtering still fills a batch.
const candidateFactor = 4

type Scheduler struct {
	states SyncStateStore
	syncer Syncer
	policy domain.BackoffPolicy
	config config.SyncConfig
	logger *slog.Logger
	now    func() time.Time
}

func NewScheduler(states SyncStateStore, syncer Syncer, cfg config.SyncConfig, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		states: states,
		syncer: syncer,
		policy: domain.BackoffPolicy{
			Interval:      cfg.Interval,
			MaxBackoff:    cfg.MaxBackoff,
			MaxErrorCount: cfg.MaxErrorCount,
			StaleAfter:    cfg.StaleAfter,
		},
		config: cfg,
		logger: logger.With("component", "scheduler"),
		now:    time.Now,
	}
}

// Start runs a batch immediately and then on the configured cron schedule
// until ctx is done. Overlapping ticks are skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.config.Schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule sync batch %q: %w", s.config.Schedule, err)
	}

	s.logger.Info("scheduler started", "schedule", s.config.Schedule, "batch_size", s.config.BatchSize)

	s.tick(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunBatch(ctx); err != nil {
		s.logger.Error("sync batch failed", "error", err)
	}
}

// RunBatch syncs up to BatchSize due pairs with bounded parallelism. A
// failing pair never aborts the others.
func (s *Scheduler) RunBatch(ctx context.Context) (domain.BatchStats, error) {
	var stats domain.BatchStats
	now := s.now()
	batchSize := max(1, s.config.BatchSize)

	candidates, err := s.states.ListDue(ctx, now.Add(-s.policy.StaleAfter), batchSize*candidateFactor)
	if err != nil {
		return stats, fmt.Errorf("list due sync states: %w", err)
	}

	due := make([]*domain.SyncState, 0, batchSize)
	for _, st := range candidates {
		if len(due) == batchSize {
			break
		}
		if s.policy.Due(st, now) {
			due = append(due, st)
		}
	}
	stats.Due = len(due)
	if len(due) == 0 {
		return stats, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(max(1, s.config.Concurrency))

	for _, st := range due {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome := s.runOne(ctx, st)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSucceeded:
				stats.Succeeded++
			case outcomeSkipped:
				stats.Skipped++
			default:
				stats.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("sync batch finished",
		"due", stats.Due,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return stats, ctx.Err()
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeSucceeded
	outcomeSkipped
)

func (s *Scheduler) runOne(ctx context.Context, st *domain.SyncState) outcome {
	runCtx := ctx
	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	res, err := s.syncer.SyncIntegration(runCtx, st.UserID, st.Provider)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress), errors.Is(err, domain.ErrLockLost):
		return outcomeSkipped
	case err != nil:
		s.logger.Warn("scheduled sync errored", "user_id", st.UserID, "provider", st.Provider, "error", err)
		return outcomeFailed
	case res == nil || !res.Success:
		return outcomeFailed
	default:
		return outcomeSucceeded
	}
}
