package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"knowledge_sync/internal/domain"
)

const syncStateColumns = `
	id, user_id, provider, status, last_sync_at, last_successful_sync_at, started_at,
	total_items_synced, error_count, last_error, resume_cursor, sweep_started_at, updated_at`

// SyncStateStore owns the per (user, provider) state machine rows. Status is
// only ever changed through TryAcquire, Complete, Checkpoint and Fail.
type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

// Get returns the state, or a fresh idle state when the pair never synced.
func (s *SyncStateStore) Get(ctx context.Context, userID, provider string) (*domain.SyncState, error) {
	var state domain.SyncState
	query := `SELECT ` + syncStateColumns + ` FROM sync_states WHERE user_id = $1 AND provider = $2`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, userID, provider)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.SyncState{
			UserID:   userID,
			Provider: provider,
			Status:   domain.SyncStatusIdle,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	return &state, nil
}

// Init creates an idle state for a newly connected integration.
func (s *SyncStateStore) Init(ctx context.Context, userID, provider string) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		INSERT INTO sync_states (user_id, provider, status)
		VALUES ($1, $2, 'idle')
		ON CONFLICT (user_id, provider) DO NOTHING`,
		userID, provider,
	)
	if err != nil {
		return fmt.Errorf("init sync state: %w", err)
	}
	return nil
}

// TryAcquire moves the pair to syncing in a single conditional upsert. It
// succeeds when the pair is not syncing, or when the holder started before
// now-staleAfter. The bool is false when another run holds the lock. The
// returned StartedAt is the lease token for Complete, Checkpoint and Fail.
func (s *SyncStateStore) TryAcquire(ctx context.Context, userID, provider string, now time.Time, staleAfter time.Duration) (*domain.SyncState, bool, error) {
	query := `
		INSERT INTO sync_states (user_id, provider, status, started_at, updated_at)
		VALUES ($1, $2, 'syncing', $3, $3)
		ON CONFLICT (user_id, provider) DO UPDATE SET
			status = 'syncing',
			started_at = EXCLUDED.started_at,
			updated_at = EXCLUDED.updated_at
		WHERE sync_states.status <> 'syncing'
			OR sync_states.started_at IS NULL
			OR sync_states.started_at < $4
		RETURNING ` + syncStateColumns

	// timestamptz keeps microseconds; the token must compare equal later.
	now = now.UTC().Truncate(time.Microsecond)

	var state domain.SyncState
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query,
		userID, provider, now, now.Add(-staleAfter),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("acquire sync state: %w", err)
	}
	return &state, true, nil
}

// Complete releases the lock after a finished sweep and moves the watermark
// to watermark. processed is added to the running total in SQL.
func (s *SyncStateStore) Complete(ctx context.Context, lease domain.SyncLease, now, watermark time.Time, processed int) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		UPDATE sync_states SET
			status = 'idle',
			last_sync_at = $4,
			last_successful_sync_at = $5,
			started_at = NULL,
			resume_cursor = NULL,
			sweep_started_at = NULL,
			error_count = 0,
			last_error = NULL,
			total_items_synced = total_items_synced + $6,
			updated_at = $4
		WHERE user_id = $1 AND provider = $2 AND status = 'syncing' AND started_at = $3`,
		lease.UserID, lease.Provider, lease.StartedAt, now, watermark, processed,
	)
	return released(res, err, "complete sync state")
}

// Checkpoint releases the lock when the page budget ran out mid-sweep. The
// watermark stays put; cursor and sweepStart are kept so the next run picks
// up where this one stopped.
func (s *SyncStateStore) Checkpoint(ctx context.Context, lease domain.SyncLease, now time.Time, cursor string, sweepStart time.Time, processed int) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		UPDATE sync_states SET
			status = 'idle',
			last_sync_at = $4,
			started_at = NULL,
			resume_cursor = $5,
			sweep_started_at = $6,
			error_count = 0,
			last_error = NULL,
			total_items_synced = total_items_synced + $7,
			updated_at = $4
		WHERE user_id = $1 AND provider = $2 AND status = 'syncing' AND started_at = $3`,
		lease.UserID, lease.Provider, lease.StartedAt, now, cursor, sweepStart, processed,
	)
	return released(res, err, "checkpoint sync state")
}

// Fail releases the lock into the error state. The watermark is unchanged
// and any pending cursor is dropped, so the next run restarts the sweep.
func (s *SyncStateStore) Fail(ctx context.Context, lease domain.SyncLease, now time.Time, message string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, `
		UPDATE sync_states SET
			status = 'error',
			last_sync_at = $4,
			started_at = NULL,
			resume_cursor = NULL,
			sweep_started_at = NULL,
			error_count = error_count + 1,
			last_error = $5,
			updated_at = $4
		WHERE user_id = $1 AND provider = $2 AND status = 'syncing' AND started_at = $3`,
		lease.UserID, lease.Provider, lease.StartedAt, now, message,
	)
	return released(res, err, "fail sync state")
}

func released(res sql.Result, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrLockLost)
	}
	return nil
}

// ListDue returns candidate states for a batch run: everything not syncing
// plus syncing states whose lock went stale before staleBefore. Backoff is
// applied by the caller.
func (s *SyncStateStore) ListDue(ctx context.Context, staleBefore time.Time, limit int) ([]*domain.SyncState, error) {
	query := `SELECT ` + syncStateColumns + `
		FROM sync_states
		WHERE status <> 'syncing' OR started_at IS NULL OR started_at < $1
		ORDER BY last_sync_at NULLS FIRST, id
		LIMIT $2`

	var states []*domain.SyncState
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &states, query, staleBefore, limit); err != nil {
		return nil, fmt.Errorf("list due sync states: %w", err)
	}
	return states, nil
}

func (s *SyncStateStore) ListByUser(ctx context.Context, userID string) ([]*domain.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM sync_states WHERE user_id = $1 ORDER BY provider`

	var states []*domain.SyncState
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &states, query, userID); err != nil {
		return nil, fmt.Errorf("list sync states: %w", err)
	}
	return states, nil
}
