package domain

import (
	"time"
)

// SyncStatus is the state of one (user, provider) sync pair.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusError   SyncStatus = "error"
)

type SyncState struct {
	ID                   int64      `db:"id"`
	UserID               string     `db:"user_id"`
	Provider             string     `db:"provider"`
	Status               SyncStatus `db:"status"`
	LastSyncAt           *time.Time `db:"last_sync_at"`
	LastSuccessfulSyncAt *time.Time `db:"last_successful_sync_at"`
	StartedAt            *time.Time `db:"started_at"`
	TotalItemsSynced     int64      `db:"total_items_synced"`
	ErrorCount           int        `db:"error_count"`
	LastError            *string    `db:"last_error"`
	ResumeCursor         *string    `db:"resume_cursor"`
	SweepStartedAt       *time.Time `db:"sweep_started_at"`
	UpdatedAt            time.Time  `db:"updated_at"`
}

// SyncLease identifies one holder of the syncing lock. StartedAt is the
// value TryAcquire wrote; releasing with a different value is refused.
type SyncLease struct {
	UserID    string
	Provider  string
	StartedAt time.Time
}

// Lease returns the fence for the run that just acquired s.
func (s *SyncState) Lease(userID, provider string, acquiredAt time.Time) SyncLease {
	l := SyncLease{UserID: userID, Provider: provider, StartedAt: acquiredAt}
	if s.StartedAt != nil {
		l.StartedAt = *s.StartedAt
	}
	return l
}

// Resuming reports whether an earlier run stopped mid-sweep at the page
// budget and left a cursor to continue from.
func (s *SyncState) Resuming() bool {
	return s.ResumeCursor != nil && *s.ResumeCursor != ""
}

// Watermark is the lower bound for the next incremental pull.
func (s *SyncState) Watermark() time.Time {
	if s.LastSuccessfulSyncAt == nil {
		return time.Time{}
	}
	return *s.LastSuccessfulSyncAt
}

// BackoffPolicy decides when a pair is due for its next scheduled run.
type BackoffPolicy struct {
	Interval      time.Duration
	MaxBackoff    time.Duration
	MaxErrorCount int
	StaleAfter    time.Duration
}

// NextRunAt returns when the state becomes due and whether the scheduler
// should consider it at all. Parked states (too many consecutive errors)
// return false; they can still be synced on demand.
func (p BackoffPolicy) NextRunAt(s *SyncState, now time.Time) (time.Time, bool) {
	if s.Status == SyncStatusSyncing {
		if s.StartedAt == nil {
			return now, true
		}
		return s.StartedAt.Add(p.StaleAfter), true
	}
	if p.MaxErrorCount > 0 && s.ErrorCount >= p.MaxErrorCount {
		return time.Time{}, false
	}
	if s.LastSyncAt == nil || (s.Status == SyncStatusIdle && s.Resuming()) {
		return now, true
	}

	wait := p.Interval
	if s.Status == SyncStatusError && s.ErrorCount > 0 {
		for i := 1; i < s.ErrorCount && (p.MaxBackoff == 0 || wait < p.MaxBackoff); i++ {
			wait *= 2
		}
		if p.MaxBackoff > 0 && wait > p.MaxBackoff {
			wait = p.MaxBackoff
		}
	}
	return s.LastSyncAt.Add(wait), true
}

// Due reports whether the state should run at now.
func (p BackoffPolicy) Due(s *SyncState, now time.Time) bool {
	at, ok := p.NextRunAt(s, now)
	return ok && !at.After(now)
}

// ItemError records one item that failed during a sync run.
type ItemError struct {
	SourceID string `json:"source_id,omitempty"`
	Message  string `json:"message"`
}

// SyncResult is the batch report of one SyncIntegration call.
type SyncResult struct {
	UserID         string        `json:"user_id"`
	Provider       string        `json:"provider"`
	Success        bool          `json:"success"`
	ItemsFetched   int           `json:"items_fetched"`
	ItemsProcessed int           `json:"items_processed"`
	ItemsCreated   int           `json:"items_created"`
	ItemsUpdated   int           `json:"items_updated"`
	ItemsRetried   int           `json:"items_retried"`
	ItemsSkipped   int           `json:"items_skipped"`
	Published      int           `json:"published"`
	HasMore        bool          `json:"has_more"`
	Errors         []ItemError   `json:"errors"`
	Duration       time.Duration `json:"duration"`
}

// RecordError appends a per-item failure to the report.
func (r *SyncResult) RecordError(sourceID string, err error) {
	r.Errors = append(r.Errors, ItemError{SourceID: sourceID, Message: err.Error()})
}

// BatchStats summarizes one scheduler tick.
type BatchStats struct {
	Due       int
	Succeeded int
	Failed    int
	Skipped   int
}
