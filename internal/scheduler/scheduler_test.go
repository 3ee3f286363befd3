package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"knowledge_sync/internal/config"
	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/scheduler/mocks"
)

var tickNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		Schedule:      "0 */5 * * * *",
		Interval:      15 * time.Minute,
		BatchSize:     10,
		Concurrency:   2,
		RunTimeout:    time.Minute,
		StaleAfter:    30 * time.Minute,
		MaxBackoff:    6 * time.Hour,
		MaxErrorCount: 5,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func at(d time.Duration) *time.Time {
	t := tickNow.Add(-d)
	return &t
}

type SchedulerTestSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	states    *mocks.MockSyncStateStore
	syncer    *mocks.MockSyncer
	scheduler *Scheduler
	ctx       context.Context
}

func (s *SchedulerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.states = mocks.NewMockSyncStateStore(s.ctrl)
	s.syncer = mocks.NewMockSyncer(s.ctrl)
	s.scheduler = NewScheduler(s.states, s.syncer, testSyncConfig(), discardLogger())
	s.scheduler.now = func() time.Time { return tickNow }
	s.ctx = context.Background()
}

func (s *SchedulerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func (s *SchedulerTestSuite) TestRunBatch_AppliesBackoffAndCountsOutcomes() {
	s.states.EXPECT().ListDue(s.ctx, tickNow.Add(-30*time.Minute), 40).Return([]*domain.SyncState{
		{UserID: "u1", Provider: "slack", Status: domain.SyncStatusIdle, LastSyncAt: at(time.Hour)},
		{UserID: "u2", Provider: "slack", Status: domain.SyncStatusIdle, LastSyncAt: at(5 * time.Minute)},
		{UserID: "u3", Provider: "notion", Status: domain.SyncStatusError, ErrorCount: 3, LastSyncAt: at(30 * time.Minute)},
		{UserID: "u4", Provider: "notion", Status: domain.SyncStatusError, ErrorCount: 2, LastSyncAt: at(time.Hour)},
		{UserID: "u5", Provider: "feed", Status: domain.SyncStatusError, ErrorCount: 9, LastSyncAt: at(48 * time.Hour)},
		{UserID: "u6", Provider: "feed", Status: domain.SyncStatusIdle},
		{UserID: "u7", Provider: "slack", Status: domain.SyncStatusIdle},
	}, nil)

	s.syncer.EXPECT().SyncIntegration(gomock.Any(), "u1", "slack").Return(&domain.SyncResult{Success: true}, nil)
	s.syncer.EXPECT().SyncIntegration(gomock.Any(), "u4", "notion").Return(&domain.SyncResult{Success: false}, nil)
	s.syncer.EXPECT().SyncIntegration(gomock.Any(), "u6", "feed").Return(nil, domain.ErrSyncInProgress)
	s.syncer.EXPECT().SyncIntegration(gomock.Any(), "u7", "slack").Return(nil, errors.New("integration not found"))

	stats, err := s.scheduler.RunBatch(s.ctx)

	s.Require().NoError(err)
	s.Equal(domain.BatchStats{Due: 4, Succeeded: 1, Failed: 2, Skipped: 1}, stats)
}

func (s *SchedulerTestSuite) TestRunBatch_ResumesUnfinishedSweepAtOnce() {
	cursor := "6|"
	s.states.EXPECT().ListDue(s.ctx, gomock.Any(), 40).Return([]*domain.SyncState{
		{UserID: "u1", Provider: "slack", Status: domain.SyncStatusIdle, LastSyncAt: at(time.Minute), ResumeCursor: &cursor},
		{UserID: "u2", Provider: "slack", Status: domain.SyncStatusIdle, LastSyncAt: at(time.Minute)},
	}, nil)
	s.syncer.EXPECT().SyncIntegration(gomock.Any(), "u1", "slack").
		Return(&domain.SyncResult{Success: false}, fmt.Errorf("release sync lock: %w", domain.ErrLockLost))

	stats, err := s.scheduler.RunBatch(s.ctx)

	s.Require().NoError(err)
	s.Equal(domain.BatchStats{Due: 1, Skipped: 1}, stats)
}

func (s *SchedulerTestSuite) TestRunBatch_CapsAtBatchSize() {
	s.scheduler.config.BatchSize = 2
	s.states.EXPECT().ListDue(s.ctx, gomock.Any(), 8).Return([]*domain.SyncState{
		{UserID: "a", Provider: "slack"},
		{UserID: "b", Provider: "slack"},
		{UserID: "c", Provider: "slack"},
	}, nil)
	s.syncer.EXPECT().SyncIntegration(gomock.Any(), gomock.Any(), "slack").
		Return(&domain.SyncResult{Success: true}, nil).Times(2)

	stats, err := s.scheduler.RunBatch(s.ctx)

	s.Require().NoError(err)
	s.Equal(2, stats.Due)
	s.Equal(2, stats.Succeeded)
}

func (s *SchedulerTestSuite) TestRunBatch_ListError() {
	s.states.EXPECT().ListDue(s.ctx, gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := s.scheduler.RunBatch(s.ctx)
	s.Error(err)
}

func (s *SchedulerTestSuite) TestRunBatch_AppliesRunTimeout() {
	s.states.EXPECT().ListDue(s.ctx, gomock.Any(), gomock.Any()).
		Return([]*domain.SyncState{{UserID: "u1", Provider: "slack"}}, nil)
	s.syncer.EXPECT().SyncIntegration(gomock.Any(), "u1", "slack").DoAndReturn(
		func(ctx context.Context, _, _ string) (*domain.SyncResult, error) {
			deadline, ok := ctx.Deadline()
			s.True(ok)
			s.WithinDuration(time.Now().Add(time.Minute), deadline, 5*time.Second)
			return &domain.SyncResult{Success: true}, nil
		})

	_, err := s.scheduler.RunBatch(s.ctx)
	s.NoError(err)
}

type staticStates []*domain.SyncState

func (st staticStates) ListDue(context.Context, time.Time, int) ([]*domain.SyncState, error) {
	return st, nil
}

type gatedSyncer struct {
	inFlight atomic.Int32
	peak     atomic.Int32
	mu       sync.Mutex
	seen     map[string]bool
}

func (g *gatedSyncer) SyncIntegration(_ context.Context, userID, _ string) (*domain.SyncResult, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)

	g.mu.Lock()
	g.seen[userID] = true
	g.mu.Unlock()
	return &domain.SyncResult{Success: true}, nil
}

func TestRunBatch_BoundsConcurrency(t *testing.T) {
	var states staticStates
	for _, u := range []string{"a", "b", "c", "d", "e", "f"} {
		states = append(states, &domain.SyncState{UserID: u, Provider: "slack"})
	}
	syncer := &gatedSyncer{seen: map[string]bool{}}
	sched := NewScheduler(states, syncer, testSyncConfig(), discardLogger())

	stats, err := sched.RunBatch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 6, stats.Succeeded)
	assert.Len(t, syncer.seen, 6)
	assert.LessOrEqual(t, syncer.peak.Load(), int32(2))
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	cfg := testSyncConfig()
	cfg.Schedule = "not a cron spec"
	sched := NewScheduler(staticStates{}, &gatedSyncer{seen: map[string]bool{}}, cfg, discardLogger())

	err := sched.Start(context.Background())
	assert.ErrorContains(t, err, "schedule sync batch")
}

func TestStart_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	states := staticStates{{UserID: "u1", Provider: "slack"}}
	syncer := &gatedSyncer{seen: map[string]bool{}}
	sched := NewScheduler(states, syncer, testSyncConfig(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	require.Eventually(t, func() bool {
		syncer.mu.Lock()
		defer syncer.mu.Unlock()
		return syncer.seen["u1"]
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
