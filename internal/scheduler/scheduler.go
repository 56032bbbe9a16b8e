package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"slate/internal/config"
	"slate/internal/logging"
	"slate/internal/notifications"
	"slate/internal/releases"
)

// SeriesPromoter is the series pass the scheduler runs first each tick.
type SeriesPromoter interface {
	PromoteDue(ctx context.Context, now time.Time) (releases.SeriesResult, error)
}

// EpisodePromoter is the episode pass the scheduler runs second.
type EpisodePromoter interface {
	PromoteDue(ctx context.Context, now time.Time) (releases.EpisodeResult, error)
}

// TickResult aggregates one promotion pass over both collections.
type TickResult struct {
	Series   releases.SeriesResult
	Episodes releases.EpisodeResult
	Started  time.Time
	Duration time.Duration
}

// Promoted returns the total records promoted across both passes.
func (r TickResult) Promoted() int {
	return len(r.Series.Promoted) + len(r.Episodes.Promoted)
}

// Failed returns the total per-record failures across both passes.
func (r TickResult) Failed() int {
	return len(r.Series.Failed) + len(r.Episodes.Failed)
}

// Scheduler drives periodic promotion ticks. A single instance runs per
// process; overlapping ticks are coalesced, not stacked.
type Scheduler struct {
	cfg      *config.Config
	series   SeriesPromoter
	episodes EpisodePromoter
	notifier notifications.Service
	logger   *slog.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	tickMu sync.Mutex

	mu       sync.RWMutex
	running  bool
	lastTick *TickResult
	lastErr  error
	tickSeq  uint64
}

// New constructs a scheduler from the configured tick interval.
func New(cfg *config.Config, series SeriesPromoter, episodes EpisodePromoter, notifier notifications.Service, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		series:   series,
		episodes: episodes,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
	}
}

// Start begins the periodic tick loop. When run_on_start is set an
// immediate pass runs before the first interval elapses.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}

	interval := time.Duration(s.cfg.Scheduler.TickInterval) * time.Second
	if interval <= 0 {
		s.mu.Unlock()
		return fmt.Errorf("tick interval must be positive")
	}

	clogger := cronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(clogger),
		cron.Recover(clogger),
	))

	spec := fmt.Sprintf("@every %s", interval)
	entryID, err := s.cron.AddFunc(spec, func() {
		s.runTick(context.Background())
	})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("schedule tick: %w", err)
	}
	s.entryID = entryID
	s.running = true
	s.mu.Unlock()

	s.cron.Start()
	s.logger.InfoContext(ctx, "scheduler started",
		logging.Duration("tick_interval", interval),
		logging.Bool("run_on_start", s.cfg.Scheduler.RunOnStart))

	if s.cfg.Scheduler.RunOnStart {
		go s.runTick(ctx)
	}
	return nil
}

// Stop halts the tick loop and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	// An eager or manual tick may still hold the lock.
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	s.logger.Info("scheduler stopped")
}

// RunNow executes a single promotion pass outside the cron cadence.
func (s *Scheduler) RunNow(ctx context.Context) (TickResult, error) {
	return s.runTick(ctx)
}

// Status reports whether the loop is running and the last tick outcome.
func (s *Scheduler) Status() (running bool, last *TickResult, lastErr error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running, s.lastTick, s.lastErr
}

func (s *Scheduler) runTick(ctx context.Context) (TickResult, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	s.tickSeq++
	tickID := s.tickSeq
	s.mu.Unlock()

	started := time.Now()
	result := TickResult{Started: started}
	logger := s.logger.With(logging.Any(logging.FieldTickID, tickID))

	logger.DebugContext(ctx, "tick started")

	seriesResult, seriesErr := s.series.PromoteDue(ctx, started)
	result.Series = seriesResult

	var tickErr error
	if seriesErr != nil {
		tickErr = seriesErr
		if releases.IsStorageFull(seriesErr) {
			// The episode pass would hit the same full disk; skip it and
			// let the next tick retry both.
			logger.ErrorContext(ctx, "series pass aborted on full storage, skipping episode pass",
				logging.Error(seriesErr))
			s.notifyStorageFull(ctx, seriesErr)
		} else {
			logger.ErrorContext(ctx, "series pass failed", logging.Error(seriesErr))
			s.notifyError(ctx, seriesErr, "series pass")
		}
	}

	if seriesErr == nil || !releases.IsStorageFull(seriesErr) {
		episodeResult, episodeErr := s.episodes.PromoteDue(ctx, started)
		result.Episodes = episodeResult
		if episodeErr != nil {
			tickErr = episodeErr
			if releases.IsStorageFull(episodeErr) {
				logger.ErrorContext(ctx, "episode pass aborted on full storage",
					logging.Error(episodeErr))
				s.notifyStorageFull(ctx, episodeErr)
			} else {
				logger.ErrorContext(ctx, "episode pass failed", logging.Error(episodeErr))
				s.notifyError(ctx, episodeErr, "episode pass")
			}
		}
	}

	result.Duration = time.Since(started)

	if promoted, failed := result.Promoted(), result.Failed(); promoted > 0 || failed > 0 {
		logger.InfoContext(ctx, "tick completed",
			logging.Int("promoted", promoted),
			logging.Int("failed", failed),
			logging.Int("deferred", len(result.Episodes.Skipped)),
			logging.Duration("duration", result.Duration))
		if s.notifier != nil {
			if err := s.notifier.NotifyTickCompleted(ctx, promoted, failed, result.Duration); err != nil {
				logger.WarnContext(ctx, "tick notification failed", logging.Error(err))
			}
		}
	} else {
		logger.DebugContext(ctx, "tick completed, nothing due",
			logging.Duration("duration", result.Duration))
	}

	s.mu.Lock()
	resultCopy := result
	s.lastTick = &resultCopy
	s.lastErr = tickErr
	s.mu.Unlock()

	return result, tickErr
}

func (s *Scheduler) notifyStorageFull(ctx context.Context, err error) {
	if s.notifier == nil {
		return
	}
	if notifyErr := s.notifier.NotifyStorageFull(ctx, err.Error()); notifyErr != nil {
		s.logger.WarnContext(ctx, "storage-full notification failed", logging.Error(notifyErr))
	}
}

func (s *Scheduler) notifyError(ctx context.Context, err error, label string) {
	if s.notifier == nil {
		return
	}
	if notifyErr := s.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		s.logger.WarnContext(ctx, "error notification failed", logging.Error(notifyErr))
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.logger.Info(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{logging.Error(err)}, keysAndValues...)
	c.logger.Error(msg, args...)
}
