package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"slate/internal/catalog"
	"slate/internal/config"
	"slate/internal/logging"
	"slate/internal/scheduler"
)

// LockFileName is the flock target under the log directory. The CLI
// probes the same path to tell whether a daemon is running.
const LockFileName = "slated.lock"

// Runner is the scheduler surface the daemon controls.
type Runner interface {
	Start(ctx context.Context) error
	Stop()
	Status() (running bool, last *scheduler.TickResult, lastErr error)
}

// Daemon owns the release scheduler and the single-instance lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *catalog.Store
	runner Runner

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	TickerRunning bool
	LastTick      *scheduler.TickResult
	LastTickErr   error
	DBPath        string
	LockFilePath  string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *catalog.Store, logger *slog.Logger, runner Runner) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || runner == nil {
		return nil, errors.New("daemon requires config, store, logger, and scheduler")
	}

	lockPath := LockPath(cfg)
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		runner:   runner,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// LockPath returns the lock file location for a configuration.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, LockFileName)
}

// Start acquires the daemon lock and launches the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another slate daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.runner.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start scheduler: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("slate daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the scheduler and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.runner.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("slate daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	tickerRunning, lastTick, lastErr := d.runner.Status()
	return Status{
		Running:       d.running.Load(),
		TickerRunning: tickerRunning,
		LastTick:      lastTick,
		LastTickErr:   lastErr,
		DBPath:        d.store.Path(),
		LockFilePath:  d.lockPath,
	}
}
