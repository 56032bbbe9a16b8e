// Package daemonrun assembles and runs the slated process: logger,
// catalog store, promoters, scheduler, and the daemon lock.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"slate/internal/catalog"
	"slate/internal/config"
	"slate/internal/daemon"
	"slate/internal/logging"
	"slate/internal/notifications"
	"slate/internal/preflight"
	"slate/internal/releases"
	"slate/internal/scheduler"
)

// PIDFileName sits beside the lock file so the CLI can signal the
// daemon process.
const PIDFileName = "slated.pid"

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the slate daemon runtime loop and blocks until a shutdown
// signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg, opts.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	results := preflight.RunAll(signalCtx, cfg)
	for _, result := range results {
		if result.Passed {
			logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		logger.Error("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}
	if !preflight.AllPassed(results) {
		return fmt.Errorf("preflight checks failed")
	}

	pidPath := PIDPath(cfg)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog store", logging.Error(err))
		return err
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	seriesPromoter := releases.NewSeriesPromoter(store, logger, notifier)
	episodePromoter := releases.NewEpisodePromoter(store, logger)
	sched := scheduler.New(cfg, seriesPromoter, episodePromoter, notifier, logger)

	d, err := daemon.New(cfg, store, logger, sched)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that no other slated instance is running"))
		return err
	}

	<-signalCtx.Done()
	logger.Info("slate daemon shutting down")
	return nil
}

// PIDPath returns the pid file location for a configuration.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, PIDFileName)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
