package testsupport

import (
	"path/filepath"
	"testing"

	"slate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Scheduler.TickInterval = 1
	cfg.Scheduler.RunOnStart = false
	cfg.Release.MinFreeMiB = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithNtfyTopic points notifications at a test endpoint.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
		cfg.Notifications.Releases = true
		cfg.Notifications.Errors = true
	}
}

// WithTickInterval overrides the scheduler cadence in seconds.
func WithTickInterval(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scheduler.TickInterval = seconds
	}
}
