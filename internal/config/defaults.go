package config

const (
	defaultDataDir              = "~/.local/share/slate/data"
	defaultLogDir               = "~/.local/share/slate/logs"
	defaultTickInterval         = 60
	defaultMinFreeMiB           = 256
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Scheduler: Scheduler{
			TickInterval: defaultTickInterval,
			RunOnStart:   true,
		},
		Release: Release{
			MinFreeMiB: defaultMinFreeMiB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Releases:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
