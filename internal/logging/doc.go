// Package logging builds the slog loggers used across slate.
//
// Two output formats are supported: a console handler that renders
// "timestamp LEVEL component: message key=value" lines for interactive
// use, and the standard JSON handler for log files and collectors. The
// package also exposes a small attribute facade so call sites stay
// consistent about field names.
package logging
