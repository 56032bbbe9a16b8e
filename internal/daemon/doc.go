// Package daemon coordinates the background release scheduler and
// enforces single-instance execution through a file lock.
package daemon
