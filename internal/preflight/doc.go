// Package preflight validates the runtime environment before the
// scheduler starts promoting records.
package preflight
