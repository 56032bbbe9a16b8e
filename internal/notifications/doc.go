// Package notifications sends push notifications for release events via
// ntfy. When no topic is configured every call is a no-op.
package notifications
