package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"slate/internal/config"
)

const userAgent = "Slate/0.1.0"

// Service defines the notification surface exposed to the scheduler and
// promoters.
type Service interface {
	NotifySeriesReleased(ctx context.Context, title string, episodeCount int) error
	NotifyTickCompleted(ctx context.Context, promoted, failed int, duration time.Duration) error
	NotifyStorageFull(ctx context.Context, detail string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when a topic
// is configured, otherwise a noop implementation.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     resolveEndpoint(topic),
		client:       &http.Client{Timeout: timeout},
		sendReleases: cfg.Notifications.Releases,
		sendErrors:   cfg.Notifications.Errors,
	}
}

// resolveEndpoint accepts either a bare topic name or a full URL.
func resolveEndpoint(topic string) string {
	if strings.HasPrefix(topic, "http://") || strings.HasPrefix(topic, "https://") {
		return topic
	}
	return "https://ntfy.sh/" + topic
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	sendReleases bool
	sendErrors   bool
}

func (n *ntfyService) NotifySeriesReleased(ctx context.Context, title string, episodeCount int) error {
	if !n.sendReleases {
		return nil
	}
	title = strings.TrimSpace(title)
	message := fmt.Sprintf("Series now live: %s", title)
	if episodeCount > 0 {
		message = fmt.Sprintf("%s (%d episodes)", message, episodeCount)
	}
	data := payload{
		title:   "Slate - Series Released",
		message: message,
		tags:    []string{"slate", "series", "released"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTickCompleted(ctx context.Context, promoted, failed int, duration time.Duration) error {
	if !n.sendReleases || (promoted == 0 && failed == 0) {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	if failed == 0 {
		title = "Slate - Releases Complete"
		message = fmt.Sprintf("Release pass complete: %d records promoted in %s", promoted, durationText)
	} else {
		title = "Slate - Releases Complete (with errors)"
		message = fmt.Sprintf("Release pass complete: %d promoted, %d failed in %s", promoted, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"slate", "releases", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyStorageFull(ctx context.Context, detail string) error {
	if !n.sendErrors {
		return nil
	}
	message := "Release batch aborted: storage full"
	if detail = strings.TrimSpace(detail); detail != "" {
		message = fmt.Sprintf("%s\n%s", message, detail)
	}
	data := payload{
		title:    "Slate - Storage Full",
		message:  message,
		tags:     []string{"slate", "storage", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Slate - Error",
		message:  builder.String(),
		tags:     []string{"slate", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Slate - Test",
		message:  "Notification system test",
		tags:     []string{"slate", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySeriesReleased(context.Context, string, int) error { return nil }

func (noopService) NotifyTickCompleted(context.Context, int, int, time.Duration) error { return nil }

func (noopService) NotifyStorageFull(context.Context, string) error { return nil }

func (noopService) NotifyError(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
