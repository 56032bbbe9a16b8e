package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"slate/internal/config"
	"slate/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = append(captured, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func serviceFor(t *testing.T, endpoint string) notifications.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = endpoint
	cfg.Notifications.Releases = true
	cfg.Notifications.Errors = true
	return notifications.NewService(&cfg)
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifySeriesReleased(context.Background(), "Example", 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestSeriesReleasedFormatsPayload(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := serviceFor(t, server.URL)

	if err := svc.NotifySeriesReleased(context.Background(), "Night Shift", 8); err != nil {
		t.Fatalf("NotifySeriesReleased: %v", err)
	}
	if len(*captured) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*captured))
	}
	got := (*captured)[0]
	if got.title != "Slate - Series Released" {
		t.Fatalf("unexpected title %q", got.title)
	}
	if got.body != "Series now live: Night Shift (8 episodes)" {
		t.Fatalf("unexpected body %q", got.body)
	}
	if got.tags != "slate,series,released" {
		t.Fatalf("unexpected tags %q", got.tags)
	}
}

func TestStorageFullUsesHighPriority(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := serviceFor(t, server.URL)

	if err := svc.NotifyStorageFull(context.Background(), "data dir has 0 MiB free"); err != nil {
		t.Fatalf("NotifyStorageFull: %v", err)
	}
	got := (*captured)[0]
	if got.priority != "high" {
		t.Fatalf("expected high priority, got %q", got.priority)
	}
}

func TestTickCompletedSkipsEmptyPasses(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := serviceFor(t, server.URL)

	if err := svc.NotifyTickCompleted(context.Background(), 0, 0, time.Second); err != nil {
		t.Fatalf("NotifyTickCompleted: %v", err)
	}
	if len(*captured) != 0 {
		t.Fatal("empty tick produced a notification")
	}

	if err := svc.NotifyTickCompleted(context.Background(), 3, 1, 2*time.Second); err != nil {
		t.Fatalf("NotifyTickCompleted: %v", err)
	}
	if len(*captured) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*captured))
	}
	got := (*captured)[0]
	if got.title != "Slate - Releases Complete (with errors)" {
		t.Fatalf("unexpected title %q", got.title)
	}
}

func TestNotifyErrorIncludesContext(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := serviceFor(t, server.URL)

	if err := svc.NotifyError(context.Background(), errors.New("boom"), "episode pass"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	got := (*captured)[0]
	if got.body != "Error with episode pass: boom" {
		t.Fatalf("unexpected body %q", got.body)
	}
}

func TestSendSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)
	svc := serviceFor(t, server.URL)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from 403 response")
	}
}

func TestDisabledCategoriesAreSilent(t *testing.T) {
	server, captured := newCaptureServer(t)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Releases = false
	cfg.Notifications.Errors = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifySeriesReleased(context.Background(), "Quiet", 1); err != nil {
		t.Fatalf("NotifySeriesReleased: %v", err)
	}
	if err := svc.NotifyStorageFull(context.Background(), "detail"); err != nil {
		t.Fatalf("NotifyStorageFull: %v", err)
	}
	if len(*captured) != 0 {
		t.Fatalf("disabled categories still sent %d requests", len(*captured))
	}
}
