package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"slate/internal/catalog"
)

func TestTruncate(t *testing.T) {
	if got := truncate("short", 40); got != "short" {
		t.Fatalf("short string changed: %q", got)
	}
	if got := truncate("a long title that keeps going", 10); got != "a long ..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("tiny max mishandled: %q", got)
	}
}

func TestFormatTimestampZero(t *testing.T) {
	if got := formatTimestamp(time.Time{}); got != "-" {
		t.Fatalf("zero time rendered as %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "only") {
		t.Fatalf("row missing from output:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("empty headers should render nothing")
	}
}

func TestSortLiveSeriesByTitle(t *testing.T) {
	series := []*catalog.LiveSeries{
		{Title: "zebra"},
		{Title: "Apple"},
		{Title: "École"},
		{Title: "banana"},
	}
	sortLiveSeriesByTitle(series)

	got := make([]string, 0, len(series))
	for _, s := range series {
		got = append(got, s.Title)
	}
	want := []string{"Apple", "banana", "École", "zebra"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order %v", got)
		}
	}
}

func TestReadPIDFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slated.pid")

	if _, err := readPIDFile(path); err == nil {
		t.Fatal("missing pid file accepted")
	}

	if err := os.WriteFile(path, []byte("12345\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid != 12345 {
		t.Fatalf("unexpected pid %d", pid)
	}

	if err := os.WriteFile(path, []byte("not a pid"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if _, err := readPIDFile(path); err == nil {
		t.Fatal("malformed pid file accepted")
	}
}

func TestDaemonRunningProbe(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "slated.lock")

	if daemonRunning(lockPath) {
		t.Fatal("missing lock file reported as running")
	}

	holder := flock.New(lockPath)
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("acquire test lock: ok=%v err=%v", ok, err)
	}
	defer holder.Unlock()

	if !daemonRunning(lockPath) {
		t.Fatal("held lock not detected")
	}

	if err := holder.Unlock(); err != nil {
		t.Fatalf("release test lock: %v", err)
	}
	if daemonRunning(lockPath) {
		t.Fatal("released lock still reported as running")
	}
}
