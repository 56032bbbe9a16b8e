package preflight_test

import (
	"path/filepath"
	"testing"

	"slate/internal/preflight"
	"slate/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("Data directory", dir)
	if !result.Passed {
		t.Fatalf("writable dir failed: %s", result.Detail)
	}

	missing := preflight.CheckDirectoryAccess("Data directory", filepath.Join(dir, "nope"))
	if missing.Passed {
		t.Fatal("missing dir passed")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()

	ok := preflight.CheckFreeSpace(dir, 1)
	if !ok.Passed {
		t.Fatalf("1 MiB floor failed on temp dir: %s", ok.Detail)
	}

	// An absurd floor must fail on any real filesystem.
	huge := preflight.CheckFreeSpace(dir, 1<<30)
	if huge.Passed {
		t.Fatal("impossible free-space floor passed")
	}
}

func TestRunAllCoversConfiguredChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Release.MinFreeMiB = 1
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := preflight.RunAll(t.Context(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(results))
	}
	if !preflight.AllPassed(results) {
		for _, r := range results {
			t.Logf("%s: passed=%v detail=%s", r.Name, r.Passed, r.Detail)
		}
		t.Fatal("expected all checks to pass")
	}
}

func TestRunAllSkipsFreeSpaceWhenDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Release.MinFreeMiB = 0
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := preflight.RunAll(t.Context(), cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 checks with the floor disabled, got %d", len(results))
	}
}
