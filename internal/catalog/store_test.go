package catalog_test

import (
	"context"
	"testing"
	"time"

	"slate/internal/catalog"
	"slate/internal/testsupport"
)

func TestInsertAndGetPendingSeries(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	series := &catalog.PendingSeries{
		Title:      "Night Shift",
		Categories: []string{"thriller", "drama"},
		Tags:       []string{"new"},
		Rating:     7.5,
		Active:     true,
		ReleaseAt:  time.Now().Add(time.Hour),
	}
	if err := store.InsertPendingSeries(ctx, series); err != nil {
		t.Fatalf("InsertPendingSeries: %v", err)
	}
	if series.ID.IsZero() {
		t.Fatal("expected assigned id")
	}
	if series.Status != catalog.StatusPending {
		t.Fatalf("expected pending status, got %q", series.Status)
	}

	got, err := store.GetPendingSeries(ctx, series.ID)
	if err != nil {
		t.Fatalf("GetPendingSeries: %v", err)
	}
	if got == nil {
		t.Fatal("expected series, got nil")
	}
	if got.Title != "Night Shift" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "thriller" {
		t.Fatalf("unexpected categories %v", got.Categories)
	}
}

func TestInsertPendingSeriesValidation(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	cases := []struct {
		name   string
		series *catalog.PendingSeries
	}{
		{"missing title", &catalog.PendingSeries{Categories: []string{"a"}, ReleaseAt: time.Now()}},
		{"missing categories", &catalog.PendingSeries{Title: "x", ReleaseAt: time.Now()}},
		{"bad rating", &catalog.PendingSeries{Title: "x", Categories: []string{"a"}, Rating: 11, ReleaseAt: time.Now()}},
		{"missing schedule", &catalog.PendingSeries{Title: "x", Categories: []string{"a"}}},
	}
	for _, tc := range cases {
		if err := store.InsertPendingSeries(ctx, tc.series); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestValidateNewSchedule(t *testing.T) {
	now := time.Now()
	if err := catalog.ValidateNewSchedule(now.Add(time.Minute), now); err != nil {
		t.Fatalf("future schedule rejected: %v", err)
	}
	if err := catalog.ValidateNewSchedule(now.Add(-time.Minute), now); err == nil {
		t.Fatal("past schedule accepted")
	}
	if err := catalog.ValidateNewSchedule(now, now); err == nil {
		t.Fatal("present schedule accepted")
	}
}

func TestDuePendingSeriesOrdering(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	later := testsupport.SeedPendingSeries(t, store, "Later", now.Add(-time.Minute))
	earlier := testsupport.SeedPendingSeries(t, store, "Earlier", now.Add(-time.Hour))
	testsupport.SeedPendingSeries(t, store, "Future", now.Add(time.Hour))

	due, err := store.DuePendingSeries(ctx, now)
	if err != nil {
		t.Fatalf("DuePendingSeries: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due series, got %d", len(due))
	}
	if due[0].ID != earlier.ID || due[1].ID != later.ID {
		t.Fatalf("due series out of order: %v, %v", due[0].Title, due[1].Title)
	}
}

func TestDueBoundaryIsInclusive(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	exact := testsupport.SeedPendingSeries(t, store, "Exact", now)

	due, err := store.DuePendingSeries(ctx, now)
	if err != nil {
		t.Fatalf("DuePendingSeries: %v", err)
	}
	if len(due) != 1 || due[0].ID != exact.ID {
		t.Fatalf("expected exactly-due series to be returned, got %d", len(due))
	}
}

func TestPendingEpisodeParentExclusivity(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now()

	both := &catalog.PendingEpisode{
		SeriesID:        catalog.NewID(),
		PendingSeriesID: catalog.NewID(),
		EpisodeNumber:   1,
		VideoRef:        "v.mp4",
		ReleaseAt:       now,
	}
	if err := store.InsertPendingEpisode(ctx, both); err == nil {
		t.Fatal("episode with two parents accepted")
	}

	neither := &catalog.PendingEpisode{
		EpisodeNumber: 1,
		VideoRef:      "v.mp4",
		ReleaseAt:     now,
	}
	if err := store.InsertPendingEpisode(ctx, neither); err == nil {
		t.Fatal("episode with no parent accepted")
	}
}

func TestEpisodeNumberBounds(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for _, number := range []int{0, 101, -5} {
		episode := &catalog.PendingEpisode{
			SeriesID:      catalog.NewID(),
			EpisodeNumber: number,
			VideoRef:      "v.mp4",
			ReleaseAt:     time.Now(),
		}
		if err := store.InsertPendingEpisode(ctx, episode); err == nil {
			t.Errorf("episode number %d accepted", number)
		}
	}
}

func TestRelinkPendingEpisodes(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	pendingParent := catalog.NewID()
	first := testsupport.SeedPendingEpisode(t, store, "", pendingParent, 1, now.Add(time.Hour))
	second := testsupport.SeedPendingEpisode(t, store, "", pendingParent, 2, now.Add(2*time.Hour))

	live := testsupport.SeedLiveSeries(t, store, "Relinked")

	count, err := store.RelinkPendingEpisodes(ctx, pendingParent, live.ID)
	if err != nil {
		t.Fatalf("RelinkPendingEpisodes: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 relinked episodes, got %d", count)
	}

	for _, id := range []catalog.ID{first.ID, second.ID} {
		got, err := store.GetPendingEpisode(ctx, id)
		if err != nil {
			t.Fatalf("GetPendingEpisode: %v", err)
		}
		if got.SeriesID != live.ID {
			t.Fatalf("episode %s not relinked, series_id=%s", id, got.SeriesID)
		}
		if got.Status != catalog.StatusPending {
			t.Fatalf("relink changed status to %q", got.Status)
		}
	}
}

func TestLiveEpisodeUniqueSlot(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	live := testsupport.SeedLiveSeries(t, store, "Slots")
	episode := &catalog.LiveEpisode{
		ID:            catalog.NewID(),
		SeriesID:      live.ID,
		EpisodeNumber: 3,
		VideoRef:      "v.mp4",
		ReleasedAt:    time.Now(),
	}
	if err := store.InsertLiveEpisode(ctx, episode); err != nil {
		t.Fatalf("InsertLiveEpisode: %v", err)
	}

	dup := &catalog.LiveEpisode{
		ID:            catalog.NewID(),
		SeriesID:      live.ID,
		EpisodeNumber: 3,
		VideoRef:      "other.mp4",
		ReleasedAt:    time.Now(),
	}
	if err := store.InsertLiveEpisode(ctx, dup); err == nil {
		t.Fatal("duplicate (series, number) slot accepted")
	}

	exists, err := store.LiveEpisodeExists(ctx, live.ID, 3)
	if err != nil {
		t.Fatalf("LiveEpisodeExists: %v", err)
	}
	if !exists {
		t.Fatal("expected slot to exist")
	}
}

func TestTransferLog(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	pendingID := catalog.NewID()
	liveID := catalog.NewID()
	transfer := &catalog.Transfer{
		PendingSeriesID: pendingID,
		LiveSeriesID:    liveID,
		Title:           "Mapped",
		ReleaseAt:       time.Now().Add(-time.Hour),
	}
	if err := store.AppendTransfer(ctx, transfer); err != nil {
		t.Fatalf("AppendTransfer: %v", err)
	}
	if transfer.ID == 0 {
		t.Fatal("expected assigned transfer id")
	}

	got, err := store.TransferForPendingSeries(ctx, pendingID)
	if err != nil {
		t.Fatalf("TransferForPendingSeries: %v", err)
	}
	if got == nil || got.LiveSeriesID != liveID {
		t.Fatalf("unexpected transfer %+v", got)
	}

	missing, err := store.TransferForPendingSeries(ctx, catalog.NewID())
	if err != nil {
		t.Fatalf("TransferForPendingSeries (missing): %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown pending id, got %+v", missing)
	}

	all, err := store.ListTransfers(ctx, 0)
	if err != nil {
		t.Fatalf("ListTransfers: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(all))
	}
}

func TestStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	testsupport.SeedPendingSeries(t, store, "One", now.Add(time.Hour))
	live := testsupport.SeedLiveSeries(t, store, "Two")
	testsupport.SeedPendingEpisode(t, store, live.ID, "", 1, now.Add(time.Hour))

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.PendingSeries != 1 || stats.LiveSeries != 1 || stats.PendingEpisodes != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestParseStatusLegacyValues(t *testing.T) {
	if got := catalog.ParseStatus("pending"); got != catalog.StatusPending {
		t.Fatalf("pending parsed as %q", got)
	}
	if got := catalog.ParseStatus("Released"); got != catalog.StatusReleased {
		t.Fatalf("released parsed as %q", got)
	}
	if got := catalog.ParseStatus("archived"); got != catalog.StatusUnknown {
		t.Fatalf("legacy value parsed as %q", got)
	}
}
