package testsupport

import (
	"context"
	"testing"
	"time"

	"slate/internal/catalog"
	"slate/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedPendingSeries inserts a minimal valid pending series scheduled at
// releaseAt and returns it.
func SeedPendingSeries(t testing.TB, store *catalog.Store, title string, releaseAt time.Time) *catalog.PendingSeries {
	t.Helper()

	series := &catalog.PendingSeries{
		Title:      title,
		Categories: []string{"drama"},
		Active:     true,
		ReleaseAt:  releaseAt,
	}
	if err := store.InsertPendingSeries(context.Background(), series); err != nil {
		t.Fatalf("InsertPendingSeries: %v", err)
	}
	return series
}

// SeedPendingEpisode inserts a minimal valid pending episode. Exactly
// one of seriesID and pendingSeriesID must be non-zero.
func SeedPendingEpisode(t testing.TB, store *catalog.Store, seriesID, pendingSeriesID catalog.ID, number int, releaseAt time.Time) *catalog.PendingEpisode {
	t.Helper()

	episode := &catalog.PendingEpisode{
		SeriesID:        seriesID,
		PendingSeriesID: pendingSeriesID,
		EpisodeNumber:   number,
		Title:           "Episode",
		VideoRef:        "videos/episode.mp4",
		ReleaseAt:       releaseAt,
	}
	if err := store.InsertPendingEpisode(context.Background(), episode); err != nil {
		t.Fatalf("InsertPendingEpisode: %v", err)
	}
	return episode
}

// SeedLiveSeries inserts a live series directly, bypassing promotion.
func SeedLiveSeries(t testing.TB, store *catalog.Store, title string) *catalog.LiveSeries {
	t.Helper()

	series := &catalog.LiveSeries{
		ID:         catalog.NewID(),
		Title:      title,
		Active:     true,
		ReleasedAt: time.Now().UTC(),
	}
	if err := store.InsertLiveSeries(context.Background(), series); err != nil {
		t.Fatalf("InsertLiveSeries: %v", err)
	}
	return series
}
