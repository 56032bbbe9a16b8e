package releases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"slate/internal/catalog"
	"slate/internal/logging"
	"slate/internal/releases"
	"slate/internal/testsupport"
)

func TestSeriesPromotionMovesRecordAndLogsTransfer(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	pending := testsupport.SeedPendingSeries(t, store, "Due Series", now.Add(-time.Minute))
	promoter := releases.NewSeriesPromoter(store, logging.NewNop(), nil)

	result, err := promoter.PromoteDue(ctx, now)
	if err != nil {
		t.Fatalf("PromoteDue: %v", err)
	}
	if len(result.Promoted) != 1 || result.Promoted[0] != pending.ID {
		t.Fatalf("unexpected result %+v", result)
	}

	// Pending record gone.
	gone, err := store.GetPendingSeries(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetPendingSeries: %v", err)
	}
	if gone != nil {
		t.Fatalf("pending series still present: %+v", gone)
	}

	// Live record created with fields copied and counters reset.
	transfer, err := store.TransferForPendingSeries(ctx, pending.ID)
	if err != nil {
		t.Fatalf("TransferForPendingSeries: %v", err)
	}
	if transfer == nil {
		t.Fatal("expected transfer entry")
	}
	live, err := store.GetLiveSeries(ctx, transfer.LiveSeriesID)
	if err != nil {
		t.Fatalf("GetLiveSeries: %v", err)
	}
	if live == nil {
		t.Fatal("expected live series")
	}
	if live.Title != pending.Title {
		t.Fatalf("title not copied: %q", live.Title)
	}
	if live.ViewCount != 0 {
		t.Fatalf("view count not reset: %d", live.ViewCount)
	}
	if live.ID == pending.ID {
		t.Fatal("live series reused the pending identity")
	}
}

func TestSeriesPromotionRelinksAndReleasesLinkedEpisodes(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	pending := testsupport.SeedPendingSeries(t, store, "Bundle", now.Add(-time.Minute))
	// One episode due, one scheduled far in the future. Both release with
	// the series.
	dueEp := testsupport.SeedPendingEpisode(t, store, "", pending.ID, 1, now.Add(-time.Minute))
	futureEp := testsupport.SeedPendingEpisode(t, store, "", pending.ID, 2, now.Add(24*time.Hour))

	promoter := releases.NewSeriesPromoter(store, logging.NewNop(), nil)
	if _, err := promoter.PromoteDue(ctx, now); err != nil {
		t.Fatalf("PromoteDue: %v", err)
	}

	transfer, err := store.TransferForPendingSeries(ctx, pending.ID)
	if err != nil || transfer == nil {
		t.Fatalf("transfer missing: %v", err)
	}

	liveEpisodes, err := store.ListLiveEpisodes(ctx, transfer.LiveSeriesID)
	if err != nil {
		t.Fatalf("ListLiveEpisodes: %v", err)
	}
	if len(liveEpisodes) != 2 {
		t.Fatalf("expected both linked episodes live, got %d", len(liveEpisodes))
	}

	for _, id := range []catalog.ID{dueEp.ID, futureEp.ID} {
		got, err := store.GetPendingEpisode(ctx, id)
		if err != nil {
			t.Fatalf("GetPendingEpisode: %v", err)
		}
		if got != nil {
			t.Fatalf("pending episode %s survived series promotion", id)
		}
	}
}

func TestSeriesPromotionIsIdempotent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	testsupport.SeedPendingSeries(t, store, "Once", now.Add(-time.Minute))
	promoter := releases.NewSeriesPromoter(store, logging.NewNop(), nil)

	if _, err := promoter.PromoteDue(ctx, now); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	result, err := promoter.PromoteDue(ctx, now.Add(time.Second))
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if len(result.Promoted) != 0 || len(result.Failed) != 0 {
		t.Fatalf("second pass did work: %+v", result)
	}

	all, err := store.ListLiveSeries(ctx)
	if err != nil {
		t.Fatalf("ListLiveSeries: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected a single live series, got %d", len(all))
	}
}

// fullStore wraps the real store and fails inserts after a budget of
// successes, mimicking a filesystem that filled up mid-batch.
type fullStore struct {
	releases.Store
	insertBudget int
}

func (f *fullStore) InsertLiveSeries(ctx context.Context, series *catalog.LiveSeries) error {
	if f.insertBudget <= 0 {
		return fmt.Errorf("insert live series: %w", errDiskFull)
	}
	f.insertBudget--
	return f.Store.InsertLiveSeries(ctx, series)
}

var errDiskFull = errors.New("database or disk is full")

func TestStorageFullAbortsSeriesBatch(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		testsupport.SeedPendingSeries(t, store, fmt.Sprintf("Series %d", i), now.Add(time.Duration(i-10)*time.Minute))
	}

	wrapped := &fullStore{Store: store, insertBudget: 1}
	promoter := releases.NewSeriesPromoter(wrapped, logging.NewNop(), nil)

	result, err := promoter.PromoteDue(ctx, now)
	if err == nil {
		t.Fatal("expected storage-full error")
	}
	if !releases.IsStorageFull(err) {
		t.Fatalf("error not classified as storage full: %v", err)
	}
	if len(result.Promoted) != 1 {
		t.Fatalf("expected 1 promotion before the abort, got %d", len(result.Promoted))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("expected exactly the aborting failure, got %d", len(result.Failed))
	}

	// The remaining series stay pending for the next pass.
	due, err := store.DuePendingSeries(ctx, now)
	if err != nil {
		t.Fatalf("DuePendingSeries: %v", err)
	}
	if len(due) != 4 {
		t.Fatalf("expected 4 series left pending, got %d", len(due))
	}
}

func TestSeriesPromoterContinuesPastOrdinaryFailures(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	bad := testsupport.SeedPendingSeries(t, store, "Bad", now.Add(-2*time.Minute))
	good := testsupport.SeedPendingSeries(t, store, "Good", now.Add(-time.Minute))

	wrapped := &flakyStore{Store: store, failFor: bad.ID}
	promoter := releases.NewSeriesPromoter(wrapped, logging.NewNop(), nil)

	result, err := promoter.PromoteDue(ctx, now)
	if err != nil {
		t.Fatalf("PromoteDue: %v", err)
	}
	if len(result.Promoted) != 1 || result.Promoted[0] != good.ID {
		t.Fatalf("expected the good series promoted, got %+v", result.Promoted)
	}
	if len(result.Failed) != 1 || result.Failed[0].ID != bad.ID {
		t.Fatalf("expected the bad series recorded as failed, got %+v", result.Failed)
	}
}

func TestStorageFullOnLinkedEpisodeReportsSeriesPromoted(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	pending := testsupport.SeedPendingSeries(t, store, "Tight Disk", now.Add(-time.Minute))
	episode := testsupport.SeedPendingEpisode(t, store, "", pending.ID, 1, now.Add(-time.Minute))

	wrapped := &fullEpisodeStore{Store: store, insertBudget: 0}
	promoter := releases.NewSeriesPromoter(wrapped, logging.NewNop(), nil)

	result, err := promoter.PromoteDue(ctx, now)
	if err == nil || !releases.IsStorageFull(err) {
		t.Fatalf("expected storage-full error, got %v", err)
	}
	// The series record itself moved before the disk filled; only the
	// episode is a failure.
	if len(result.Promoted) != 1 || result.Promoted[0] != pending.ID {
		t.Fatalf("series should count as promoted: %+v", result)
	}
	if len(result.Failed) != 1 || result.Failed[0].ID != episode.ID {
		t.Fatalf("failure should name the episode: %+v", result.Failed)
	}

	gone, err := store.GetPendingSeries(ctx, pending.ID)
	if err != nil {
		t.Fatalf("GetPendingSeries: %v", err)
	}
	if gone != nil {
		t.Fatal("pending series survived promotion")
	}
	still, err := store.GetPendingEpisode(ctx, episode.ID)
	if err != nil || still == nil {
		t.Fatalf("episode should remain pending for a retry: %v %v", still, err)
	}
}

// staleScanStore replays a series stuck at released, as a scan could
// surface from the crash window between mark and delete.
type staleScanStore struct {
	releases.Store
	stale *catalog.PendingSeries
}

func (s *staleScanStore) DuePendingSeries(ctx context.Context, now time.Time) ([]*catalog.PendingSeries, error) {
	due, err := s.Store.DuePendingSeries(ctx, now)
	if err != nil {
		return nil, err
	}
	return append(due, s.stale), nil
}

func TestSeriesStuckAtReleasedIsSkipped(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now().UTC()

	stale := &catalog.PendingSeries{
		ID:        catalog.NewID(),
		Title:     "Half Gone",
		Status:    catalog.StatusReleased,
		ReleaseAt: now.Add(-time.Hour),
	}
	wrapped := &staleScanStore{Store: store, stale: stale}
	promoter := releases.NewSeriesPromoter(wrapped, logging.NewNop(), nil)

	result, err := promoter.PromoteDue(ctx, now)
	if err != nil {
		t.Fatalf("PromoteDue: %v", err)
	}
	if len(result.Promoted) != 0 || len(result.Failed) != 0 {
		t.Fatalf("stale record should be ignored, got %+v", result)
	}

	all, err := store.ListLiveSeries(ctx)
	if err != nil {
		t.Fatalf("ListLiveSeries: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("stale record was promoted again: %d live series", len(all))
	}
	transfer, err := store.TransferForPendingSeries(ctx, stale.ID)
	if err != nil {
		t.Fatalf("TransferForPendingSeries: %v", err)
	}
	if transfer != nil {
		t.Fatalf("stale record produced a transfer: %+v", transfer)
	}
}

// flakyStore fails the transfer append for one specific series.
type flakyStore struct {
	releases.Store
	failFor catalog.ID
}

func (f *flakyStore) AppendTransfer(ctx context.Context, transfer *catalog.Transfer) error {
	if transfer.PendingSeriesID == f.failFor {
		return errors.New("transient write failure")
	}
	return f.Store.AppendTransfer(ctx, transfer)
}
