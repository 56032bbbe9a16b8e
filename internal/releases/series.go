package releases

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"slate/internal/catalog"
	"slate/internal/logging"
	"slate/internal/notifications"
)

// SeriesPromoter moves due pending series into the live catalog.
type SeriesPromoter struct {
	store    Store
	logger   *slog.Logger
	notifier notifications.Service
}

// NewSeriesPromoter wires a promoter to the catalog store. The notifier
// may be nil.
func NewSeriesPromoter(store Store, logger *slog.Logger, notifier notifications.Service) *SeriesPromoter {
	return &SeriesPromoter{
		store:    store,
		logger:   logging.NewComponentLogger(logger, "series-promoter"),
		notifier: notifier,
	}
}

// PromoteDue promotes every pending series scheduled at or before now.
// Failures on one series do not stop the rest, with one exception:
// exhausted storage aborts the batch immediately and the partial result
// is returned alongside the error.
func (p *SeriesPromoter) PromoteDue(ctx context.Context, now time.Time) (SeriesResult, error) {
	var result SeriesResult

	due, err := p.store.DuePendingSeries(ctx, now)
	if err != nil {
		return result, Wrap(ErrTransient, "series-promoter", "query due", "", err)
	}

	for _, series := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if series.Status != catalog.StatusPending {
			p.logger.WarnContext(ctx, "skipping series in unexpected state",
				logging.String(logging.FieldPendingSeriesID, series.ID.String()),
				logging.String("status", string(series.Status)))
			continue
		}

		liveID, err := p.promoteSeries(ctx, series, now)
		if err != nil {
			result.Failed = append(result.Failed, Failure{ID: series.ID, Err: err})
			if IsStorageFull(err) {
				p.logger.ErrorContext(ctx, "storage full, aborting release batch",
					logging.String(logging.FieldPendingSeriesID, series.ID.String()),
					logging.Error(err))
				return result, Wrap(ErrStorageFull, "series-promoter", "promote", "batch aborted", err)
			}
			p.logger.ErrorContext(ctx, "series promotion failed",
				logging.String(logging.FieldPendingSeriesID, series.ID.String()),
				logging.Error(err))
			continue
		}
		result.Promoted = append(result.Promoted, series.ID)

		// The series record itself is live at this point; an abort below
		// charges only the episode that hit the full disk.
		if episodeID, err := p.promoteLinkedEpisodes(ctx, series, liveID, now); err != nil {
			result.Failed = append(result.Failed, Failure{ID: episodeID, Err: err})
			p.logger.ErrorContext(ctx, "storage full, aborting release batch",
				logging.String(logging.FieldEpisodeID, episodeID.String()),
				logging.Error(err))
			return result, Wrap(ErrStorageFull, "series-promoter", "promote linked episodes", "batch aborted", err)
		}
	}
	return result, nil
}

func (p *SeriesPromoter) promoteSeries(ctx context.Context, pending *catalog.PendingSeries, now time.Time) (catalog.ID, error) {
	live := &catalog.LiveSeries{
		ID:               catalog.NewID(),
		Title:            pending.Title,
		Description:      pending.Description,
		EpisodeCount:     pending.EpisodeCount,
		FreeEpisodeCount: pending.FreeEpisodeCount,
		IsFree:           pending.IsFree,
		MembersOnly:      pending.MembersOnly,
		SeriesType:       pending.SeriesType,
		Active:           pending.Active,
		Categories:       pending.Categories,
		Tags:             pending.Tags,
		ImageRef:         pending.ImageRef,
		BannerRef:        pending.BannerRef,
		Rating:           pending.Rating,
		ViewCount:        0,
		ReleasedAt:       now,
	}

	if err := p.store.InsertLiveSeries(ctx, live); err != nil {
		return "", fmt.Errorf("insert live series: %w", err)
	}

	transfer := &catalog.Transfer{
		PendingSeriesID: pending.ID,
		LiveSeriesID:    live.ID,
		Title:           pending.Title,
		ReleaseAt:       pending.ReleaseAt,
		TransferredAt:   now,
	}
	if err := p.store.AppendTransfer(ctx, transfer); err != nil {
		return "", fmt.Errorf("append transfer: %w", err)
	}

	relinked, err := p.store.RelinkPendingEpisodes(ctx, pending.ID, live.ID)
	if err != nil {
		return "", fmt.Errorf("relink episodes: %w", err)
	}

	if err := p.store.MarkPendingSeriesReleased(ctx, pending.ID); err != nil {
		return "", fmt.Errorf("mark released: %w", err)
	}
	if _, err := p.store.DeletePendingSeries(ctx, pending.ID); err != nil {
		return "", fmt.Errorf("delete pending series: %w", err)
	}

	p.logger.InfoContext(ctx, "series released",
		logging.String(logging.FieldPendingSeriesID, pending.ID.String()),
		logging.String(logging.FieldSeriesID, live.ID.String()),
		logging.String("title", pending.Title),
		logging.Int64("relinked_episodes", relinked))
	return live.ID, nil
}

// promoteLinkedEpisodes releases every pending episode linked to a
// just-promoted series, regardless of each episode's own schedule. Only
// a storage-full failure is returned, together with the episode that
// hit it; anything else is logged and the sweep continues.
func (p *SeriesPromoter) promoteLinkedEpisodes(ctx context.Context, pending *catalog.PendingSeries, liveID catalog.ID, now time.Time) (catalog.ID, error) {
	linked, err := p.store.PendingEpisodesForLiveSeries(ctx, liveID)
	if err != nil {
		// The episodes stay relinked and pending; the episode pass picks
		// them up once due.
		p.logger.ErrorContext(ctx, "listing linked episodes failed",
			logging.String(logging.FieldSeriesID, liveID.String()),
			logging.Error(err))
		return "", nil
	}
	for _, episode := range linked {
		if err := promoteEpisode(ctx, p.store, p.logger, episode, liveID, now); err != nil {
			if IsStorageFull(err) {
				return episode.ID, err
			}
			p.logger.ErrorContext(ctx, "linked episode promotion failed",
				logging.String(logging.FieldEpisodeID, episode.ID.String()),
				logging.Error(err))
		}
	}

	if p.notifier != nil {
		if err := p.notifier.NotifySeriesReleased(ctx, pending.Title, len(linked)); err != nil {
			p.logger.WarnContext(ctx, "release notification failed", logging.Error(err))
		}
	}
	return "", nil
}
