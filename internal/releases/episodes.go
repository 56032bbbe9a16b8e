package releases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"slate/internal/catalog"
	"slate/internal/logging"
)

// EpisodePromoter moves due pending episodes into the live catalog.
// It runs after the series promoter so that episodes whose parent
// released in the same tick find a transfer entry to resolve against.
type EpisodePromoter struct {
	store  Store
	logger *slog.Logger
}

// NewEpisodePromoter wires a promoter to the catalog store.
func NewEpisodePromoter(store Store, logger *slog.Logger) *EpisodePromoter {
	return &EpisodePromoter{
		store:  store,
		logger: logging.NewComponentLogger(logger, "episode-promoter"),
	}
}

// PromoteDue promotes every pending episode scheduled at or before now.
// Episodes whose parent series has not released stay pending for a
// later tick. Exhausted storage aborts the batch; any other per-episode
// failure is recorded and the batch continues.
func (p *EpisodePromoter) PromoteDue(ctx context.Context, now time.Time) (EpisodeResult, error) {
	var result EpisodeResult

	due, err := p.store.DuePendingEpisodes(ctx, now)
	if err != nil {
		return result, Wrap(ErrTransient, "episode-promoter", "query due", "", err)
	}

	for _, episode := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if episode.Status != catalog.StatusPending {
			p.logger.WarnContext(ctx, "skipping episode in unexpected state",
				logging.String(logging.FieldEpisodeID, episode.ID.String()),
				logging.String("status", string(episode.Status)))
			continue
		}

		if episode.SeriesID.IsZero() && episode.PendingSeriesID.IsZero() {
			result.Skipped = append(result.Skipped, episode.ID)
			p.logger.WarnContext(ctx, "episode has no parent reference, skipping",
				logging.String(logging.FieldEpisodeID, episode.ID.String()),
				logging.Int(logging.FieldEpisodeNumber, episode.EpisodeNumber))
			continue
		}

		seriesID, resolved, err := p.resolveParent(ctx, episode)
		if err != nil {
			result.Failed = append(result.Failed, Failure{ID: episode.ID, Err: err})
			p.logger.ErrorContext(ctx, "parent resolution failed",
				logging.String(logging.FieldEpisodeID, episode.ID.String()),
				logging.Error(err))
			continue
		}
		if !resolved {
			result.Skipped = append(result.Skipped, episode.ID)
			p.logger.WarnContext(ctx, "episode due but parent series not released, deferring",
				logging.String(logging.FieldEpisodeID, episode.ID.String()),
				logging.String(logging.FieldPendingSeriesID, episode.PendingSeriesID.String()),
				logging.Int(logging.FieldEpisodeNumber, episode.EpisodeNumber))
			continue
		}

		err = promoteEpisode(ctx, p.store, p.logger, episode, seriesID, now)
		if err == nil {
			result.Promoted = append(result.Promoted, episode.ID)
			continue
		}
		if IsStorageFull(err) {
			result.Failed = append(result.Failed, Failure{ID: episode.ID, Err: err})
			p.logger.ErrorContext(ctx, "storage full, aborting release batch",
				logging.String(logging.FieldEpisodeID, episode.ID.String()),
				logging.Error(err))
			return result, Wrap(ErrStorageFull, "episode-promoter", "promote", "batch aborted", err)
		}
		result.Failed = append(result.Failed, Failure{ID: episode.ID, Err: err})
		p.logger.ErrorContext(ctx, "episode promotion failed",
			logging.String(logging.FieldEpisodeID, episode.ID.String()),
			logging.Error(err))
	}
	return result, nil
}

// resolveParent determines the live series an episode belongs to. A
// dangling pending-series reference is looked up in the transfer log
// and, when found, persisted back so later ticks skip the lookup.
func (p *EpisodePromoter) resolveParent(ctx context.Context, episode *catalog.PendingEpisode) (catalog.ID, bool, error) {
	if !episode.SeriesID.IsZero() {
		return episode.SeriesID, true, nil
	}

	transfer, err := p.store.TransferForPendingSeries(ctx, episode.PendingSeriesID)
	if err != nil {
		return "", false, fmt.Errorf("transfer lookup: %w", err)
	}
	if transfer == nil {
		return "", false, nil
	}
	if err := p.store.SetPendingEpisodeParent(ctx, episode.ID, transfer.LiveSeriesID); err != nil {
		return "", false, fmt.Errorf("persist resolved parent: %w", err)
	}
	episode.SeriesID = transfer.LiveSeriesID
	episode.PendingSeriesID = ""
	return transfer.LiveSeriesID, true, nil
}

// promoteEpisode copies one pending episode into the live catalog and
// removes the pending record. A live episode already occupying the
// (series, number) slot means an earlier run finished the copy but
// crashed before cleanup, so the pending record is removed without a
// second insert.
func promoteEpisode(ctx context.Context, store Store, logger *slog.Logger, episode *catalog.PendingEpisode, seriesID catalog.ID, now time.Time) error {
	exists, err := store.LiveEpisodeExists(ctx, seriesID, episode.EpisodeNumber)
	if err != nil {
		return fmt.Errorf("check existing episode: %w", err)
	}

	if !exists {
		live := &catalog.LiveEpisode{
			ID:            catalog.NewID(),
			SeriesID:      seriesID,
			EpisodeNumber: episode.EpisodeNumber,
			Title:         episode.Title,
			VideoRef:      episode.VideoRef,
			ThumbnailRef:  episode.ThumbnailRef,
			CoinCost:      episode.CoinCost,
			ViewCount:     0,
			ReleasedAt:    now,
		}
		if err := store.InsertLiveEpisode(ctx, live); err != nil {
			// A unique violation means another pass won the race; the
			// cleanup below still applies.
			if !isUniqueViolation(err) {
				return fmt.Errorf("insert live episode: %w", err)
			}
			exists = true
		}
	}

	if exists {
		logger.InfoContext(ctx, "live episode already present, cleaning up pending record",
			logging.String(logging.FieldEpisodeID, episode.ID.String()),
			logging.String(logging.FieldSeriesID, seriesID.String()),
			logging.Int(logging.FieldEpisodeNumber, episode.EpisodeNumber))
	}

	if err := store.MarkPendingEpisodeReleased(ctx, episode.ID); err != nil {
		return fmt.Errorf("mark released: %w", err)
	}
	if _, err := store.DeletePendingEpisode(ctx, episode.ID); err != nil {
		return fmt.Errorf("delete pending episode: %w", err)
	}

	logger.InfoContext(ctx, "episode released",
		logging.String(logging.FieldEpisodeID, episode.ID.String()),
		logging.String(logging.FieldSeriesID, seriesID.String()),
		logging.Int(logging.FieldEpisodeNumber, episode.EpisodeNumber))
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed")
}
