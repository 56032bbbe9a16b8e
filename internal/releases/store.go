package releases

import (
	"context"
	"time"

	"slate/internal/catalog"
)

// Store is the catalog surface the promoters depend on. *catalog.Store
// satisfies it; tests substitute wrappers that inject failures.
type Store interface {
	DuePendingSeries(ctx context.Context, now time.Time) ([]*catalog.PendingSeries, error)
	DuePendingEpisodes(ctx context.Context, now time.Time) ([]*catalog.PendingEpisode, error)
	PendingEpisodesForLiveSeries(ctx context.Context, seriesID catalog.ID) ([]*catalog.PendingEpisode, error)

	InsertLiveSeries(ctx context.Context, series *catalog.LiveSeries) error
	InsertLiveEpisode(ctx context.Context, episode *catalog.LiveEpisode) error
	LiveEpisodeExists(ctx context.Context, seriesID catalog.ID, episodeNumber int) (bool, error)

	AppendTransfer(ctx context.Context, transfer *catalog.Transfer) error
	TransferForPendingSeries(ctx context.Context, pendingSeriesID catalog.ID) (*catalog.Transfer, error)

	RelinkPendingEpisodes(ctx context.Context, pendingSeriesID, liveSeriesID catalog.ID) (int64, error)
	SetPendingEpisodeParent(ctx context.Context, id, liveSeriesID catalog.ID) error

	MarkPendingSeriesReleased(ctx context.Context, id catalog.ID) error
	DeletePendingSeries(ctx context.Context, id catalog.ID) (bool, error)
	MarkPendingEpisodeReleased(ctx context.Context, id catalog.ID) error
	DeletePendingEpisode(ctx context.Context, id catalog.ID) (bool, error)
}
