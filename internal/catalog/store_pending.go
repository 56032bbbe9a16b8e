package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// InsertPendingSeries validates and persists a new scheduled series.
// A zero ID is assigned; status defaults to pending.
func (s *Store) InsertPendingSeries(ctx context.Context, series *PendingSeries) error {
	if series == nil {
		return errors.New("series is nil")
	}
	if err := validatePendingSeries(series); err != nil {
		return err
	}
	if series.ID.IsZero() {
		series.ID = NewID()
	}
	if series.Status == "" {
		series.Status = StatusPending
	}

	now := time.Now().UTC()
	series.CreatedAt = now
	series.UpdatedAt = now

	categories, err := marshalStrings(series.Categories)
	if err != nil {
		return err
	}
	tags, err := marshalStrings(series.Tags)
	if err != nil {
		return err
	}

	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO pending_series (
            id, title, description, episode_count, free_episode_count,
            is_free, members_only, series_type, active, categories_json,
            tags_json, image_ref, banner_ref, rating, release_at, status,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		series.ID.String(),
		series.Title,
		series.Description,
		series.EpisodeCount,
		series.FreeEpisodeCount,
		boolToInt(series.IsFree),
		boolToInt(series.MembersOnly),
		series.SeriesType,
		boolToInt(series.Active),
		categories,
		tags,
		series.ImageRef,
		series.BannerRef,
		series.Rating,
		formatTime(series.ReleaseAt),
		string(series.Status),
		formatTime(series.CreatedAt),
		formatTime(series.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert pending series: %w", err)
	}
	return nil
}

func validatePendingSeries(series *PendingSeries) error {
	if strings.TrimSpace(series.Title) == "" {
		return errors.New("pending series requires a title")
	}
	if len(series.Categories) == 0 {
		return errors.New("pending series requires at least one category")
	}
	if series.Rating < 0 || series.Rating > 10 {
		return fmt.Errorf("pending series rating %.1f outside [0,10]", series.Rating)
	}
	if series.ReleaseAt.IsZero() {
		return errors.New("pending series requires a scheduled release time")
	}
	return nil
}

// ValidateNewSchedule enforces the admin-flow rule that freshly created
// records must be scheduled in the future. The promoter itself never
// calls this; records already in the store may legitimately be past due.
func ValidateNewSchedule(releaseAt, now time.Time) error {
	if !releaseAt.After(now) {
		return errors.New("scheduled release time must be in the future")
	}
	return nil
}

// GetPendingSeries fetches one scheduled series, or nil when absent.
func (s *Store) GetPendingSeries(ctx context.Context, id ID) (*PendingSeries, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pendingSeriesColumns+` FROM pending_series WHERE id = ?`, id.String())
	series, err := scanPendingSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending series: %w", err)
	}
	return series, nil
}

// DuePendingSeries returns pending series whose release time is at or
// before now, ordered by release time.
func (s *Store) DuePendingSeries(ctx context.Context, now time.Time) ([]*PendingSeries, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+pendingSeriesColumns+` FROM pending_series
         WHERE status = ? AND release_at <= ?
         ORDER BY release_at, created_at`,
		string(StatusPending),
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("query due pending series: %w", err)
	}
	defer rows.Close()

	var due []*PendingSeries
	for rows.Next() {
		series, err := scanPendingSeries(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, series)
	}
	return due, rows.Err()
}

// ListPendingSeries returns every scheduled series ordered by release time.
func (s *Store) ListPendingSeries(ctx context.Context) ([]*PendingSeries, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pendingSeriesColumns+` FROM pending_series ORDER BY release_at, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list pending series: %w", err)
	}
	defer rows.Close()

	var all []*PendingSeries
	for rows.Next() {
		series, err := scanPendingSeries(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, series)
	}
	return all, rows.Err()
}

// MarkPendingSeriesReleased flips a scheduled series to the transient
// released state just before deletion.
func (s *Store) MarkPendingSeriesReleased(ctx context.Context, id ID) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE pending_series SET status = ?, updated_at = ? WHERE id = ?`,
		string(StatusReleased),
		formatTime(time.Now()),
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("mark pending series released: %w", err)
	}
	return nil
}

// DeletePendingSeries removes a scheduled series by identifier.
func (s *Store) DeletePendingSeries(ctx context.Context, id ID) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM pending_series WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("delete pending series: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// InsertPendingEpisode validates and persists a new scheduled episode.
func (s *Store) InsertPendingEpisode(ctx context.Context, episode *PendingEpisode) error {
	if episode == nil {
		return errors.New("episode is nil")
	}
	if err := validatePendingEpisode(episode); err != nil {
		return err
	}
	if episode.ID.IsZero() {
		episode.ID = NewID()
	}
	if episode.Status == "" {
		episode.Status = StatusPending
	}

	now := time.Now().UTC()
	episode.CreatedAt = now
	episode.UpdatedAt = now

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO pending_episodes (
            id, series_id, pending_series_id, episode_number, title,
            video_ref, thumbnail_ref, coin_cost, release_at, status,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episode.ID.String(),
		nullableString(episode.SeriesID.String()),
		nullableString(episode.PendingSeriesID.String()),
		episode.EpisodeNumber,
		episode.Title,
		episode.VideoRef,
		nullableString(episode.ThumbnailRef),
		episode.CoinCost,
		formatTime(episode.ReleaseAt),
		string(episode.Status),
		formatTime(episode.CreatedAt),
		formatTime(episode.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert pending episode: %w", err)
	}
	return nil
}

func validatePendingEpisode(episode *PendingEpisode) error {
	if episode.EpisodeNumber < MinEpisodeNumber || episode.EpisodeNumber > MaxEpisodeNumber {
		return fmt.Errorf("episode number %d outside [%d,%d]", episode.EpisodeNumber, MinEpisodeNumber, MaxEpisodeNumber)
	}
	if strings.TrimSpace(episode.VideoRef) == "" {
		return errors.New("pending episode requires a video reference")
	}
	if episode.SeriesID.IsZero() == episode.PendingSeriesID.IsZero() {
		return errors.New("pending episode requires exactly one parent reference")
	}
	if episode.ReleaseAt.IsZero() {
		return errors.New("pending episode requires a scheduled release time")
	}
	return nil
}

// GetPendingEpisode fetches one scheduled episode, or nil when absent.
func (s *Store) GetPendingEpisode(ctx context.Context, id ID) (*PendingEpisode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pendingEpisodeColumns+` FROM pending_episodes WHERE id = ?`, id.String())
	episode, err := scanPendingEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending episode: %w", err)
	}
	return episode, nil
}

// DuePendingEpisodes returns pending episodes whose release time is at
// or before now, ordered by release time.
func (s *Store) DuePendingEpisodes(ctx context.Context, now time.Time) ([]*PendingEpisode, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+pendingEpisodeColumns+` FROM pending_episodes
         WHERE status = ? AND release_at <= ?
         ORDER BY release_at, episode_number`,
		string(StatusPending),
		formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("query due pending episodes: %w", err)
	}
	defer rows.Close()

	var due []*PendingEpisode
	for rows.Next() {
		episode, err := scanPendingEpisode(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, episode)
	}
	return due, rows.Err()
}

// PendingEpisodesForLiveSeries returns pending episodes linked to a live
// series, regardless of their own release schedule.
func (s *Store) PendingEpisodesForLiveSeries(ctx context.Context, seriesID ID) ([]*PendingEpisode, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+pendingEpisodeColumns+` FROM pending_episodes
         WHERE status = ? AND series_id = ?
         ORDER BY episode_number`,
		string(StatusPending),
		seriesID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query linked pending episodes: %w", err)
	}
	defer rows.Close()

	var linked []*PendingEpisode
	for rows.Next() {
		episode, err := scanPendingEpisode(rows)
		if err != nil {
			return nil, err
		}
		linked = append(linked, episode)
	}
	return linked, rows.Err()
}

// ListPendingEpisodes returns every scheduled episode ordered by release time.
func (s *Store) ListPendingEpisodes(ctx context.Context) ([]*PendingEpisode, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pendingEpisodeColumns+` FROM pending_episodes ORDER BY release_at, episode_number`)
	if err != nil {
		return nil, fmt.Errorf("list pending episodes: %w", err)
	}
	defer rows.Close()

	var all []*PendingEpisode
	for rows.Next() {
		episode, err := scanPendingEpisode(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, episode)
	}
	return all, rows.Err()
}

// RelinkPendingEpisodes points every episode waiting on a pending series
// at its newly created live counterpart. The episodes stay pending; only
// the dangling parent reference is resolved.
func (s *Store) RelinkPendingEpisodes(ctx context.Context, pendingSeriesID, liveSeriesID ID) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE pending_episodes
         SET series_id = ?, updated_at = ?
         WHERE pending_series_id = ?`,
		liveSeriesID.String(),
		formatTime(time.Now()),
		pendingSeriesID.String(),
	)
	if err != nil {
		return 0, fmt.Errorf("relink pending episodes: %w", err)
	}
	return res.RowsAffected()
}

// SetPendingEpisodeParent persists a resolved live-series reference so
// later ticks skip the transfer-log lookup.
func (s *Store) SetPendingEpisodeParent(ctx context.Context, id, liveSeriesID ID) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE pending_episodes SET series_id = ?, updated_at = ? WHERE id = ?`,
		liveSeriesID.String(),
		formatTime(time.Now()),
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("set pending episode parent: %w", err)
	}
	return nil
}

// MarkPendingEpisodeReleased flips a scheduled episode to the transient
// released state just before deletion.
func (s *Store) MarkPendingEpisodeReleased(ctx context.Context, id ID) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE pending_episodes SET status = ?, updated_at = ? WHERE id = ?`,
		string(StatusReleased),
		formatTime(time.Now()),
		id.String(),
	)
	if err != nil {
		return fmt.Errorf("mark pending episode released: %w", err)
	}
	return nil
}

// DeletePendingEpisode removes a scheduled episode by identifier.
func (s *Store) DeletePendingEpisode(ctx context.Context, id ID) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM pending_episodes WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("delete pending episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

const pendingSeriesColumns = "id, title, description, episode_count, free_episode_count, is_free, members_only, series_type, active, categories_json, tags_json, image_ref, banner_ref, rating, release_at, status, created_at, updated_at"

func scanPendingSeries(scanner interface{ Scan(dest ...any) error }) (*PendingSeries, error) {
	var (
		id            string
		title         string
		description   string
		episodeCount  int
		freeEpisodes  int
		isFree        int
		membersOnly   int
		seriesType    string
		active        int
		categoriesRaw string
		tagsRaw       string
		imageRef      string
		bannerRef     string
		rating        float64
		releaseRaw    string
		statusRaw     string
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&id, &title, &description, &episodeCount, &freeEpisodes,
		&isFree, &membersOnly, &seriesType, &active, &categoriesRaw,
		&tagsRaw, &imageRef, &bannerRef, &rating, &releaseRaw,
		&statusRaw, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	series := &PendingSeries{
		ID:               ID(id),
		Title:            title,
		Description:      description,
		EpisodeCount:     episodeCount,
		FreeEpisodeCount: freeEpisodes,
		IsFree:           isFree != 0,
		MembersOnly:      membersOnly != 0,
		SeriesType:       seriesType,
		Active:           active != 0,
		Categories:       unmarshalStrings(categoriesRaw),
		Tags:             unmarshalStrings(tagsRaw),
		ImageRef:         imageRef,
		BannerRef:        bannerRef,
		Rating:           rating,
		Status:           ParseStatus(statusRaw),
	}
	if release, err := parseTimeString(releaseRaw); err == nil {
		series.ReleaseAt = release
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		series.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		series.UpdatedAt = updated
	}
	return series, nil
}

const pendingEpisodeColumns = "id, series_id, pending_series_id, episode_number, title, video_ref, thumbnail_ref, coin_cost, release_at, status, created_at, updated_at"

func scanPendingEpisode(scanner interface{ Scan(dest ...any) error }) (*PendingEpisode, error) {
	var (
		id            string
		seriesID      sql.NullString
		pendingSeries sql.NullString
		number        int
		title         string
		videoRef      string
		thumbnailRef  sql.NullString
		coinCost      int
		releaseRaw    string
		statusRaw     string
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&id, &seriesID, &pendingSeries, &number, &title,
		&videoRef, &thumbnailRef, &coinCost, &releaseRaw, &statusRaw,
		&createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	episode := &PendingEpisode{
		ID:              ID(id),
		SeriesID:        ID(seriesID.String),
		PendingSeriesID: ID(pendingSeries.String),
		EpisodeNumber:   number,
		Title:           title,
		VideoRef:        videoRef,
		ThumbnailRef:    thumbnailRef.String,
		CoinCost:        coinCost,
		Status:          ParseStatus(statusRaw),
	}
	if release, err := parseTimeString(releaseRaw); err == nil {
		episode.ReleaseAt = release
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		episode.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		episode.UpdatedAt = updated
	}
	return episode, nil
}
