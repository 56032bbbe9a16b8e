package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// InsertLiveSeries persists a newly promoted series.
func (s *Store) InsertLiveSeries(ctx context.Context, series *LiveSeries) error {
	if series == nil {
		return errors.New("series is nil")
	}
	if series.ID.IsZero() {
		return errors.New("live series requires an id")
	}
	if strings.TrimSpace(series.Title) == "" {
		return errors.New("live series requires a title")
	}

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
		`INSERT INTO live_series (
            id, title, description, episode_count, free_episode_count,
            is_free, members_only, series_type, active, categories_json,
            tags_json, image_ref, banner_ref, rating, view_count, released_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
		series.ViewCount,
		formatTime(series.ReleasedAt),
	)
	if err != nil {
		return fmt.Errorf("insert live series: %w", err)
	}
	return nil
}

// GetLiveSeries fetches one live series, or nil when absent.
func (s *Store) GetLiveSeries(ctx context.Context, id ID) (*LiveSeries, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+liveSeriesColumns+` FROM live_series WHERE id = ?`, id.String())
	series, err := scanLiveSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get live series: %w", err)
	}
	return series, nil
}

// ListLiveSeries returns the live catalog ordered by release time.
func (s *Store) ListLiveSeries(ctx context.Context) ([]*LiveSeries, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+liveSeriesColumns+` FROM live_series ORDER BY released_at, title`)
	if err != nil {
		return nil, fmt.Errorf("list live series: %w", err)
	}
	defer rows.Close()

	var all []*LiveSeries
	for rows.Next() {
		series, err := scanLiveSeries(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, series)
	}
	return all, rows.Err()
}

// InsertLiveEpisode persists a newly promoted episode. The unique
// (series_id, episode_number) index rejects duplicates.
func (s *Store) InsertLiveEpisode(ctx context.Context, episode *LiveEpisode) error {
	if episode == nil {
		return errors.New("episode is nil")
	}
	if episode.ID.IsZero() {
		return errors.New("live episode requires an id")
	}
	if episode.SeriesID.IsZero() {
		return errors.New("live episode requires a series reference")
	}
	if episode.EpisodeNumber < MinEpisodeNumber || episode.EpisodeNumber > MaxEpisodeNumber {
		return fmt.Errorf("episode number %d outside [%d,%d]", episode.EpisodeNumber, MinEpisodeNumber, MaxEpisodeNumber)
	}

	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO live_episodes (
            id, series_id, episode_number, title, video_ref,
            thumbnail_ref, coin_cost, view_count, released_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episode.ID.String(),
		episode.SeriesID.String(),
		episode.EpisodeNumber,
		episode.Title,
		episode.VideoRef,
		nullableString(episode.ThumbnailRef),
		episode.CoinCost,
		episode.ViewCount,
		formatTime(episode.ReleasedAt),
	)
	if err != nil {
		return fmt.Errorf("insert live episode: %w", err)
	}
	return nil
}

// LiveEpisodeExists reports whether an episode already occupies the
// (series, number) slot in the live catalog.
func (s *Store) LiveEpisodeExists(ctx context.Context, seriesID ID, episodeNumber int) (bool, error) {
	var count int
	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM live_episodes WHERE series_id = ? AND episode_number = ?`,
		seriesID.String(),
		episodeNumber,
	)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check live episode: %w", err)
	}
	return count > 0, nil
}

// ListLiveEpisodes returns a live series' episodes in number order.
func (s *Store) ListLiveEpisodes(ctx context.Context, seriesID ID) ([]*LiveEpisode, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+liveEpisodeColumns+` FROM live_episodes WHERE series_id = ? ORDER BY episode_number`,
		seriesID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list live episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*LiveEpisode
	for rows.Next() {
		episode, err := scanLiveEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, episode)
	}
	return episodes, rows.Err()
}

const liveSeriesColumns = "id, title, description, episode_count, free_episode_count, is_free, members_only, series_type, active, categories_json, tags_json, image_ref, banner_ref, rating, view_count, released_at"

func scanLiveSeries(scanner interface{ Scan(dest ...any) error }) (*LiveSeries, error) {
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
		viewCount     int64
		releasedRaw   string
	)

	if err := scanner.Scan(
		&id, &title, &description, &episodeCount, &freeEpisodes,
		&isFree, &membersOnly, &seriesType, &active, &categoriesRaw,
		&tagsRaw, &imageRef, &bannerRef, &rating, &viewCount, &releasedRaw,
	); err != nil {
		return nil, err
	}

	series := &LiveSeries{
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
		ViewCount:        viewCount,
	}
	if released, err := parseTimeString(releasedRaw); err == nil {
		series.ReleasedAt = released
	}
	return series, nil
}

const liveEpisodeColumns = "id, series_id, episode_number, title, video_ref, thumbnail_ref, coin_cost, view_count, released_at"

func scanLiveEpisode(scanner interface{ Scan(dest ...any) error }) (*LiveEpisode, error) {
	var (
		id           string
		seriesID     string
		number       int
		title        string
		videoRef     string
		thumbnailRef sql.NullString
		coinCost     int
		viewCount    int64
		releasedRaw  string
	)

	if err := scanner.Scan(
		&id, &seriesID, &number, &title, &videoRef,
		&thumbnailRef, &coinCost, &viewCount, &releasedRaw,
	); err != nil {
		return nil, err
	}

	episode := &LiveEpisode{
		ID:            ID(id),
		SeriesID:      ID(seriesID),
		EpisodeNumber: number,
		Title:         title,
		VideoRef:      videoRef,
		ThumbnailRef:  thumbnailRef.String,
		CoinCost:      coinCost,
		ViewCount:     viewCount,
	}
	if released, err := parseTimeString(releasedRaw); err == nil {
		episode.ReleasedAt = released
	}
	return episode, nil
}
