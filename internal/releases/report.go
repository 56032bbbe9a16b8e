package releases

import "slate/internal/catalog"

// Failure pairs a record with the error that stopped its promotion.
type Failure struct {
	ID  catalog.ID
	Err error
}

// SeriesResult summarizes one series promotion pass.
type SeriesResult struct {
	Promoted []catalog.ID
	Failed   []Failure
}

// EpisodeResult summarizes one episode promotion pass. Skipped counts
// episodes left pending because their parent series has not released.
type EpisodeResult struct {
	Promoted []catalog.ID
	Skipped  []catalog.ID
	Failed   []Failure
}
