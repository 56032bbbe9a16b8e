package catalog

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a pending record.
type Status string

const (
	// StatusPending marks a record waiting for its scheduled release.
	StatusPending Status = "pending"
	// StatusReleased is the transient marker set just before a promoted
	// record is deleted. It is only observable in the crash window
	// between the mark and the delete.
	StatusReleased Status = "released"
	// StatusUnknown covers legacy values that predate the enum. Records
	// carrying it are never picked up for promotion.
	StatusUnknown Status = "unknown"
)

// ParseStatus converts a stored string into a known Status. Anything
// unrecognized maps to StatusUnknown rather than failing the read.
func ParseStatus(value string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending
	case StatusReleased:
		return StatusReleased
	default:
		return StatusUnknown
	}
}

// MinEpisodeNumber and MaxEpisodeNumber bound episode numbering within
// a series.
const (
	MinEpisodeNumber = 1
	MaxEpisodeNumber = 100
)

// PendingSeries is a scheduled series owned by the admin upload flow
// until promotion. Promotion copies it into a LiveSeries and deletes it.
type PendingSeries struct {
	ID               ID
	Title            string
	Description      string
	EpisodeCount     int
	FreeEpisodeCount int
	IsFree           bool
	MembersOnly      bool
	SeriesType       string
	Active           bool
	Categories       []string
	Tags             []string
	ImageRef         string
	BannerRef        string
	Rating           float64
	ReleaseAt        time.Time
	Status           Status
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PendingEpisode is a scheduled episode. Exactly one of SeriesID (live
// parent) and PendingSeriesID (still-pending parent) is set at creation;
// promotion of the parent series rewrites PendingSeriesID linkage into
// SeriesID.
type PendingEpisode struct {
	ID              ID
	SeriesID        ID
	PendingSeriesID ID
	EpisodeNumber   int
	Title           string
	VideoRef        string
	ThumbnailRef    string
	CoinCost        int
	ReleaseAt       time.Time
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LiveSeries is a public catalog series.
type LiveSeries struct {
	ID               ID
	Title            string
	Description      string
	EpisodeCount     int
	FreeEpisodeCount int
	IsFree           bool
	MembersOnly      bool
	SeriesType       string
	Active           bool
	Categories       []string
	Tags             []string
	ImageRef         string
	BannerRef        string
	Rating           float64
	ViewCount        int64
	ReleasedAt       time.Time
}

// LiveEpisode is a public catalog episode. (SeriesID, EpisodeNumber) is
// unique unconditionally.
type LiveEpisode struct {
	ID            ID
	SeriesID      ID
	EpisodeNumber int
	Title         string
	VideoRef      string
	ThumbnailRef  string
	CoinCost      int
	ViewCount     int64
	ReleasedAt    time.Time
}

// Transfer is one append-only audit entry mapping a promoted series'
// pending and live identities.
type Transfer struct {
	ID              int64
	PendingSeriesID ID
	LiveSeriesID    ID
	Title           string
	ReleaseAt       time.Time
	TransferredAt   time.Time
}

// Stats aggregates record counts per collection for status output.
type Stats struct {
	PendingSeries   int
	PendingEpisodes int
	LiveSeries      int
	LiveEpisodes    int
	Transfers       int
}
