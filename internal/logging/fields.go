package logging

// Shared attribute keys so log lines stay greppable across components.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"

	FieldSeriesID        = "series_id"
	FieldEpisodeID       = "episode_id"
	FieldPendingSeriesID = "pending_series_id"
	FieldEpisodeNumber   = "episode_number"
	FieldTickID          = "tick_id"
)
