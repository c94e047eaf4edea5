package pipeline

// Log field names.
const (
	LogFieldSubscriberID = "subscriber_id"
	LogFieldSourceCount  = "source_count"
	LogFieldEventCount   = "event_count"
	LogFieldWindow       = "window"
	LogFieldEventWindow  = "event_window"
	LogFieldGenres       = "genres"
)

// dropReasonMalformed labels a model response that was not a JSON array.
const dropReasonMalformed = "malformed_output"
