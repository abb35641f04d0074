package progress

// Store attribute names used in update maps. Constants prevent silent
// runtime bugs caused by key typos.
const (
	fieldCompleted        = "completed"
	fieldCompletedAt      = "completed_at"
	fieldWatchTimeSeconds = "watch_time_seconds"
)
