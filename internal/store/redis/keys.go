package redis

const (
	// KeyShiftMap holds the last successfully fetched shift map (JSON).
	KeyShiftMap = "rosterwatch:shifts:map"
	// KeyShiftFetchedAt holds its fetch timestamp (RFC3339Nano).
	KeyShiftFetchedAt = "rosterwatch:shifts:fetched_at"
)
