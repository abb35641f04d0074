package auth

// Store attribute names used in update maps. Constants prevent silent
// runtime bugs caused by key typos.
const (
	fieldUsed      = "used"
	fieldUsedAt    = "used_at"
	fieldAttempts  = "attempts"
	fieldLastLogin = "last_login"
)
