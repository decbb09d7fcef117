package models

// TokenInfo is what an API token resolves to.
type TokenInfo struct {
	Token         string
	Target        string
	Organization  string
	Project       string
	RetentionDays int
}

const millisPerDay = int64(24 * 60 * 60 * 1000)

// ExpiresAt returns the expiry for a record observed at timestampMs, or 0 when no retention is set.
func (t TokenInfo) ExpiresAt(timestampMs int64) int64 {
	if t.RetentionDays <= 0 {
		return 0
	}
	return timestampMs + int64(t.RetentionDays)*millisPerDay
}
