package domain

import "time"

// Login is one successful credential verification. History rows are
// append-only and pruned only by retention.
type Login struct {
	ID      string // ULID
	UserID  string
	LoginIP string
	LoginAt time.Time
}
