// Package ids provides time-ordered row identifiers. Creation order is
// recoverable from the id alone, which lets cursor pagination break
// timestamp ties without a separate sequence.
package ids

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces unique, time-ordered identifiers. It is injected into
// the lifecycle engines rather than accessed as ambient state.
type Generator interface {
	NewID(now time.Time) (string, error)
}

// ULID generates ULID strings (26 chars, lexicographically sortable) from
// crypto/rand entropy.
type ULID struct{}

// NewULID returns a ULID Generator.
func NewULID() ULID { return ULID{} }

// NewID returns a new ULID string stamped with now.
func (ULID) NewID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
