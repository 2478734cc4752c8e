// Package pagination implements (timestamp, id) cursor pagination shared by
// the session and login-history read paths. A cursor names the last row of
// the previous page; the next page selects rows strictly before it in
// descending (created_at, id) order, with the id breaking timestamp ties.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"authcore/backend/internal/autherr"
)

// Cursor identifies the last row of a page.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// IsZero reports whether the cursor is unset (first page).
func (c Cursor) IsZero() bool {
	return c.ID == "" && c.CreatedAt.IsZero()
}

// Encode serializes the cursor as URL-safe base64 of "unixnano:id".
// A zero cursor encodes as the empty string.
func (c Cursor) Encode() string {
	if c.IsZero() {
		return ""
	}
	raw := fmt.Sprintf("%d:%s", c.CreatedAt.UnixNano(), c.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses an encoded cursor. The empty string decodes to the zero
// cursor. Anything unparsable fails with autherr.ErrMalformed.
func Decode(s string) (Cursor, error) {
	if s == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: cursor", autherr.ErrMalformed)
	}
	ts, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return Cursor{}, fmt.Errorf("%w: cursor", autherr.ErrMalformed)
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: cursor", autherr.ErrMalformed)
	}
	return Cursor{CreatedAt: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// ClampPageSize bounds a requested page size to [1, max]. Non-positive
// requests fall back to max so an unset size never causes an unbounded scan.
func ClampPageSize(requested, max int) int {
	if max <= 0 {
		max = 1
	}
	if requested <= 0 || requested > max {
		return max
	}
	return requested
}
