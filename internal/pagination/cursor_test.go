package pagination

import (
	"errors"
	"testing"
	"time"

	"authcore/backend/internal/autherr"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2025, 6, 1, 12, 30, 0, 123456789, time.UTC), ID: "01JWS0A9V2Z3"}
	got, err := Decode(c.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) || got.ID != c.ID {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, c)
	}
}

func TestZeroCursor(t *testing.T) {
	if (Cursor{}).Encode() != "" {
		t.Error("zero cursor should encode to empty string")
	}
	got, err := Decode("")
	if err != nil {
		t.Fatalf("Decode(\"\"): %v", err)
	}
	if !got.IsZero() {
		t.Errorf("empty string should decode to zero cursor, got %+v", got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, s := range []string{"not-base64!!!", "bm9jb2xvbg", "MTIzOg", "YWJjOnh5eg==extra"} {
		if _, err := Decode(s); !errors.Is(err, autherr.ErrMalformed) {
			t.Errorf("Decode(%q): want ErrMalformed, got %v", s, err)
		}
	}
}

func TestClampPageSize(t *testing.T) {
	cases := []struct{ requested, max, want int }{
		{0, 50, 50},
		{-3, 50, 50},
		{10, 50, 10},
		{500, 50, 50},
		{50, 50, 50},
		{5, 0, 1},
	}
	for _, tc := range cases {
		if got := ClampPageSize(tc.requested, tc.max); got != tc.want {
			t.Errorf("ClampPageSize(%d, %d) = %d, want %d", tc.requested, tc.max, got, tc.want)
		}
	}
}
