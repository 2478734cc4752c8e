package repository

import "testing"

func TestNullIfEmpty(t *testing.T) {
	if v := nullIfEmpty(""); v.Valid {
		t.Fatal("empty ip must map to NULL")
	}
	if v := nullIfEmpty("203.0.113.7"); !v.Valid || v.String != "203.0.113.7" {
		t.Fatalf("got %+v, want valid 203.0.113.7", v)
	}
}
