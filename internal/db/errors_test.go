package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsWriteConflict(t *testing.T) {
	for _, code := range []string{"40001", "40P01"} {
		err := fmt.Errorf("exec: %w", &pgconn.PgError{Code: code})
		if !IsWriteConflict(err) {
			t.Errorf("code %s should be a write conflict", code)
		}
	}
	if IsWriteConflict(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation is not a write conflict")
	}
	if IsWriteConflict(errors.New("plain")) {
		t.Error("plain error is not a write conflict")
	}
	if IsWriteConflict(nil) {
		t.Error("nil is not a write conflict")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})) {
		t.Error("23505 should be a unique violation")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "40001"}) {
		t.Error("serialization failure is not a unique violation")
	}
	if IsUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}
