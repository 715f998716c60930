package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsDuplicateKeyError(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_patients_phone_live"})

	if !isDuplicateKeyError(err, "phone") {
		t.Error("expected phone unique violation to match")
	}
	if isDuplicateKeyError(err, "email") {
		t.Error("constraint name should be checked")
	}
	if isForeignKeyError(err, "phone") {
		t.Error("unique violation is not a foreign key error")
	}
	if isDuplicateKeyError(errors.New("23505 phone"), "phone") {
		t.Error("plain errors must not match")
	}
}

func TestIsForeignKeyError(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", ConstraintName: "fk_visits_patient"}
	if !isForeignKeyError(err, "patient") {
		t.Error("expected patient foreign key violation to match")
	}
	if isForeignKeyError(err, "doctor") {
		t.Error("constraint name should be checked")
	}
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"ali":     "%ali%",
		"50%":     `%50\%%`,
		"a_b":     `%a\_b%`,
		`back\sl`: `%back\\sl%`,
	}
	for in, want := range tests {
		if got := likePattern(in); got != want {
			t.Errorf("likePattern(%q) = %q, want %q", in, got, want)
		}
	}
}
