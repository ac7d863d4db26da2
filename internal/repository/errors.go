package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means the addressed company (or rating entry) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAgentNotFound means the company exists but the agent is not in its roster.
	ErrAgentNotFound = errors.New("agent not found in roster")
	// ErrUnavailable wraps datastore failures that happened before the
	// statement reached the server, so retrying cannot apply a write twice.
	ErrUnavailable = errors.New("datastore unavailable")
)

// DuplicateError reports a uniqueness violation on Field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s", e.Field)
}

// IsDuplicate extracts the violated field from err.
func IsDuplicate(err error) (string, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Field, true
	}
	return "", false
}

const pgUniqueViolation = "23505"

// uniqueFields maps index names from migrations to client-facing field names.
var uniqueFields = map[string]string{
	"companies_name_key":         "companyName",
	"companies_email_key":        "email",
	"rating_entries_rater_ratee": "raterId,rateeId",
}

// classify translates pgx errors into repository sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			field, ok := uniqueFields[pgErr.ConstraintName]
			if !ok {
				field = pgErr.ConstraintName
			}
			return &DuplicateError{Field: field}
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
