package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by lookups when no row matches; callers must be
// able to tell it apart from infrastructure failures.
var ErrNotFound = errors.New("not found")

// IsUniqueViolation reports whether err is a Postgres unique-index
// violation, e.g. the partial natural-key index on appointments.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
