package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate into domain-level outcomes.
const (
	uniqueViolationCode = "23505"
	invalidTextReprCode = "22P02"
)

// IsNotFound reports whether err means "no such row" for a scoped lookup.
// A malformed id rejected by Postgres before the query runs (invalid uuid
// text, SQLSTATE 22P02) counts as well: it can never name an existing row,
// and callers must not be able to tell the two apart.
func IsNotFound(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextReprCode
}
