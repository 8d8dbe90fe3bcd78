package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a single-record lookup matches nothing.
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is returned when a write violates a unique or foreign key constraint.
	ErrConflict = errors.New("store: conflicting record")
	// ErrTransactionAborted is returned when a unit of work could not be committed.
	ErrTransactionAborted = errors.New("store: transaction aborted")
	// ErrScopeBusy is returned when a per-operation scope is entered while a transaction is still open.
	ErrScopeBusy = errors.New("store: transaction already active in per-operation mode")
	// ErrUnknownRelation is returned for eager-load names the schema does not declare.
	ErrUnknownRelation = errors.New("store: unknown relation")
	// ErrScopeReleased is returned when a released scope is used again.
	ErrScopeReleased = errors.New("store: scope released")
)

// postgres error classes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps driver errors onto the package's error taxonomy.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation:
			return errors.Join(ErrConflict, err)
		}
	}
	return err
}
