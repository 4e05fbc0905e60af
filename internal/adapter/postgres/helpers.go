package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Strob0t/TenantForge/internal/domain"
	"github.com/Strob0t/TenantForge/internal/domain/document"
)

// SQLSTATE codes the store maps to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	// jsonb input rejected by the server.
	pgInvalidTextRepresentation = "22P02"
	pgCharacterNotInRepertoire  = "22021"
	pgUntranslatableCharacter   = "22P05"
)

// scannable abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scannable interface {
	Scan(dest ...any) error
}

// orEmpty returns items unchanged if non-nil, or an empty slice if nil.
// Useful to ensure JSON serialization produces [] instead of null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// pgCode returns the SQLSTATE of err, or "" when err is not a server error.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool     { return pgCode(err) == pgUniqueViolation }
func isForeignKeyViolation(err error) bool { return pgCode(err) == pgForeignKeyViolation }
func isCheckViolation(err error) bool      { return pgCode(err) == pgCheckViolation }

// isInvalidText reports whether the server refused a text or jsonb value,
// e.g. a NUL escape or bytes that are not valid UTF-8.
func isInvalidText(err error) bool {
	switch pgCode(err) {
	case pgInvalidTextRepresentation, pgCharacterNotInRepertoire, pgUntranslatableCharacter:
		return true
	}
	return false
}

// dataError maps server-side rejections of document data onto validation
// errors. It returns nil for any other error.
func dataError(err error) error {
	switch {
	case isInvalidText(err):
		return domain.Validationf("data", document.MessageInvalidText)
	case isCheckViolation(err):
		return domain.Validationf("data", "Request body must be a valid JSON object")
	}
	return nil
}

// notFoundWrap checks whether err is pgx.ErrNoRows and, if so, wraps
// notFound with the given message. Otherwise it wraps the original error.
func notFoundWrap(err, notFound error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", msg, notFound)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// execExpectOne verifies that an Exec affected at least one row. If not
// (and err is nil), it returns notFound with the given message.
func execExpectOne(tag pgconn.CommandTag, err, notFound error, format string, args ...any) error {
	if err != nil {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf(fmt.Sprintf(format, args...)+": %w", notFound)
	}
	return nil
}

