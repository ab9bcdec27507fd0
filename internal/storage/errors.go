package storage

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// Specific errors for storage operations
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUsernameExists       = errors.New("username already registered")
	ErrEmailExists          = errors.New("email already registered")
	ErrDiagramNotFound      = errors.New("diagram not found")
	ErrCollaboratorNotFound = errors.New("collaborator not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationPending    = errors.New("an invitation for this email is already pending")
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// uniqueViolation reports whether err is a unique constraint failure and
// returns the offending constraint: "users.email" style column lists for
// SQLite, the constraint name for PostgreSQL. Offending values are never included.
func uniqueViolation(err error) (string, bool) {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return strings.TrimPrefix(sqliteErr.Error(), "UNIQUE constraint failed: "), true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// isEmailConstraint matches the unique constraint on users.email for both dialects.
func isEmailConstraint(constraint string) bool {
	return constraint == "users.email" || constraint == "users_email_key"
}

func foreignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// NormalizeEmail lowercases and trims an address so lookups match
// regardless of how the user typed it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
