// internal/storage/user_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Annany2002/schema-designer-backend/internal/domain"
)

const userColumns = `id, username, email, hashed_password, is_active, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsActive, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a new user. Duplicate usernames and emails map to
// ErrUsernameExists and ErrEmailExists.
func CreateUser(ctx context.Context, db DBTX, username, email, passwordHash string) (*domain.User, error) {
	sqlStatement := `INSERT INTO users (username, email, hashed_password, is_active) VALUES ($1, $2, $3, $4) RETURNING id`
	var userID int64
	err := db.QueryRowContext(ctx, sqlStatement, strings.TrimSpace(username), NormalizeEmail(email), passwordHash, true).Scan(&userID)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if isEmailConstraint(constraint) {
				return nil, ErrEmailExists
			}
			return nil, ErrUsernameExists
		}
		customLog.Warnf("Storage: Failed to insert user %s: %v", username, err)
		return nil, fmt.Errorf("database error during user creation: %w", err)
	}
	return FindUserByID(ctx, db, userID)
}

// FindUserByUsername retrieves a user by username.
func FindUserByUsername(ctx context.Context, db DBTX, username string) (*domain.User, error) {
	return findUser(ctx, db, "username", strings.TrimSpace(username))
}

// FindUserByEmail retrieves a user by email address.
func FindUserByEmail(ctx context.Context, db DBTX, email string) (*domain.User, error) {
	return findUser(ctx, db, "email", NormalizeEmail(email))
}

// FindUserByID retrieves a user by primary key.
func FindUserByID(ctx context.Context, db DBTX, id int64) (*domain.User, error) {
	return findUser(ctx, db, "id", id)
}

// findUser only ever receives a hardcoded column name.
func findUser(ctx context.Context, db DBTX, column string, value any) (*domain.User, error) {
	sqlStatement := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1 LIMIT 1`
	user, err := scanUser(db.QueryRowContext(ctx, sqlStatement, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user by %s %v: %v", column, value, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return user, nil
}
