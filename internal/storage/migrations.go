package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username VARCHAR(50) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS diagrams (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		is_public BOOLEAN NOT NULL DEFAULT FALSE,
		owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_diagrams_owner_id ON diagrams(owner_id)`,
	`CREATE TABLE IF NOT EXISTS tables (
		id BIGSERIAL PRIMARY KEY,
		diagram_id BIGINT NOT NULL REFERENCES diagrams(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		x_position INTEGER NOT NULL DEFAULT 0,
		y_position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tables_diagram_id ON tables(diagram_id)`,
	`CREATE TABLE IF NOT EXISTS columns (
		id BIGSERIAL PRIMARY KEY,
		table_id BIGINT NOT NULL REFERENCES tables(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		data_type TEXT NOT NULL,
		is_primary_key BOOLEAN NOT NULL DEFAULT FALSE,
		is_nullable BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_columns_table_id ON columns(table_id)`,
	`CREATE TABLE IF NOT EXISTS diagram_collaborations (
		id BIGSERIAL PRIMARY KEY,
		diagram_id BIGINT NOT NULL REFERENCES diagrams(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		permission_level TEXT NOT NULL CHECK (permission_level IN ('view', 'edit', 'admin')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_diagram_collaborations_diagram_user UNIQUE (diagram_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS diagram_invitations (
		id BIGSERIAL PRIMARY KEY,
		diagram_id BIGINT NOT NULL REFERENCES diagrams(id) ON DELETE CASCADE,
		inviter_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		invited_email VARCHAR(255) NOT NULL,
		permission_level TEXT NOT NULL CHECK (permission_level IN ('view', 'edit', 'admin')),
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_diagram_invitations_email_status ON diagram_invitations(invited_email, status)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_diagram_invitations_pending ON diagram_invitations(diagram_id, invited_email) WHERE status = 'pending'`,
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS diagrams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		is_public BOOLEAN NOT NULL DEFAULT 0,
		owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_diagrams_owner_id ON diagrams(owner_id)`,
	`CREATE TABLE IF NOT EXISTS tables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		diagram_id INTEGER NOT NULL REFERENCES diagrams(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		x_position INTEGER NOT NULL DEFAULT 0,
		y_position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tables_diagram_id ON tables(diagram_id)`,
	`CREATE TABLE IF NOT EXISTS columns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		table_id INTEGER NOT NULL REFERENCES tables(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		data_type TEXT NOT NULL,
		is_primary_key BOOLEAN NOT NULL DEFAULT 0,
		is_nullable BOOLEAN NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS idx_columns_table_id ON columns(table_id)`,
	`CREATE TABLE IF NOT EXISTS diagram_collaborations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		diagram_id INTEGER NOT NULL REFERENCES diagrams(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		permission_level TEXT NOT NULL CHECK (permission_level IN ('view', 'edit', 'admin')),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (diagram_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS diagram_invitations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		diagram_id INTEGER NOT NULL REFERENCES diagrams(id) ON DELETE CASCADE,
		inviter_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		invited_email TEXT NOT NULL,
		permission_level TEXT NOT NULL CHECK (permission_level IN ('view', 'edit', 'admin')),
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'rejected')),
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_diagram_invitations_email_status ON diagram_invitations(invited_email, status)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_diagram_invitations_pending ON diagram_invitations(diagram_id, invited_email) WHERE status = 'pending'`,
}

// Migrate runs every statement of the dialect's migration list in order.
// All statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	var migrations []string
	switch dialect {
	case DialectPostgres:
		migrations = postgresMigrations
	case DialectSQLite:
		migrations = sqliteMigrations
	default:
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}

	for i, stmt := range migrations {
		customLog.Debugf("Storage: Running migration %d/%d", i+1, len(migrations))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	customLog.Printf("Storage: %d migrations applied (%s).", len(migrations), dialect)
	return nil
}
