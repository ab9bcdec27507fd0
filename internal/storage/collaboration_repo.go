// internal/storage/collaboration_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Annany2002/schema-designer-backend/internal/domain"
)

// FindCollaboration retrieves the collaboration for (diagramID, userID).
func FindCollaboration(ctx context.Context, db DBTX, diagramID, userID int64) (*domain.Collaboration, error) {
	query := `SELECT id, diagram_id, user_id, permission_level, created_at
		FROM diagram_collaborations WHERE diagram_id = $1 AND user_id = $2 LIMIT 1`
	var c domain.Collaboration
	err := db.QueryRowContext(ctx, query, diagramID, userID).Scan(&c.ID, &c.DiagramID, &c.UserID, &c.PermissionLevel, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCollaboratorNotFound
		}
		customLog.Warnf("Storage: Failed to find collaboration diagram=%d user=%d: %v", diagramID, userID, err)
		return nil, fmt.Errorf("database error finding collaboration: %w", err)
	}
	return &c, nil
}

// UpsertCollaboration grants userID access to diagramID. An existing row for
// the pair keeps its id and takes the new level.
func UpsertCollaboration(ctx context.Context, db DBTX, diagramID, userID int64, level domain.PermissionLevel) (*domain.Collaboration, error) {
	stmt := `INSERT INTO diagram_collaborations (diagram_id, user_id, permission_level) VALUES ($1, $2, $3)
		ON CONFLICT (diagram_id, user_id) DO UPDATE SET permission_level = excluded.permission_level`
	if _, err := db.ExecContext(ctx, stmt, diagramID, userID, string(level)); err != nil {
		if foreignKeyViolation(err) {
			return nil, ErrDiagramNotFound
		}
		customLog.Warnf("Storage: Failed to upsert collaboration diagram=%d user=%d: %v", diagramID, userID, err)
		return nil, fmt.Errorf("database error saving collaboration: %w", err)
	}
	return FindCollaboration(ctx, db, diagramID, userID)
}

// AddCollaborationIfAbsent grants userID access unless a collaboration for the
// pair already exists, in which case the existing level is left alone.
// It reports whether a row was inserted.
func AddCollaborationIfAbsent(ctx context.Context, db DBTX, diagramID, userID int64, level domain.PermissionLevel) (bool, error) {
	inserted, err := insertCollaborationIfAbsent(ctx, db, diagramID, userID, level)
	if err != nil {
		if foreignKeyViolation(err) {
			return false, ErrDiagramNotFound
		}
		customLog.Warnf("Storage: Failed to add collaboration diagram=%d user=%d: %v", diagramID, userID, err)
		return false, err
	}
	return inserted, nil
}

// insertCollaborationIfAbsent adds the row unless the pair already exists.
// It reports whether a row was inserted.
func insertCollaborationIfAbsent(ctx context.Context, db DBTX, diagramID, userID int64, level domain.PermissionLevel) (bool, error) {
	stmt := `INSERT INTO diagram_collaborations (diagram_id, user_id, permission_level) VALUES ($1, $2, $3)
		ON CONFLICT (diagram_id, user_id) DO NOTHING`
	result, err := db.ExecContext(ctx, stmt, diagramID, userID, string(level))
	if err != nil {
		return false, fmt.Errorf("database error inserting collaboration: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed confirming collaboration insert: %w", err)
	}
	return n == 1, nil
}

// ListCollaborators returns the roster of a diagram joined with user data,
// ordered by when each collaboration was created.
func ListCollaborators(ctx context.Context, db DBTX, diagramID int64) ([]domain.Collaborator, error) {
	query := `SELECT u.id, u.username, u.email, c.permission_level
		FROM diagram_collaborations c JOIN users u ON u.id = c.user_id
		WHERE c.diagram_id = $1
		ORDER BY c.id`
	rows, err := db.QueryContext(ctx, query, diagramID)
	if err != nil {
		customLog.Warnf("Storage: Error listing collaborators for diagram %d: %v", diagramID, err)
		return nil, fmt.Errorf("database error listing collaborators: %w", err)
	}
	defer rows.Close()

	collaborators := make([]domain.Collaborator, 0)
	for rows.Next() {
		var c domain.Collaborator
		if err := rows.Scan(&c.UserID, &c.Username, &c.Email, &c.PermissionLevel); err != nil {
			return nil, fmt.Errorf("failed processing collaborator list: %w", err)
		}
		collaborators = append(collaborators, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading collaborator list: %w", err)
	}
	return collaborators, nil
}

// DeleteCollaboration removes the row for (diagramID, userID).
// It returns ErrCollaboratorNotFound if no matching row existed.
func DeleteCollaboration(ctx context.Context, db DBTX, diagramID, userID int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM diagram_collaborations WHERE diagram_id = $1 AND user_id = $2`, diagramID, userID)
	if err != nil {
		customLog.Warnf("Storage: Error deleting collaboration diagram=%d user=%d: %v", diagramID, userID, err)
		return fmt.Errorf("database error deleting collaboration: %w", err)
	}
	return expectOneRow(result, ErrCollaboratorNotFound)
}

// UpdateCollaborationPermission changes the level of an existing row.
func UpdateCollaborationPermission(ctx context.Context, db DBTX, diagramID, userID int64, level domain.PermissionLevel) error {
	result, err := db.ExecContext(ctx, `UPDATE diagram_collaborations SET permission_level = $1 WHERE diagram_id = $2 AND user_id = $3`,
		string(level), diagramID, userID)
	if err != nil {
		customLog.Warnf("Storage: Error updating collaboration diagram=%d user=%d: %v", diagramID, userID, err)
		return fmt.Errorf("database error updating collaboration: %w", err)
	}
	return expectOneRow(result, ErrCollaboratorNotFound)
}

func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed confirming row change: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}
