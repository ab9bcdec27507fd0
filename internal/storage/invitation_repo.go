// internal/storage/invitation_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Annany2002/schema-designer-backend/internal/domain"
)

const invitationColumns = `id, diagram_id, inviter_id, invited_email, permission_level, status, created_at, updated_at`

func scanInvitation(row interface{ Scan(...any) error }) (*domain.Invitation, error) {
	var (
		inv       domain.Invitation
		updatedAt sql.NullTime
	)
	if err := row.Scan(&inv.ID, &inv.DiagramID, &inv.InviterID, &inv.InvitedEmail, &inv.PermissionLevel,
		&inv.Status, &inv.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		inv.UpdatedAt = &t
	}
	return &inv, nil
}

// CreateInvitation stores a pending invitation. At most one invitation per
// (diagram, email) can be pending; a second yields ErrInvitationPending.
func CreateInvitation(ctx context.Context, db DBTX, diagramID, inviterID int64, email string, level domain.PermissionLevel) (*domain.Invitation, error) {
	stmt := `INSERT INTO diagram_invitations (diagram_id, inviter_id, invited_email, permission_level, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int64
	err := db.QueryRowContext(ctx, stmt, diagramID, inviterID, NormalizeEmail(email), string(level), string(domain.InvitationPending)).Scan(&id)
	if err != nil {
		if foreignKeyViolation(err) {
			return nil, ErrDiagramNotFound
		}
		if _, ok := uniqueViolation(err); ok {
			return nil, ErrInvitationPending
		}
		customLog.Warnf("Storage: Failed to insert invitation for %s on diagram %d: %v", email, diagramID, err)
		return nil, fmt.Errorf("database error creating invitation: %w", err)
	}
	return FindInvitationByID(ctx, db, id)
}

// FindInvitationByID retrieves an invitation in any status.
func FindInvitationByID(ctx context.Context, db DBTX, id int64) (*domain.Invitation, error) {
	inv, err := scanInvitation(db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM diagram_invitations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("database error finding invitation: %w", err)
	}
	return inv, nil
}

// FindPendingInvitation returns the pending invitation for (diagramID, email), if any.
func FindPendingInvitation(ctx context.Context, db DBTX, diagramID int64, email string) (*domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM diagram_invitations
		WHERE diagram_id = $1 AND invited_email = $2 AND status = $3
		ORDER BY id LIMIT 1`
	inv, err := scanInvitation(db.QueryRowContext(ctx, query, diagramID, NormalizeEmail(email), string(domain.InvitationPending)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("database error finding pending invitation: %w", err)
	}
	return inv, nil
}

// ListPendingInvitations returns every pending invitation addressed to email.
func ListPendingInvitations(ctx context.Context, db DBTX, email string) ([]domain.Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM diagram_invitations
		WHERE invited_email = $1 AND status = $2
		ORDER BY id`
	rows, err := db.QueryContext(ctx, query, NormalizeEmail(email), string(domain.InvitationPending))
	if err != nil {
		customLog.Warnf("Storage: Error listing invitations for %s: %v", email, err)
		return nil, fmt.Errorf("database error listing invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed processing invitation list: %w", err)
		}
		invitations = append(invitations, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading invitation list: %w", err)
	}
	return invitations, nil
}

// resolveInvitation moves a pending invitation addressed to email into
// status. The WHERE clause is the guard: a row that is no longer pending, or
// addressed to someone else, matches nothing and yields ErrInvitationNotFound.
func resolveInvitation(ctx context.Context, tx DBTX, invitationID int64, email string, status domain.InvitationStatus) (*domain.Invitation, error) {
	if !domain.InvitationPending.CanTransition(status) {
		return nil, fmt.Errorf("%w: cannot move pending invitation to %q", domain.ErrInvalidStatus, status)
	}

	stmt := `UPDATE diagram_invitations SET status = $1, updated_at = $2
		WHERE id = $3 AND invited_email = $4 AND status = $5`
	result, err := tx.ExecContext(ctx, stmt, string(status), time.Now().UTC(), invitationID, NormalizeEmail(email), string(domain.InvitationPending))
	if err != nil {
		customLog.Warnf("Storage: Error resolving invitation %d: %v", invitationID, err)
		return nil, fmt.Errorf("database error updating invitation: %w", err)
	}
	if err := expectOneRow(result, ErrInvitationNotFound); err != nil {
		return nil, err
	}
	return FindInvitationByID(ctx, tx, invitationID)
}

// AcceptInvitation atomically marks the invitation accepted and creates the
// collaboration it promises. Concurrent or repeated calls for the same id
// see at most one success; the rest get ErrInvitationNotFound.
func AcceptInvitation(ctx context.Context, db *sql.DB, invitationID, userID int64, email string) (*domain.Invitation, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	inv, err := resolveInvitation(ctx, tx, invitationID, email, domain.InvitationAccepted)
	if err != nil {
		return nil, err
	}

	inserted, err := insertCollaborationIfAbsent(ctx, tx, inv.DiagramID, userID, inv.PermissionLevel)
	if err != nil {
		return nil, err
	}
	if !inserted {
		customLog.Infof("Storage: user %d already collaborates on diagram %d; invitation %d closed without a new row",
			userID, inv.DiagramID, invitationID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit invitation acceptance: %w", err)
	}
	return inv, nil
}

// RejectInvitation marks a pending invitation rejected.
func RejectInvitation(ctx context.Context, db DBTX, invitationID int64, email string) (*domain.Invitation, error) {
	return resolveInvitation(ctx, db, invitationID, email, domain.InvitationRejected)
}
