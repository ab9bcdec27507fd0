// internal/collaboration/service.go
package collaboration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Annany2002/schema-designer-backend/internal/domain"
	"github.com/Annany2002/schema-designer-backend/internal/logger"
	"github.com/Annany2002/schema-designer-backend/internal/notification"
	"github.com/Annany2002/schema-designer-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()

	ErrInviteOwner = errors.New("the diagram owner cannot be invited")
)

// Actions used in collaboration change notices
const (
	actionAdded   = "added you to"
	actionRemoved = "removed you from"
)

// Service runs the invitation lifecycle and roster management.
type Service struct {
	db          *sql.DB
	notices     notification.Dispatcher
	frontendURL string
}

// NewService wires the engine. frontendURL prefixes invitation links.
func NewService(db *sql.DB, notices notification.Dispatcher, frontendURL string) *Service {
	return &Service{db: db, notices: notices, frontendURL: frontendURL}
}

// InviteResult is returned by Invite. InvitationID is set only when a
// pending invitation was created.
type InviteResult struct {
	Message      string `json:"message"`
	InvitationID *int64 `json:"invitation_id,omitempty"`
}

// Invite offers access to diagramID. An address that already belongs to a
// user is granted access directly; any other address gets a pending
// invitation and an email. Only the owner can change the level of an
// existing collaborator this way; for anyone else with invite rights the
// existing row is left as it is.
func (s *Service) Invite(ctx context.Context, diagramID, inviterID int64, invitedEmail, permissionLevel string) (*InviteResult, error) {
	email := storage.NormalizeEmail(invitedEmail)

	inviter, err := storage.FindUserByID(ctx, s.db, inviterID)
	if err != nil {
		return nil, err
	}
	access, err := requireAccess(ctx, s.db, diagramID, inviterID, (*Access).CanInvite)
	if err != nil {
		return nil, err
	}
	diagram := access.Diagram

	level, err := domain.ParsePermissionLevel(permissionLevel)
	if err != nil {
		return nil, err
	}

	owner := inviter
	if !access.IsOwner {
		if owner, err = storage.FindUserByID(ctx, s.db, diagram.OwnerID); err != nil {
			return nil, fmt.Errorf("failed loading owner of diagram %d: %w", diagramID, err)
		}
	}
	if owner.Email == email {
		return nil, ErrInviteOwner
	}

	log := customLog.WithFields(logrus.Fields{"diagram_id": diagramID, "inviter_id": inviterID, "email": email})

	invitee, err := storage.FindUserByEmail(ctx, s.db, email)
	switch {
	case err == nil:
		if access.IsOwner {
			if _, err := storage.UpsertCollaboration(ctx, s.db, diagramID, invitee.ID, level); err != nil {
				return nil, err
			}
		} else {
			added, err := storage.AddCollaborationIfAbsent(ctx, s.db, diagramID, invitee.ID, level)
			if err != nil {
				return nil, err
			}
			if !added {
				log.WithField("user_id", invitee.ID).Info("Invitee already collaborates; level unchanged")
				return &InviteResult{Message: "User is already a collaborator"}, nil
			}
		}
		log.WithField("user_id", invitee.ID).Info("Existing user added to diagram")
		s.notices.CollaborationChange(ctx, notification.ChangeNotice{
			To:          invitee.Email,
			DiagramName: diagram.Name,
			Action:      actionAdded,
			ActorName:   inviter.Username,
		})
		return &InviteResult{Message: "User added to diagram"}, nil

	case errors.Is(err, storage.ErrUserNotFound):
		// handled below

	default:
		return nil, err
	}

	if _, err := storage.FindPendingInvitation(ctx, s.db, diagramID, email); err == nil {
		return nil, storage.ErrInvitationPending
	} else if !errors.Is(err, storage.ErrInvitationNotFound) {
		return nil, err
	}

	inv, err := storage.CreateInvitation(ctx, s.db, diagramID, inviterID, email, level)
	if err != nil {
		return nil, err
	}
	log.WithField("invitation_id", inv.ID).Info("Invitation created")

	s.notices.Invitation(ctx, notification.InvitationNotice{
		To:          email,
		DiagramName: diagram.Name,
		InviterName: inviter.Username,
		Link:        notification.InvitationLink(s.frontendURL, inv.ID),
	})
	return &InviteResult{Message: "Invitation sent successfully", InvitationID: &inv.ID}, nil
}

// ListCollaborators returns the roster. Only the owner may see it.
func (s *Service) ListCollaborators(ctx context.Context, diagramID, requestingUserID int64) ([]domain.Collaborator, error) {
	if _, err := requireAccess(ctx, s.db, diagramID, requestingUserID, isOwner); err != nil {
		return nil, err
	}
	return storage.ListCollaborators(ctx, s.db, diagramID)
}

// RemoveCollaborator revokes targetUserID's access and tells them about it.
func (s *Service) RemoveCollaborator(ctx context.Context, diagramID, requestingUserID, targetUserID int64) error {
	access, err := requireAccess(ctx, s.db, diagramID, requestingUserID, isOwner)
	if err != nil {
		return err
	}
	target, err := s.rosterUser(ctx, targetUserID)
	if err != nil {
		return err
	}
	if err := storage.DeleteCollaboration(ctx, s.db, diagramID, targetUserID); err != nil {
		return err
	}

	customLog.WithFields(logrus.Fields{"diagram_id": diagramID, "user_id": targetUserID}).Info("Collaborator removed")
	s.notifyChange(ctx, access, target, actionRemoved)
	return nil
}

// PermissionResult is returned by UpdatePermission.
type PermissionResult struct {
	Message       string                 `json:"message"`
	NewPermission domain.PermissionLevel `json:"new_permission"`
}

// UpdatePermission changes targetUserID's level in place.
func (s *Service) UpdatePermission(ctx context.Context, diagramID, requestingUserID, targetUserID int64, newLevel string) (*PermissionResult, error) {
	if strings.TrimSpace(newLevel) == "" {
		return nil, fmt.Errorf("%w: permission level is required", domain.ErrInvalidPermission)
	}
	level, err := domain.ParsePermissionLevel(newLevel)
	if err != nil {
		return nil, err
	}

	access, err := requireAccess(ctx, s.db, diagramID, requestingUserID, isOwner)
	if err != nil {
		return nil, err
	}
	target, err := s.rosterUser(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if err := storage.UpdateCollaborationPermission(ctx, s.db, diagramID, targetUserID, level); err != nil {
		return nil, err
	}

	customLog.WithFields(logrus.Fields{"diagram_id": diagramID, "user_id": targetUserID, "level": level}).Info("Collaborator permission updated")
	s.notifyChange(ctx, access, target, "changed your permission to "+string(level)+" on")
	return &PermissionResult{Message: "Permission updated successfully", NewPermission: level}, nil
}

// AcceptInvitation turns a pending invitation addressed to user into a
// collaboration. Anything other than a pending invitation for the user's
// email is reported as storage.ErrInvitationNotFound.
func (s *Service) AcceptInvitation(ctx context.Context, invitationID int64, user *domain.User) (*domain.Invitation, error) {
	inv, err := storage.AcceptInvitation(ctx, s.db, invitationID, user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	customLog.WithFields(logrus.Fields{"invitation_id": invitationID, "user_id": user.ID, "diagram_id": inv.DiagramID}).Info("Invitation accepted")
	return inv, nil
}

// RejectInvitation declines a pending invitation addressed to user.
func (s *Service) RejectInvitation(ctx context.Context, invitationID int64, user *domain.User) (*domain.Invitation, error) {
	inv, err := storage.RejectInvitation(ctx, s.db, invitationID, user.Email)
	if err != nil {
		return nil, err
	}
	customLog.WithFields(logrus.Fields{"invitation_id": invitationID, "user_id": user.ID}).Info("Invitation rejected")
	return inv, nil
}

// ListPendingInvitations returns pending invitations addressed to email.
func (s *Service) ListPendingInvitations(ctx context.Context, email string) ([]domain.Invitation, error) {
	return storage.ListPendingInvitations(ctx, s.db, email)
}

// rosterUser loads a collaborator's account. A missing user is a missing collaborator.
func (s *Service) rosterUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := storage.FindUserByID(ctx, s.db, userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, storage.ErrCollaboratorNotFound
	}
	return user, err
}

func (s *Service) notifyChange(ctx context.Context, access *Access, target *domain.User, action string) {
	actor, err := storage.FindUserByID(ctx, s.db, access.UserID)
	if err != nil {
		customLog.WithError(err).Warn("Could not load acting user for change notice")
		return
	}
	s.notices.CollaborationChange(ctx, notification.ChangeNotice{
		To:          target.Email,
		DiagramName: access.Diagram.Name,
		Action:      action,
		ActorName:   actor.Username,
	})
}
