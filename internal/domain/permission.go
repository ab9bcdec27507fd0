package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPermission = errors.New("invalid permission level")
	ErrInvalidStatus     = errors.New("invalid invitation status")
)

// PermissionLevel is the access granted by a collaboration or invitation.
type PermissionLevel string

const (
	PermissionView  PermissionLevel = "view"
	PermissionEdit  PermissionLevel = "edit"
	PermissionAdmin PermissionLevel = "admin"
)

// ParsePermissionLevel normalizes s. An empty string means view.
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	switch p := PermissionLevel(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PermissionView, nil
	case PermissionView, PermissionEdit, PermissionAdmin:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q (want view, edit or admin)", ErrInvalidPermission, s)
	}
}

func (p PermissionLevel) Valid() bool {
	switch p {
	case PermissionView, PermissionEdit, PermissionAdmin:
		return true
	}
	return false
}

// CanEdit reports whether the level may add tables to a diagram.
func (p PermissionLevel) CanEdit() bool {
	switch p {
	case PermissionEdit, PermissionAdmin:
		return true
	case PermissionView:
		return false
	}
	return false
}

// CanInvite reports whether the level may invite new collaborators.
// Roster changes (list, remove, update) stay with the owner.
func (p PermissionLevel) CanInvite() bool {
	switch p {
	case PermissionAdmin:
		return true
	case PermissionView, PermissionEdit:
		return false
	}
	return false
}

// InvitationStatus is the lifecycle state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

func ParseInvitationStatus(s string) (InvitationStatus, error) {
	switch st := InvitationStatus(s); st {
	case InvitationPending, InvitationAccepted, InvitationRejected:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// Terminal reports whether no further transition is possible.
func (s InvitationStatus) Terminal() bool {
	switch s {
	case InvitationAccepted, InvitationRejected:
		return true
	case InvitationPending:
		return false
	}
	return false
}

// CanTransition reports whether s may move to next. Only pending moves.
func (s InvitationStatus) CanTransition(next InvitationStatus) bool {
	switch s {
	case InvitationPending:
		return next == InvitationAccepted || next == InvitationRejected
	case InvitationAccepted, InvitationRejected:
		return false
	}
	return false
}
