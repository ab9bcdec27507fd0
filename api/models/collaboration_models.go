// api/models/collaboration_models.go
package models

// InviteRequest defines the body of POST /diagrams/:id/invite.
// An empty permission level means view.
type InviteRequest struct {
	InvitedEmail    string `json:"invited_email" binding:"required,email"`
	PermissionLevel string `json:"permission_level" binding:"omitempty,oneof=view edit admin"`
}

// PermissionUpdateRequest defines the body of PUT .../permission
type PermissionUpdateRequest struct {
	PermissionLevel string `json:"permission_level" binding:"required,oneof=view edit admin"`
}

// MessageResponse is the generic acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}

// InvitationActionResponse is returned after accepting or rejecting an invitation
type InvitationActionResponse struct {
	Message   string `json:"message"`
	DiagramID int64  `json:"diagram_id"`
}
