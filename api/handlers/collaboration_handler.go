// api/handlers/collaboration_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/schema-designer-backend/api/models"
	"github.com/Annany2002/schema-designer-backend/internal/collaboration"
)

// CollaborationHandler serves sharing and invitation routes.
type CollaborationHandler struct {
	Collab *collaboration.Service
}

func NewCollaborationHandler(collab *collaboration.Service) *CollaborationHandler {
	return &CollaborationHandler{Collab: collab}
}

// Invite handles POST /diagrams/:id/invite.
func (h *CollaborationHandler) Invite(c *gin.Context) {
	diagramID, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req models.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.Collab.Invite(c.Request.Context(), diagramID, currentUser(c).ID, req.InvitedEmail, req.PermissionLevel)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListCollaborators handles GET /diagrams/:id/collaborators.
func (h *CollaborationHandler) ListCollaborators(c *gin.Context) {
	diagramID, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	roster, err := h.Collab.ListCollaborators(c.Request.Context(), diagramID, currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, roster)
}

// RemoveCollaborator handles DELETE /diagrams/:id/collaborators/:uid.
func (h *CollaborationHandler) RemoveCollaborator(c *gin.Context) {
	diagramID, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	targetID, err := pathID(c, "uid")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.Collab.RemoveCollaborator(c.Request.Context(), diagramID, currentUser(c).ID, targetID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Collaborator removed successfully"})
}

// UpdatePermission handles PUT /diagrams/:id/collaborators/:uid/permission.
func (h *CollaborationHandler) UpdatePermission(c *gin.Context) {
	diagramID, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	targetID, err := pathID(c, "uid")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req models.PermissionUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.Collab.UpdatePermission(c.Request.Context(), diagramID, currentUser(c).ID, targetID, req.PermissionLevel)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListInvitations handles GET /invitations for the caller's email.
func (h *CollaborationHandler) ListInvitations(c *gin.Context) {
	invitations, err := h.Collab.ListPendingInvitations(c.Request.Context(), currentUser(c).Email)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, invitations)
}

// AcceptInvitation handles POST /invitations/:id/accept.
func (h *CollaborationHandler) AcceptInvitation(c *gin.Context) {
	invitationID, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	inv, err := h.Collab.AcceptInvitation(c.Request.Context(), invitationID, currentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.InvitationActionResponse{Message: "Invitation accepted successfully", DiagramID: inv.DiagramID})
}

// RejectInvitation handles POST /invitations/:id/reject.
func (h *CollaborationHandler) RejectInvitation(c *gin.Context) {
	invitationID, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	inv, err := h.Collab.RejectInvitation(c.Request.Context(), invitationID, currentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.InvitationActionResponse{Message: "Invitation rejected", DiagramID: inv.DiagramID})
}
