// internal/collaboration/access.go
package collaboration

import (
	"context"
	"errors"

	"github.com/Annany2002/schema-designer-backend/internal/domain"
	"github.com/Annany2002/schema-designer-backend/internal/storage"
)

// Access is what one user may do with one diagram. The owner holds every
// right without a collaboration row.
type Access struct {
	Diagram *domain.Diagram
	UserID  int64
	IsOwner bool
	Level   domain.PermissionLevel // empty when the user has no collaboration
}

func (a *Access) CanRead() bool {
	return a.IsOwner || a.Level.Valid() || a.Diagram.IsPublic
}

func (a *Access) CanEdit() bool {
	return a.IsOwner || a.Level.CanEdit()
}

func (a *Access) CanInvite() bool {
	return a.IsOwner || a.Level.CanInvite()
}

// ResolveAccess loads the diagram and the user's standing on it.
func ResolveAccess(ctx context.Context, db storage.DBTX, diagramID, userID int64) (*Access, error) {
	diagram, err := storage.FindDiagramByID(ctx, db, diagramID)
	if err != nil {
		return nil, err
	}
	access := &Access{Diagram: diagram, UserID: userID, IsOwner: diagram.OwnerID == userID}
	if access.IsOwner {
		return access, nil
	}

	c, err := storage.FindCollaboration(ctx, db, diagramID, userID)
	switch {
	case err == nil:
		access.Level = c.PermissionLevel
	case errors.Is(err, storage.ErrCollaboratorNotFound):
	default:
		return nil, err
	}
	return access, nil
}

// requireAccess resolves access and hides the diagram unless allowed(access).
func requireAccess(ctx context.Context, db storage.DBTX, diagramID, userID int64, allowed func(*Access) bool) (*Access, error) {
	access, err := ResolveAccess(ctx, db, diagramID, userID)
	if err != nil {
		return nil, err
	}
	if !allowed(access) {
		customLog.Debugf("Collaboration: user %d denied on diagram %d", userID, diagramID)
		return nil, storage.ErrDiagramNotFound
	}
	return access, nil
}

func isOwner(a *Access) bool { return a.IsOwner }
