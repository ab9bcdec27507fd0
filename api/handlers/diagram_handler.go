// api/handlers/diagram_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/schema-designer-backend/api/models"
	"github.com/Annany2002/schema-designer-backend/internal/core"
	"github.com/Annany2002/schema-designer-backend/internal/diagram"
)

// DiagramHandler serves diagram, table and export routes.
type DiagramHandler struct {
	Diagrams *diagram.Service
}

func NewDiagramHandler(diagrams *diagram.Service) *DiagramHandler {
	return &DiagramHandler{Diagrams: diagrams}
}

func (h *DiagramHandler) CreateDiagram(c *gin.Context) {
	var req models.CreateDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	d, err := h.Diagrams.Create(c.Request.Context(), currentUser(c).ID, req.Name, req.Description, req.IsPublic)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *DiagramHandler) ListDiagrams(c *gin.Context) {
	page, err := core.ParsePagination(c.Request.URL.Query())
	if err != nil {
		_ = c.Error(err)
		return
	}

	diagrams, err := h.Diagrams.List(c.Request.Context(), currentUser(c).ID, page)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, diagrams)
}

func (h *DiagramHandler) GetDiagram(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	d, err := h.Diagrams.Get(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *DiagramHandler) DeleteDiagram(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.Diagrams.Delete(c.Request.Context(), id, currentUser(c).ID); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Diagram deleted successfully"})
}

func (h *DiagramHandler) CreateTable(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	var req models.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	table, err := h.Diagrams.CreateTable(c.Request.Context(), id, currentUser(c).ID, req.ToTable())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, table)
}

func (h *DiagramHandler) ExportDiagram(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	out, err := h.Diagrams.Export(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}
