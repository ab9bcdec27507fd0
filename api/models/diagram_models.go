// api/models/diagram_models.go
package models

import "github.com/Annany2002/schema-designer-backend/internal/domain"

// --- Diagram/Table Request Structs ---

// CreateDiagramRequest defines the structure for creating a diagram
type CreateDiagramRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
	IsPublic    bool    `json:"is_public"`
}

// ColumnDefinition represents a single column in a table creation request.
// IsNullable is a pointer so an omitted field can default to true.
type ColumnDefinition struct {
	Name         string `json:"name" binding:"required"`
	DataType     string `json:"data_type" binding:"required"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	IsNullable   *bool  `json:"is_nullable"`
}

// CreateTableRequest defines the structure for adding a table to a diagram
type CreateTableRequest struct {
	Name      string             `json:"name" binding:"required"`
	XPosition int                `json:"x_position"`
	YPosition int                `json:"y_position"`
	Columns   []ColumnDefinition `json:"columns" binding:"dive"`
}

// ToTable converts the request into the domain shape, applying defaults.
func (r CreateTableRequest) ToTable() domain.Table {
	table := domain.Table{
		Name:      r.Name,
		XPosition: r.XPosition,
		YPosition: r.YPosition,
		Columns:   make([]domain.Column, 0, len(r.Columns)),
	}
	for _, col := range r.Columns {
		nullable := true
		if col.IsNullable != nil {
			nullable = *col.IsNullable
		}
		table.Columns = append(table.Columns, domain.Column{
			Name:         col.Name,
			DataType:     col.DataType,
			IsPrimaryKey: col.IsPrimaryKey,
			IsNullable:   nullable,
		})
	}
	return table
}
