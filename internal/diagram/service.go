// internal/diagram/service.go
package diagram

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Annany2002/schema-designer-backend/internal/collaboration"
	"github.com/Annany2002/schema-designer-backend/internal/core"
	"github.com/Annany2002/schema-designer-backend/internal/domain"
	"github.com/Annany2002/schema-designer-backend/internal/export"
	"github.com/Annany2002/schema-designer-backend/internal/logger"
	"github.com/Annany2002/schema-designer-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// Service handles diagram and table CRUD behind the collaboration access rules.
// Anything a caller may not see or do is reported as storage.ErrDiagramNotFound.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Export holds both renderings of a diagram.
type Export struct {
	SQLDDL     string            `json:"sql_ddl"`
	JSONSchema export.JSONSchema `json:"json_schema"`
}

func (s *Service) Create(ctx context.Context, ownerID int64, name string, description *string, isPublic bool) (*domain.Diagram, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: diagram name is required", core.ErrInvalidInput)
	}
	d, err := storage.CreateDiagram(ctx, s.db, ownerID, name, description, isPublic)
	if err != nil {
		return nil, err
	}
	customLog.Printf("Diagram %d '%s' created by user %d", d.ID, d.Name, ownerID)
	return d, nil
}

// List returns diagrams visible to userID, without their tables.
func (s *Service) List(ctx context.Context, userID int64, page core.Pagination) ([]domain.Diagram, error) {
	return storage.ListVisibleDiagrams(ctx, s.db, userID, page.Skip, page.Limit)
}

// Get returns a readable diagram with its tables and columns.
func (s *Service) Get(ctx context.Context, diagramID, userID int64) (*domain.Diagram, error) {
	if err := s.check(ctx, diagramID, userID, (*collaboration.Access).CanRead); err != nil {
		return nil, err
	}
	return storage.LoadDiagram(ctx, s.db, diagramID)
}

// Delete removes a diagram. Only the owner may do so.
func (s *Service) Delete(ctx context.Context, diagramID, userID int64) error {
	if err := storage.DeleteDiagram(ctx, s.db, diagramID, userID); err != nil {
		return err
	}
	customLog.Printf("Diagram %d deleted by owner %d", diagramID, userID)
	return nil
}

// CreateTable validates and stores a table with its columns.
func (s *Service) CreateTable(ctx context.Context, diagramID, userID int64, table domain.Table) (*domain.Table, error) {
	if !core.IsValidIdentifier(table.Name) {
		return nil, fmt.Errorf("%w: invalid table name '%s'", core.ErrInvalidInput, table.Name)
	}
	seen := make(map[string]bool, len(table.Columns))
	for i, col := range table.Columns {
		if !core.IsValidIdentifier(col.Name) {
			return nil, fmt.Errorf("%w: invalid column name '%s'", core.ErrInvalidInput, col.Name)
		}
		if seen[strings.ToLower(col.Name)] {
			return nil, fmt.Errorf("%w: duplicate column name '%s'", core.ErrInvalidInput, col.Name)
		}
		seen[strings.ToLower(col.Name)] = true

		dataType, ok := core.NormalizeDataType(col.DataType)
		if !ok {
			return nil, fmt.Errorf("%w: invalid data type for column '%s'", core.ErrInvalidInput, col.Name)
		}
		table.Columns[i].DataType = dataType
	}

	if err := s.check(ctx, diagramID, userID, (*collaboration.Access).CanEdit); err != nil {
		return nil, err
	}
	created, err := storage.CreateTable(ctx, s.db, diagramID, table)
	if err != nil {
		return nil, err
	}
	customLog.Printf("Table '%s' (%d columns) added to diagram %d", created.Name, len(created.Columns), diagramID)
	return created, nil
}

// Export renders a readable diagram as DDL and as a JSON schema document.
func (s *Service) Export(ctx context.Context, diagramID, userID int64) (*Export, error) {
	d, err := s.Get(ctx, diagramID, userID)
	if err != nil {
		return nil, err
	}
	return &Export{
		SQLDDL:     export.GenerateDDL(d),
		JSONSchema: export.GenerateJSONSchema(d),
	}, nil
}

func (s *Service) check(ctx context.Context, diagramID, userID int64, allowed func(*collaboration.Access) bool) error {
	access, err := collaboration.ResolveAccess(ctx, s.db, diagramID, userID)
	if err != nil {
		return err
	}
	if !allowed(access) {
		return storage.ErrDiagramNotFound
	}
	return nil
}
