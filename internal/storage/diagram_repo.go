// internal/storage/diagram_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Annany2002/schema-designer-backend/internal/domain"
)

const diagramColumns = `d.id, d.name, d.description, d.is_public, d.owner_id, d.created_at, d.updated_at`

func scanDiagram(row interface{ Scan(...any) error }) (*domain.Diagram, error) {
	var (
		d           domain.Diagram
		description sql.NullString
		updatedAt   sql.NullTime
	)
	if err := row.Scan(&d.ID, &d.Name, &description, &d.IsPublic, &d.OwnerID, &d.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	if description.Valid {
		d.Description = &description.String
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		d.UpdatedAt = &t
	}
	return &d, nil
}

// --- Diagram Operations ---

// CreateDiagram inserts a diagram owned by ownerID.
func CreateDiagram(ctx context.Context, db DBTX, ownerID int64, name string, description *string, isPublic bool) (*domain.Diagram, error) {
	sqlStatement := `INSERT INTO diagrams (name, description, is_public, owner_id) VALUES ($1, $2, $3, $4) RETURNING id`
	var diagramID int64
	if err := db.QueryRowContext(ctx, sqlStatement, name, description, isPublic, ownerID).Scan(&diagramID); err != nil {
		if foreignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to insert diagram '%s' for user %d: %v", name, ownerID, err)
		return nil, fmt.Errorf("database error creating diagram: %w", err)
	}
	diagram, err := FindDiagramByID(ctx, db, diagramID)
	if err != nil {
		return nil, err
	}
	diagram.Tables = []domain.Table{}
	return diagram, nil
}

// FindDiagramByID retrieves a diagram without its tables.
func FindDiagramByID(ctx context.Context, db DBTX, id int64) (*domain.Diagram, error) {
	sqlStatement := `SELECT ` + diagramColumns + ` FROM diagrams d WHERE d.id = $1 LIMIT 1`
	diagram, err := scanDiagram(db.QueryRowContext(ctx, sqlStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDiagramNotFound
		}
		customLog.Warnf("Storage: Failed to find diagram %d: %v", id, err)
		return nil, fmt.Errorf("database error finding diagram: %w", err)
	}
	return diagram, nil
}

// ListVisibleDiagrams returns diagrams the user owns, collaborates on, or
// that are public, ordered by id. Tables are not loaded.
func ListVisibleDiagrams(ctx context.Context, db DBTX, userID int64, skip, limit int) ([]domain.Diagram, error) {
	query := `SELECT ` + diagramColumns + ` FROM diagrams d
		WHERE d.owner_id = $1
			OR d.is_public
			OR EXISTS (SELECT 1 FROM diagram_collaborations c WHERE c.diagram_id = d.id AND c.user_id = $2)
		ORDER BY d.id
		LIMIT $3 OFFSET $4`
	rows, err := db.QueryContext(ctx, query, userID, userID, limit, skip)
	if err != nil {
		customLog.Warnf("Storage: Error listing diagrams for UserID %d: %v", userID, err)
		return nil, fmt.Errorf("database error listing diagrams: %w", err)
	}
	defer rows.Close()

	diagrams := make([]domain.Diagram, 0)
	for rows.Next() {
		diagram, err := scanDiagram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed processing diagram list: %w", err)
		}
		diagrams = append(diagrams, *diagram)
	}
	if err := rows.Err(); err != nil {
		customLog.Warnf("Storage: Error iterating diagram list for UserID %d: %v", userID, err)
		return nil, fmt.Errorf("failed reading diagram list: %w", err)
	}
	return diagrams, nil
}

// DeleteDiagram removes a diagram owned by ownerID. Tables, columns,
// collaborations and invitations go with it through ON DELETE CASCADE.
func DeleteDiagram(ctx context.Context, db DBTX, id, ownerID int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM diagrams WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		customLog.Warnf("Storage: Error deleting diagram %d: %v", id, err)
		return fmt.Errorf("database error deleting diagram: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed confirming diagram deletion: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDiagramNotFound
	}
	return nil
}

// --- Table Operations ---

// CreateTable inserts a table and its columns in one transaction, keeping
// the column order given.
func CreateTable(ctx context.Context, db *sql.DB, diagramID int64, table domain.Table) (*domain.Table, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	created := domain.Table{
		DiagramID: diagramID,
		Name:      table.Name,
		XPosition: table.XPosition,
		YPosition: table.YPosition,
		Columns:   make([]domain.Column, 0, len(table.Columns)),
	}

	insertTable := `INSERT INTO tables (diagram_id, name, x_position, y_position) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := tx.QueryRowContext(ctx, insertTable, diagramID, table.Name, table.XPosition, table.YPosition).Scan(&created.ID); err != nil {
		if foreignKeyViolation(err) {
			return nil, ErrDiagramNotFound
		}
		customLog.Warnf("Storage: Failed to insert table '%s' into diagram %d: %v", table.Name, diagramID, err)
		return nil, fmt.Errorf("database error creating table: %w", err)
	}

	insertColumn := `INSERT INTO columns (table_id, name, data_type, is_primary_key, is_nullable) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for _, col := range table.Columns {
		col.TableID = created.ID
		if err := tx.QueryRowContext(ctx, insertColumn, created.ID, col.Name, col.DataType, col.IsPrimaryKey, col.IsNullable).Scan(&col.ID); err != nil {
			customLog.Warnf("Storage: Failed to insert column '%s' into table %d: %v", col.Name, created.ID, err)
			return nil, fmt.Errorf("database error creating column: %w", err)
		}
		created.Columns = append(created.Columns, col)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE diagrams SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), diagramID); err != nil {
		return nil, fmt.Errorf("database error touching diagram: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit table creation: %w", err)
	}
	return &created, nil
}

// ListDiagramTables returns a diagram's tables with their columns, both in
// insertion order. Tables without columns carry an empty, non-nil slice.
func ListDiagramTables(ctx context.Context, db DBTX, diagramID int64) ([]domain.Table, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, diagram_id, name, x_position, y_position FROM tables WHERE diagram_id = $1 ORDER BY id`, diagramID)
	if err != nil {
		return nil, fmt.Errorf("database error listing tables: %w", err)
	}
	defer rows.Close()

	tables := make([]domain.Table, 0)
	index := make(map[int64]int)
	for rows.Next() {
		t := domain.Table{Columns: []domain.Column{}}
		if err := rows.Scan(&t.ID, &t.DiagramID, &t.Name, &t.XPosition, &t.YPosition); err != nil {
			return nil, fmt.Errorf("failed processing table list: %w", err)
		}
		index[t.ID] = len(tables)
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading table list: %w", err)
	}
	if len(tables) == 0 {
		return tables, nil
	}

	colRows, err := db.QueryContext(ctx, `SELECT c.id, c.table_id, c.name, c.data_type, c.is_primary_key, c.is_nullable
		FROM columns c JOIN tables t ON t.id = c.table_id
		WHERE t.diagram_id = $1
		ORDER BY c.table_id, c.id`, diagramID)
	if err != nil {
		return nil, fmt.Errorf("database error listing columns: %w", err)
	}
	defer colRows.Close()

	for colRows.Next() {
		var c domain.Column
		if err := colRows.Scan(&c.ID, &c.TableID, &c.Name, &c.DataType, &c.IsPrimaryKey, &c.IsNullable); err != nil {
			return nil, fmt.Errorf("failed processing column list: %w", err)
		}
		if i, ok := index[c.TableID]; ok {
			tables[i].Columns = append(tables[i].Columns, c)
		}
	}
	if err := colRows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading column list: %w", err)
	}
	return tables, nil
}

// LoadDiagram retrieves a diagram together with its tables and columns.
func LoadDiagram(ctx context.Context, db DBTX, id int64) (*domain.Diagram, error) {
	diagram, err := FindDiagramByID(ctx, db, id)
	if err != nil {
		return nil, err
	}
	tables, err := ListDiagramTables(ctx, db, id)
	if err != nil {
		return nil, err
	}
	diagram.Tables = tables
	return diagram, nil
}
