// Package export renders diagrams as SQL DDL and as a JSON schema document.
// Both renderers are pure: the same diagram always yields the same output.
package export

import (
	"strings"

	"github.com/Annany2002/schema-designer-backend/internal/domain"
)

const indent = "    "

// JSONSchema is the portable document form of a diagram.
type JSONSchema struct {
	Name   string        `json:"name"`
	Tables []SchemaTable `json:"tables"`
}

type SchemaTable struct {
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

type SchemaColumn struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

// GenerateDDL emits one CREATE TABLE statement per table, in table order,
// separated by a blank line. Names and types are written as stored.
func GenerateDDL(diagram *domain.Diagram) string {
	statements := make([]string, 0, len(diagram.Tables))
	for _, table := range diagram.Tables {
		statements = append(statements, createTable(table))
	}
	return strings.Join(statements, "\n\n")
}

func createTable(table domain.Table) string {
	lines := make([]string, 0, len(table.Columns)+1)
	var primaryKeys []string
	for _, col := range table.Columns {
		line := indent + col.Name + " " + col.DataType
		if !col.IsNullable {
			line += " NOT NULL"
		}
		lines = append(lines, line)
		if col.IsPrimaryKey {
			primaryKeys = append(primaryKeys, col.Name)
		}
	}
	if len(primaryKeys) > 0 {
		lines = append(lines, indent+"PRIMARY KEY ("+strings.Join(primaryKeys, ", ")+")")
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(table.Name)
	b.WriteString(" (\n")
	if len(lines) > 0 {
		b.WriteString(strings.Join(lines, ",\n"))
		b.WriteString("\n")
	}
	b.WriteString(");")
	return b.String()
}

// GenerateJSONSchema builds the document form. Slices are never nil so the
// JSON encoding always carries arrays.
func GenerateJSONSchema(diagram *domain.Diagram) JSONSchema {
	schema := JSONSchema{
		Name:   diagram.Name,
		Tables: make([]SchemaTable, 0, len(diagram.Tables)),
	}
	for _, table := range diagram.Tables {
		st := SchemaTable{
			Name:    table.Name,
			Columns: make([]SchemaColumn, 0, len(table.Columns)),
		}
		for _, col := range table.Columns {
			st.Columns = append(st.Columns, SchemaColumn{
				Name:       col.Name,
				Type:       col.DataType,
				Nullable:   col.IsNullable,
				PrimaryKey: col.IsPrimaryKey,
			})
		}
		schema.Tables = append(schema.Tables, st)
	}
	return schema
}
