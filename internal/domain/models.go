// internal/domain/models.go
package domain

import "time"

// User is a registered account
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Diagram is a schema design owned by one user. Tables is only populated
// when the diagram is loaded together with its contents.
type Diagram struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description"`
	IsPublic    bool       `json:"is_public"`
	OwnerID     int64      `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	Tables      []Table    `json:"tables"`
}

// Table belongs to exactly one diagram
type Table struct {
	ID        int64    `json:"id"`
	DiagramID int64    `json:"diagram_id"`
	Name      string   `json:"name"`
	XPosition int      `json:"x_position"`
	YPosition int      `json:"y_position"`
	Columns   []Column `json:"columns"`
}

// Column belongs to exactly one table. DataType is a free-form label.
type Column struct {
	ID           int64  `json:"id"`
	TableID      int64  `json:"table_id"`
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsPrimaryKey bool   `json:"is_primary_key"`
	IsNullable   bool   `json:"is_nullable"`
}

// Collaboration grants a user access to a diagram
type Collaboration struct {
	ID              int64           `json:"id"`
	DiagramID       int64           `json:"diagram_id"`
	UserID          int64           `json:"user_id"`
	PermissionLevel PermissionLevel `json:"permission_level"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Collaborator is a roster entry: a collaboration joined with its user.
type Collaborator struct {
	UserID          int64           `json:"user_id"`
	Username        string          `json:"username"`
	Email           string          `json:"email"`
	PermissionLevel PermissionLevel `json:"permission_level"`
}

// Invitation offers access to a diagram to an email address that may not
// belong to a registered user yet.
type Invitation struct {
	ID              int64            `json:"id"`
	DiagramID       int64            `json:"diagram_id"`
	InviterID       int64            `json:"inviter_id"`
	InvitedEmail    string           `json:"invited_email"`
	PermissionLevel PermissionLevel  `json:"permission_level"`
	Status          InvitationStatus `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       *time.Time       `json:"updated_at"`
}
