package storage_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/schema-designer-backend/internal/domain"
	"github.com/Annany2002/schema-designer-backend/internal/storage"
)

// newTestDB opens a migrated SQLite database in a temp dir.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, dialect, err := storage.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.Equal(t, storage.DialectSQLite, dialect)
	require.NoError(t, storage.Migrate(ctx, db, dialect))

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return db
}

func mustCreateUser(t *testing.T, db *sql.DB, username string) *domain.User {
	t.Helper()
	user, err := storage.CreateUser(context.Background(), db, username, username+"@example.com", "hash")
	require.NoError(t, err)
	return user
}

func mustCreateDiagram(t *testing.T, db *sql.DB, ownerID int64, name string) *domain.Diagram {
	t.Helper()
	diagram, err := storage.CreateDiagram(context.Background(), db, ownerID, name, nil, false)
	require.NoError(t, err)
	return diagram
}

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		raw     string
		dialect storage.Dialect
		dsn     string
		wantErr bool
	}{
		{raw: "postgres://u:p@localhost:5432/db", dialect: storage.DialectPostgres, dsn: "postgres://u:p@localhost:5432/db"},
		{raw: "postgresql://localhost/db", dialect: storage.DialectPostgres, dsn: "postgresql://localhost/db"},
		{raw: "sqlite://data/app.db", dialect: storage.DialectSQLite, dsn: "data/app.db"},
		{raw: "file:test.db?cache=shared", dialect: storage.DialectSQLite, dsn: "file:test.db?cache=shared"},
		{raw: "app.db", dialect: storage.DialectSQLite, dsn: "app.db"},
		{raw: "  ", wantErr: true},
		{raw: "sqlite://", wantErr: true},
		{raw: "mysql://localhost/db", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			dialect, dsn, err := storage.ParseDatabaseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.dialect, dialect)
			assert.Equal(t, tt.dsn, dsn)
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, storage.Migrate(context.Background(), db, storage.DialectSQLite))
}

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user, err := storage.CreateUser(ctx, db, "alice", " Alice@Example.com ", "hash")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.False(t, user.CreatedAt.IsZero())

	t.Run("duplicate username", func(t *testing.T) {
		_, err := storage.CreateUser(ctx, db, "alice", "other@example.com", "hash")
		assert.ErrorIs(t, err, storage.ErrUsernameExists)
	})

	t.Run("duplicate username mentioning email", func(t *testing.T) {
		_, err := storage.CreateUser(ctx, db, "emailfan", "fan@example.com", "hash")
		require.NoError(t, err)
		_, err = storage.CreateUser(ctx, db, "emailfan", "fan2@example.com", "hash")
		assert.ErrorIs(t, err, storage.ErrUsernameExists)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := storage.CreateUser(ctx, db, "alice2", "ALICE@example.com", "hash")
		assert.ErrorIs(t, err, storage.ErrEmailExists)
	})

	t.Run("lookups", func(t *testing.T) {
		byName, err := storage.FindUserByUsername(ctx, db, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byName.ID)

		byEmail, err := storage.FindUserByEmail(ctx, db, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		_, err = storage.FindUserByID(ctx, db, 9999)
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestDiagramsAndTables(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, db, "owner")

	desc := "shop schema"
	diagram, err := storage.CreateDiagram(ctx, db, owner.ID, "Shop", &desc, false)
	require.NoError(t, err)
	require.NotNil(t, diagram.Description)
	assert.Equal(t, desc, *diagram.Description)
	assert.Nil(t, diagram.UpdatedAt)
	assert.NotNil(t, diagram.Tables)

	_, err = storage.CreateDiagram(ctx, db, 4242, "Orphan", nil, false)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	created, err := storage.CreateTable(ctx, db, diagram.ID, domain.Table{
		Name:      "orders",
		XPosition: 10,
		YPosition: 20,
		Columns: []domain.Column{
			{Name: "id", DataType: "INTEGER", IsPrimaryKey: true, IsNullable: false},
			{Name: "total", DataType: "TEXT", IsNullable: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, created.Columns, 2)
	assert.Equal(t, created.ID, created.Columns[0].TableID)

	_, err = storage.CreateTable(ctx, db, diagram.ID, domain.Table{Name: "empty"})
	require.NoError(t, err)

	_, err = storage.CreateTable(ctx, db, 9999, domain.Table{Name: "lost"})
	assert.ErrorIs(t, err, storage.ErrDiagramNotFound)

	loaded, err := storage.LoadDiagram(ctx, db, diagram.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tables, 2)
	assert.Equal(t, "orders", loaded.Tables[0].Name)
	assert.Equal(t, []string{"id", "total"}, []string{loaded.Tables[0].Columns[0].Name, loaded.Tables[0].Columns[1].Name})
	assert.False(t, loaded.Tables[0].Columns[1].IsPrimaryKey)
	assert.NotNil(t, loaded.Tables[1].Columns)
	assert.Empty(t, loaded.Tables[1].Columns)
	assert.NotNil(t, loaded.UpdatedAt, "adding a table touches updated_at")

	t.Run("delete cascades", func(t *testing.T) {
		assert.ErrorIs(t, storage.DeleteDiagram(ctx, db, diagram.ID, owner.ID+1), storage.ErrDiagramNotFound)
		require.NoError(t, storage.DeleteDiagram(ctx, db, diagram.ID, owner.ID))

		var n int
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM columns`).Scan(&n))
		assert.Zero(t, n)
		require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tables`).Scan(&n))
		assert.Zero(t, n)

		_, err := storage.FindDiagramByID(ctx, db, diagram.ID)
		assert.ErrorIs(t, err, storage.ErrDiagramNotFound)
	})
}

func TestListVisibleDiagrams(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")

	own := mustCreateDiagram(t, db, alice.ID, "own")
	_, err := storage.CreateDiagram(ctx, db, bob.ID, "public", nil, true)
	require.NoError(t, err)
	shared := mustCreateDiagram(t, db, bob.ID, "shared")
	mustCreateDiagram(t, db, bob.ID, "private")

	_, err = storage.UpsertCollaboration(ctx, db, shared.ID, alice.ID, domain.PermissionView)
	require.NoError(t, err)

	diagrams, err := storage.ListVisibleDiagrams(ctx, db, alice.ID, 0, 100)
	require.NoError(t, err)
	names := make([]string, 0, len(diagrams))
	for _, d := range diagrams {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"own", "public", "shared"}, names)
	assert.Equal(t, own.ID, diagrams[0].ID)

	page, err := storage.ListVisibleDiagrams(ctx, db, alice.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "public", page[0].Name)
}

func TestCollaborations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, db, "owner")
	alice := mustCreateUser(t, db, "alice")
	bob := mustCreateUser(t, db, "bob")
	diagram := mustCreateDiagram(t, db, owner.ID, "Shop")

	first, err := storage.UpsertCollaboration(ctx, db, diagram.ID, alice.ID, domain.PermissionView)
	require.NoError(t, err)
	again, err := storage.UpsertCollaboration(ctx, db, diagram.ID, alice.ID, domain.PermissionEdit)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, domain.PermissionEdit, again.PermissionLevel)

	_, err = storage.UpsertCollaboration(ctx, db, diagram.ID, bob.ID, domain.PermissionAdmin)
	require.NoError(t, err)

	roster, err := storage.ListCollaborators(ctx, db, diagram.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "alice", roster[0].Username)
	assert.Equal(t, domain.PermissionEdit, roster[0].PermissionLevel)
	assert.Equal(t, "bob@example.com", roster[1].Email)

	require.NoError(t, storage.UpdateCollaborationPermission(ctx, db, diagram.ID, bob.ID, domain.PermissionView))
	c, err := storage.FindCollaboration(ctx, db, diagram.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionView, c.PermissionLevel)

	require.NoError(t, storage.DeleteCollaboration(ctx, db, diagram.ID, bob.ID))
	assert.ErrorIs(t, storage.DeleteCollaboration(ctx, db, diagram.ID, bob.ID), storage.ErrCollaboratorNotFound)
	assert.ErrorIs(t, storage.UpdateCollaborationPermission(ctx, db, diagram.ID, bob.ID, domain.PermissionEdit), storage.ErrCollaboratorNotFound)

	_, err = storage.FindCollaboration(ctx, db, diagram.ID, bob.ID)
	assert.ErrorIs(t, err, storage.ErrCollaboratorNotFound)
}

func TestInvitationLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, db, "owner")
	diagram := mustCreateDiagram(t, db, owner.ID, "Shop")

	inv, err := storage.CreateInvitation(ctx, db, diagram.ID, owner.ID, "New@Example.com", domain.PermissionEdit)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationPending, inv.Status)
	assert.Equal(t, "new@example.com", inv.InvitedEmail)
	assert.Nil(t, inv.UpdatedAt)

	pending, err := storage.FindPendingInvitation(ctx, db, diagram.ID, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, pending.ID)

	_, err = storage.CreateInvitation(ctx, db, diagram.ID, owner.ID, "new@example.com", domain.PermissionView)
	assert.ErrorIs(t, err, storage.ErrInvitationPending)

	list, err := storage.ListPendingInvitations(ctx, db, "new@example.com")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	newcomer, err := storage.CreateUser(ctx, db, "newcomer", "new@example.com", "hash")
	require.NoError(t, err)

	_, err = storage.AcceptInvitation(ctx, db, inv.ID, newcomer.ID, "someone.else@example.com")
	assert.ErrorIs(t, err, storage.ErrInvitationNotFound, "accept is bound to the invited email")

	accepted, err := storage.AcceptInvitation(ctx, db, inv.ID, newcomer.ID, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationAccepted, accepted.Status)
	assert.NotNil(t, accepted.UpdatedAt)

	_, err = storage.AcceptInvitation(ctx, db, inv.ID, newcomer.ID, "new@example.com")
	assert.ErrorIs(t, err, storage.ErrInvitationNotFound)
	_, err = storage.RejectInvitation(ctx, db, inv.ID, "new@example.com")
	assert.ErrorIs(t, err, storage.ErrInvitationNotFound, "terminal states do not move")

	c, err := storage.FindCollaboration(ctx, db, diagram.ID, newcomer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionEdit, c.PermissionLevel)

	list, err = storage.ListPendingInvitations(ctx, db, "new@example.com")
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = storage.FindPendingInvitation(ctx, db, diagram.ID, "new@example.com")
	assert.ErrorIs(t, err, storage.ErrInvitationNotFound)
}

func TestRejectInvitation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, db, "owner")
	diagram := mustCreateDiagram(t, db, owner.ID, "Shop")

	inv, err := storage.CreateInvitation(ctx, db, diagram.ID, owner.ID, "guest@example.com", domain.PermissionView)
	require.NoError(t, err)

	rejected, err := storage.RejectInvitation(ctx, db, inv.ID, "guest@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationRejected, rejected.Status)

	guest := mustCreateUser(t, db, "guest")
	_, err = storage.AcceptInvitation(ctx, db, inv.ID, guest.ID, "guest@example.com")
	assert.ErrorIs(t, err, storage.ErrInvitationNotFound)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM diagram_collaborations`).Scan(&n))
	assert.Zero(t, n)
}

func TestAcceptInvitationConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, db, "owner")
	guest := mustCreateUser(t, db, "guest")
	diagram := mustCreateDiagram(t, db, owner.ID, "Shop")

	inv, err := storage.CreateInvitation(ctx, db, diagram.ID, owner.ID, guest.Email, domain.PermissionView)
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		notFound  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := storage.AcceptInvitation(ctx, db, inv.ID, guest.ID, guest.Email)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, storage.ErrInvitationNotFound):
				notFound++
			default:
				t.Errorf("unexpected accept error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, notFound)

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM diagram_collaborations WHERE diagram_id = $1 AND user_id = $2`, diagram.ID, guest.ID).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestDeleteUserCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := mustCreateUser(t, db, "owner")
	guest := mustCreateUser(t, db, "guest")
	diagram := mustCreateDiagram(t, db, owner.ID, "Shop")
	_, err := storage.UpsertCollaboration(ctx, db, diagram.ID, guest.ID, domain.PermissionView)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, guest.ID)
	require.NoError(t, err)

	roster, err := storage.ListCollaborators(ctx, db, diagram.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)
}
