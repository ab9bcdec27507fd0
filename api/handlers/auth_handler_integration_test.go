// api/handlers/auth_handler_integration_test.go
package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Annany2002/schema-designer-backend/api"
	"github.com/Annany2002/schema-designer-backend/api/models"
	"github.com/Annany2002/schema-designer-backend/config"
	"github.com/Annany2002/schema-designer-backend/internal/auth"
	"github.com/Annany2002/schema-designer-backend/internal/domain"
	"github.com/Annany2002/schema-designer-backend/internal/notification"
	"github.com/Annany2002/schema-designer-backend/internal/storage"
)

// recordingDispatcher keeps every notice for inspection.
type recordingDispatcher struct {
	mu          sync.Mutex
	invitations []notification.InvitationNotice
	changes     []notification.ChangeNotice
}

func (r *recordingDispatcher) Invitation(_ context.Context, n notification.InvitationNotice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invitations = append(r.invitations, n)
}

func (r *recordingDispatcher) CollaborationChange(_ context.Context, n notification.ChangeNotice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, n)
}

type testServer struct {
	*httptest.Server
	db      *sql.DB
	cfg     *config.Config
	notices *recordingDispatcher
}

// testDBSetup creates a temporary SQLite DB for testing.
func testDBSetup(t *testing.T) (*sql.DB, *config.Config) {
	t.Helper()

	testCfg := &config.Config{
		ServerPort:         "0",
		DatabaseURL:        "sqlite://" + filepath.Join(t.TempDir(), "test_schema_designer.db"),
		JWTSecret:          "test_secret_key_for_integration_tests_1234567890",
		JWTExpiration:      time.Minute * 5,
		FrontendURL:        "http://localhost:3000",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		LoginRateLimit:     100,
	}

	db, err := storage.Connect(testCfg)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return db, testCfg
}

// setupTestServer creates a test server instance with a test DB.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cfg := testDBSetup(t)
	notices := &recordingDispatcher{}
	server := httptest.NewServer(api.SetupRouter(db, cfg, notices))
	t.Cleanup(server.Close)

	return &testServer{Server: server, db: db, cfg: cfg, notices: notices}
}

// do sends a JSON request and decodes the JSON response into out (if non-nil).
func (s *testServer) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out), "decoding %s %s response", method, path)
	}
	return res.StatusCode
}

func (s *testServer) register(t *testing.T, username string) *domain.User {
	t.Helper()
	var user domain.User
	status := s.do(t, http.MethodPost, "/users", "", models.CreateUserRequest{
		Username: username, Email: username + "@example.com", Password: "StrongPassword123!",
	}, &user)
	require.Equal(t, http.StatusCreated, status)
	return &user
}

func (s *testServer) login(t *testing.T, username, password string) (int, models.TokenResponse) {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	res, err := http.Post(s.URL+"/token", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer res.Body.Close()

	var tok models.TokenResponse
	if res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(&tok))
	}
	return res.StatusCode, tok
}

func (s *testServer) token(t *testing.T, username string) string {
	t.Helper()
	status, tok := s.login(t, username, "StrongPassword123!")
	require.Equal(t, http.StatusOK, status)
	return tok.AccessToken
}

// TestAuthEndpoints performs integration tests on /users, /token and /users/me.
func TestAuthEndpoints(t *testing.T) {
	s := setupTestServer(t)
	assert := assert.New(t)

	t.Run("Register Success", func(t *testing.T) {
		user := s.register(t, "alice")
		assert.NotZero(user.ID)
		assert.Equal("alice@example.com", user.Email)
		assert.True(user.IsActive)

		stored, err := storage.FindUserByUsername(context.Background(), s.db, "alice")
		require.NoError(t, err)
		assert.True(auth.CheckPasswordHash("StrongPassword123!", stored.PasswordHash), "Stored password hash should match")
	})

	t.Run("Register Conflict", func(t *testing.T) {
		status := s.do(t, http.MethodPost, "/users", "", models.CreateUserRequest{
			Username: "alice", Email: "other@example.com", Password: "StrongPassword123!",
		}, nil)
		assert.Equal(http.StatusConflict, status)

		status = s.do(t, http.MethodPost, "/users", "", models.CreateUserRequest{
			Username: "alice2", Email: "alice@example.com", Password: "StrongPassword123!",
		}, nil)
		assert.Equal(http.StatusConflict, status)
	})

	t.Run("Register Validation", func(t *testing.T) {
		cases := []models.CreateUserRequest{
			{Username: "bob", Email: "invalid-email-format", Password: "StrongPassword123!"},
			{Username: "bob", Email: "bob@example.com", Password: "short"},
			{Username: "bo", Email: "bob@example.com", Password: "StrongPassword123!"},
		}
		for _, req := range cases {
			var body map[string]string
			status := s.do(t, http.MethodPost, "/users", "", req, &body)
			assert.Equal(http.StatusUnprocessableEntity, status)
			assert.NotEmpty(body["error"])
		}
	})

	t.Run("Token Success", func(t *testing.T) {
		status, tok := s.login(t, "alice", "StrongPassword123!")
		assert.Equal(http.StatusOK, status)
		assert.Equal("bearer", tok.TokenType)
		assert.NotEmpty(tok.AccessToken)
	})

	t.Run("Token Wrong Password", func(t *testing.T) {
		status, _ := s.login(t, "alice", "wrongpassword")
		assert.Equal(http.StatusUnauthorized, status)
		status, _ = s.login(t, "nobody", "StrongPassword123!")
		assert.Equal(http.StatusUnauthorized, status)
	})

	t.Run("Current User", func(t *testing.T) {
		var me domain.User
		status := s.do(t, http.MethodGet, "/users/me", s.token(t, "alice"), nil, &me)
		assert.Equal(http.StatusOK, status)
		assert.Equal("alice", me.Username)
	})

	t.Run("Protected Routes Reject Bad Tokens", func(t *testing.T) {
		assert.Equal(http.StatusUnauthorized, s.do(t, http.MethodGet, "/users/me", "", nil, nil))
		assert.Equal(http.StatusUnauthorized, s.do(t, http.MethodGet, "/users/me", "not-a-jwt", nil, nil))

		other, err := auth.GenerateJWT(&domain.User{ID: 1, Username: "alice"}, "another-secret", time.Minute)
		require.NoError(t, err)
		assert.Equal(http.StatusUnauthorized, s.do(t, http.MethodGet, "/users/me", other, nil, nil))

		expired, err := auth.GenerateJWT(&domain.User{ID: 1, Username: "alice"}, s.cfg.JWTSecret, -time.Minute)
		require.NoError(t, err)
		assert.Equal(http.StatusUnauthorized, s.do(t, http.MethodGet, "/users/me", expired, nil, nil))

		ghost, err := auth.GenerateJWT(&domain.User{ID: 4242, Username: "ghost"}, s.cfg.JWTSecret, time.Minute)
		require.NoError(t, err)
		assert.Equal(http.StatusUnauthorized, s.do(t, http.MethodGet, "/users/me", ghost, nil, nil))
	})
}

func TestLoginRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, cfg := testDBSetup(t)
	cfg.LoginRateLimit = 2
	server := httptest.NewServer(api.SetupRouter(db, cfg, notification.NopDispatcher{}))
	defer server.Close()

	s := &testServer{Server: server, db: db, cfg: cfg}
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		status, _ := s.login(t, "nobody", "whatever")
		codes = append(codes, status)
	}
	assert.Equal(t, []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}, codes)
}

func TestPublicEndpoints(t *testing.T) {
	s := setupTestServer(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/", "", nil, &body))
	assert.NotEmpty(t, body["message"])

	res, err := http.Get(s.URL + "/ping")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}
