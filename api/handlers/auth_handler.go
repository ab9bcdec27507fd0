// api/handlers/auth_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/schema-designer-backend/api/models"
	"github.com/Annany2002/schema-designer-backend/config"
	"github.com/Annany2002/schema-designer-backend/internal/auth"
	"github.com/Annany2002/schema-designer-backend/internal/storage"
)

// AuthHandler holds dependencies for account and token handlers.
type AuthHandler struct {
	DB  *sql.DB
	Cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler with dependencies.
func NewAuthHandler(db *sql.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		DB:  db,
		Cfg: cfg,
	}
}

// Register handles user registration requests.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		customLog.Warnf("Failed to hash password during registration for %s: %v", req.Username, err)
		_ = c.Error(err)
		return
	}

	user, err := storage.CreateUser(c.Request.Context(), h.DB, req.Username, req.Email, hashedPassword)
	if err != nil {
		customLog.Warnf("Failed to create user %s: %v", req.Username, err)
		_ = c.Error(err)
		return
	}

	customLog.Printf("Successfully registered user %s (id %d)", user.Username, user.ID)
	c.JSON(http.StatusCreated, user)
}

// Token exchanges form-encoded credentials for a bearer token.
func (h *AuthHandler) Token(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := auth.Authenticate(c.Request.Context(), h.DB, req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	tokenString, err := auth.GenerateJWT(user, h.Cfg.JWTSecret, h.Cfg.JWTExpiration)
	if err != nil {
		customLog.Warnf("Failed to generate JWT for user %d: %v", user.ID, err)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{AccessToken: tokenString, TokenType: "bearer"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}
