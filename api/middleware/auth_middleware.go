// api/middleware/auth_middleware.go
package middleware

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/schema-designer-backend/config"
	"github.com/Annany2002/schema-designer-backend/internal/auth"
	"github.com/Annany2002/schema-designer-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "userId"
	ContextUser   = "user"
)

// AuthMiddleware resolves the Bearer token to an active user and stores it
// in the context. Failures are attached for ErrorHandler to answer with 401.
func AuthMiddleware(db *sql.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			_ = c.Error(auth.ErrNotAuthenticated)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			_ = c.Error(fmt.Errorf("%w: authorization header format must be Bearer {token}", auth.ErrTokenMalformed))
			c.Abort()
			return
		}

		user, err := auth.CurrentUser(c.Request.Context(), db, strings.TrimSpace(parts[1]), cfg.JWTSecret)
		if err != nil {
			customLog.Printf("AuthMiddleware: Token validation failed: %v", err)
			_ = c.Error(err)
			c.Abort()
			return
		}

		customLog.Debugf("AuthMiddleware: Token validated successfully for UserID: %d", user.ID)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)

		c.Next()
	}
}
