// api/handlers/helpers.go
package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/schema-designer-backend/api/middleware"
	"github.com/Annany2002/schema-designer-backend/internal/core"
	"github.com/Annany2002/schema-designer-backend/internal/domain"
	"github.com/Annany2002/schema-designer-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// currentUser returns the user AuthMiddleware stored in the context.
func currentUser(c *gin.Context) *domain.User {
	return c.MustGet(middleware.ContextUser).(*domain.User)
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: path parameter '%s' must be a positive integer, got '%s'", core.ErrInvalidInput, name, raw)
	}
	return id, nil
}

// bindError attaches a request binding failure so ErrorHandler answers 422.
func bindError(c *gin.Context, err error) {
	customLog.Warnf("%s %s binding error: %v", c.Request.Method, c.FullPath(), err)
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
}
