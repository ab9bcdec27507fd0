// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Annany2002/schema-designer-backend/internal/auth"
	"github.com/Annany2002/schema-designer-backend/internal/collaboration"
	"github.com/Annany2002/schema-designer-backend/internal/core"
	"github.com/Annany2002/schema-designer-backend/internal/domain"
	"github.com/Annany2002/schema-designer-backend/internal/storage"
)

// ErrorHandler creates a Gin middleware for centralized error handling.
// Handlers attach errors with c.Error and return; the last one decides the response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		ginErr := c.Errors.Last()
		err := ginErr.Err

		customLog.Debugf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		statusCode, userMessage := classify(ginErr)
		if statusCode == http.StatusUnauthorized {
			c.Header("WWW-Authenticate", "Bearer")
		}
		if statusCode == http.StatusInternalServerError {
			customLog.Errorf("Unhandled error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		}

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		} else {
			customLog.Warnf("[ErrorHandler] Response already written before handling error: %v", err)
		}
	}
}

func classify(ginErr *gin.Error) (int, string) {
	err := ginErr.Err

	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrDiagramNotFound),
		errors.Is(err, storage.ErrCollaboratorNotFound),
		errors.Is(err, storage.ErrInvitationNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, storage.ErrUsernameExists),
		errors.Is(err, storage.ErrEmailExists),
		errors.Is(err, storage.ErrInvitationPending):
		return http.StatusConflict, err.Error()

	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized, "Authentication token has expired."
	case errors.Is(err, auth.ErrNotAuthenticated),
		errors.Is(err, auth.ErrInactiveUser),
		errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenClaimsInvalid),
		errors.Is(err, auth.ErrUnexpectedSigningMethod):
		return http.StatusUnauthorized, "Could not validate credentials"

	case errors.As(err, &validationErrs):
		for _, fe := range validationErrs {
			customLog.Debugf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
		}
		return http.StatusUnprocessableEntity, "Validation failed: " + err.Error()
	case ginErr.IsType(gin.ErrorTypeBind):
		return http.StatusUnprocessableEntity, "Invalid request body: " + err.Error()
	case errors.Is(err, core.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidPermission),
		errors.Is(err, collaboration.ErrInviteOwner):
		return http.StatusUnprocessableEntity, err.Error()

	default:
		return http.StatusInternalServerError, "An unexpected internal server error occurred."
	}
}
