package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key the auth middleware stores the caller's username under
const IdentityKey = "username"

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// HandleServiceError maps err to a status and logs it, at error level for 5xx and warn otherwise.
// Server errors only expose the generic message, the cause stays in the log.
func HandleServiceError(c *gin.Context, handlerName string, err error, ctx map[string]any) {
	status, message := utils.MapErrorToHTTP(err)

	fields := map[string]any{"handler": handlerName, "error": err.Error()}
	for k, v := range ctx {
		fields[k] = v
	}
	if status >= http.StatusInternalServerError {
		utils.JSONError(c, status, errors.New(message), message)
		utils.Error(handlerName+": request failed", fields)
		return
	}

	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
	utils.Warn(handlerName+": request rejected", fields)
}

// CurrentUser returns the authenticated username set by the auth middleware
func CurrentUser(c *gin.Context) (string, bool) {
	username := c.GetString(IdentityKey)
	return username, username != ""
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
