package server

import (
	"fmt"
	"net/http"
	"time"

	"auction-bidding/internal/auth"
	"auction-bidding/internal/biddingerrors"
	"auction-bidding/services/bidding/helpers"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
)

// TokenVerifier resolves a bearer token to a username
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if username, ok := helpers.CurrentUser(c); ok {
		fields["username"] = username
	}
	utils.Info("HTTP Request", fields)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the caller's username
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			err := fmt.Errorf("%w - missing bearer token", biddingerrors.ErrUnauthenticated)
			utils.JSONError(c, http.StatusUnauthorized, err, "token is not valid")
			c.Abort()
			return
		}

		username, err := verifier.Verify(token)
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, err, "token is not valid")
			utils.Warn("AuthMiddleware: rejected token", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(helpers.IdentityKey, username)
		c.Next()
	}
}
