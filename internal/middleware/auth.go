// Package middleware provides gin middleware for the HTTP surface.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

const (
	headerAuth   = "Authorization"
	bearerPrefix = "Bearer "

	// AuthSourceKey is set on the gin context when a request carried a valid
	// trigger token. Requests without the key must authenticate another way
	// downstream.
	AuthSourceKey = "authSource"

	// AuthSourceToken marks a request authenticated by the shared trigger secret.
	AuthSourceToken = "token"
)

// TriggerAuth validates the shared trigger secret when one is presented.
//
// A valid bearer token marks the request as token-authenticated and lets it
// through; a present-but-wrong token is rejected immediately. Requests with
// no Authorization header pass through unmarked so the handler can accept
// pre-authenticated manual invocations.
func TriggerAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(headerAuth)
		if header == "" {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, bearerPrefix)
		if !strings.HasPrefix(header, bearerPrefix) || !validToken(token, secret) {
			logger.Log.Warn("rejected trigger request with invalid token",
				zap.String("path", c.Request.URL.Path),
				zap.String("remoteAddr", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(AuthSourceKey, AuthSourceToken)
		c.Next()
	}
}

// validToken compares the presented token against the configured secret in
// constant time. An unconfigured secret rejects everything.
func validToken(token, secret string) bool {
	if token == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
