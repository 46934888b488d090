package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "budgetify/internal/errors"
)

const apiKeyHeader = "X-API-Key"

// APIKeyMiddleware guards machine-to-machine endpoints, such as an external
// cron triggering a posting run, with a shared key in the X-API-Key header.
// With no key configured every request is refused.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWith(c, apperrors.ErrAPIKeyNotSet)
			return
		}
		key := c.GetHeader(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWith(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
