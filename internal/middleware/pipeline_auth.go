package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

func abortWithCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}

// PipelineAuthMiddleware guards the transaction ingestion endpoints with
// a shared X-API-Key header. When no key is configured the endpoints are
// disabled entirely rather than left open.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithCode(c, http.StatusServiceUnavailable,
				"PIPELINE_NOT_CONFIGURED", "Pipeline endpoints are not configured")
			return
		}
		presented := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
			abortWithCode(c, http.StatusUnauthorized,
				"INVALID_API_KEY", "Invalid or missing API key")
			return
		}
		c.Next()
	}
}
