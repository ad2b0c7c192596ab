package shared

import (
	"github.com/emberline/storefront/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUint reads a uint value from the request context, writing the
// error response itself when the value is missing or malformed.
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "authentication required", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "identity is invalid", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, "identity is invalid", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, "identity type is invalid", nil)
		return 0, false
	}
}
