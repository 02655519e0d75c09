package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// Header is the request ID header propagated to and from clients.
	Header     = "X-Request-ID"
	contextKey = "request_id"
)

// Middleware tags every request with an ID. An inbound X-Request-ID is
// trusted and reused so IDs stay stable across the frontend, this API and
// the workflow backend; otherwise a fresh UUID is assigned.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context, or "".
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
