package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the request id back to the caller.
const Header = "X-Request-ID"

const contextKey = "requestID"

// Middleware tags every request with an id for log correlation. Inbound ids
// are kept only when they parse as UUIDs; anything else is replaced so
// clients cannot inject arbitrary strings into the logs.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(Header)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)
		c.Next()
	}
}

// Value returns the id assigned by Middleware, or "" outside of it.
func Value(c *gin.Context) string {
	v, _ := c.Get(contextKey)
	id, _ := v.(string)
	return id
}
