package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akeamc/skool/internal/service"
	appErrors "github.com/akeamc/skool/pkg/errors"
	"github.com/akeamc/skool/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated user id.
const ContextUserKey = "currentUser"

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Identity protects routes by requiring a valid bearer token.
func Identity(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token"))
			c.Abort()
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, userID)
		c.Next()
	}
}

// OptionalIdentity attaches the user id when a valid token is present but
// does not block. Share-link requests pass through anonymously.
func OptionalIdentity(tokens *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			c.Next()
			return
		}

		c.Set(ContextUserKey, userID)
		c.Next()
	}
}

// CurrentUser extracts the authenticated user id set by Identity.
func CurrentUser(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
