package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akeamc/skool/internal/middleware"
)

func userFromContext(c *gin.Context) (uuid.UUID, bool) {
	return middleware.CurrentUser(c)
}
