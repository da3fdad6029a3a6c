package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
	"github.com/akeamc/skool/pkg/response"
)

type classService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Class, error)
}

// ClassHandler exposes the class listing.
type ClassHandler struct {
	service classService
}

// NewClassHandler builds a new handler.
func NewClassHandler(service classService) *ClassHandler {
	return &ClassHandler{service: service}
}

// List returns the classes of the caller's school.
func (h *ClassHandler) List(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	classes, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes)
}
