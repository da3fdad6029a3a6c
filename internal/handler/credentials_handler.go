package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/akeamc/skool/internal/dto"
	"github.com/akeamc/skool/internal/models"
	appErrors "github.com/akeamc/skool/pkg/errors"
	"github.com/akeamc/skool/pkg/response"
)

type credentialsService interface {
	Set(ctx context.Context, userID uuid.UUID, private models.Private) (*models.PublicCredentials, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.PublicCredentials, error)
	Delete(ctx context.Context, userID uuid.UUID) error
}

// CredentialsHandler exposes the credential endpoints.
type CredentialsHandler struct {
	service credentialsService
}

// NewCredentialsHandler builds a new handler.
func NewCredentialsHandler(service credentialsService) *CredentialsHandler {
	return &CredentialsHandler{service: service}
}

// Set verifies and stores the caller's upstream credentials.
func (h *CredentialsHandler) Set(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SetCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid credentials payload"))
		return
	}

	public, err := h.service.Set(c.Request.Context(), userID, models.Private{
		Service:  req.Service,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, public)
}

// Get returns the caller's stored credentials without the password.
func (h *CredentialsHandler) Get(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	public, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, public)
}

// Delete removes the caller's stored credentials.
func (h *CredentialsHandler) Delete(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
