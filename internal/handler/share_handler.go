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

type shareService interface {
	Create(ctx context.Context, owner uuid.UUID, options models.Options) (*models.Link, error)
	List(ctx context.Context, owner uuid.UUID) ([]models.Link, error)
	Delete(ctx context.Context, owner uuid.UUID, id models.LinkID) error
}

// ShareHandler exposes share-link management.
type ShareHandler struct {
	service shareService
}

// NewShareHandler builds a new handler.
func NewShareHandler(service shareService) *ShareHandler {
	return &ShareHandler{service: service}
}

// Create mints a new share link for the caller.
func (h *ShareHandler) Create(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid link payload"))
		return
	}

	link, err := h.service.Create(c.Request.Context(), userID, models.Options{
		ExpiresAt: req.ExpiresAt,
		Range:     req.Range,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// List returns the caller's share links.
func (h *ShareHandler) List(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	links, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if links == nil {
		links = []models.Link{}
	}
	response.JSON(c, http.StatusOK, links)
}

// Delete revokes one of the caller's share links.
func (h *ShareHandler) Delete(c *gin.Context) {
	userID, ok := userFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	id, err := models.ParseLinkID(c.Param("id"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "malformed link id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
