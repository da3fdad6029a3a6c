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

type scheduleService interface {
	Lessons(ctx context.Context, userID *uuid.UUID, selection models.Selection, week models.Week) ([]models.Lesson, error)
	ICalendar(ctx context.Context, shareID models.LinkID) (string, error)
}

// ScheduleHandler exposes the lesson read endpoints.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler builds a new handler.
func NewScheduleHandler(service scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// parseSelection maps the query string to a selection, rejecting
// contradictory combinations before any I/O happens.
func parseSelection(query dto.ScheduleQuery) (models.Selection, error) {
	if query.Class != "" && query.Share != "" {
		return models.Selection{}, appErrors.Clone(appErrors.ErrBadRequest, "class and share are mutually exclusive")
	}
	if query.Share != "" {
		id, err := models.ParseLinkID(query.Share)
		if err != nil {
			return models.Selection{}, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "malformed share id")
		}
		return models.ShareSelection(id), nil
	}
	if query.Class != "" {
		return models.ClassSelection(query.Class), nil
	}
	return models.SelfSelection(), nil
}

// Lessons serves one week of lessons as JSON.
func (h *ScheduleHandler) Lessons(c *gin.Context) {
	var query dto.ScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "year and week are required"))
		return
	}

	week, err := models.NewWeek(query.Year, query.Week)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "invalid ISO week"))
		return
	}

	selection, err := parseSelection(query)
	if err != nil {
		response.Error(c, err)
		return
	}

	var userID *uuid.UUID
	if id, ok := userFromContext(c); ok {
		userID = &id
	}

	lessons, err := h.service.Lessons(c.Request.Context(), userID, selection, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	response.JSON(c, http.StatusOK, lessons)
}

// ICalendar serves a share link's schedule as a text/calendar feed.
func (h *ScheduleHandler) ICalendar(c *gin.Context) {
	share := c.Query("share")
	if share == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "share is required"))
		return
	}
	id, err := models.ParseLinkID(share)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "malformed share id"))
		return
	}

	calendar, err := h.service.ICalendar(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(calendar))
}
