package dto

import (
	"time"

	"github.com/akeamc/skool/internal/models"
)

// SetCredentialsRequest is the payload for storing upstream credentials.
type SetCredentialsRequest struct {
	Service  string `json:"service" binding:"required,oneof=skolplattformen"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateLinkRequest is the payload for minting a share link.
type CreateLinkRequest struct {
	ExpiresAt *time.Time       `json:"expires_at"`
	Range     models.DateRange `json:"range"`
}

// ScheduleQuery is the query string of the schedule endpoints.
type ScheduleQuery struct {
	Year  int    `form:"year" binding:"required"`
	Week  int    `form:"week" binding:"required"`
	Class string `form:"class"`
	Share string `form:"share"`
}
