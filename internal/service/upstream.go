package service

import (
	"context"

	"github.com/akeamc/skool/internal/models"
	"github.com/akeamc/skool/internal/skolplattformen"
)

// Upstream is the slice of the timetable client the services consume.
type Upstream interface {
	ListTimetables(ctx context.Context) ([]skolplattformen.Timetable, error)
	AvailableFilters(ctx context.Context, unitGUID string) (*skolplattformen.Filters, error)
	LessonsByWeek(ctx context.Context, unitGUID string, selection skolplattformen.Selection, week models.Week) ([]models.Lesson, error)
}

// ClientFactory turns a session into an RPC client. Injected so tests can
// substitute fakes without an HTTP upstream.
type ClientFactory func(session *models.Session) (Upstream, error)
