package service

import (
	"context"
	"sync"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akeamc/skool/internal/models"
	"github.com/akeamc/skool/internal/skolplattformen"
	appErrors "github.com/akeamc/skool/pkg/errors"
)

// lessonFanOut caps concurrent render RPCs per aggregation.
const lessonFanOut = 8

// icalMaxWeeks caps how far ahead a calendar feed reaches.
const icalMaxWeeks = 28

// icalLookBehind is how many weeks before today a feed starts.
const icalLookBehind = 4

type scheduleSessionProvider interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Session, error)
}

type scheduleCredentialsReader interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Credentials, error)
	FindPeer(ctx context.Context, school models.SchoolHash, class string, exclude uuid.UUID) (uuid.UUID, *models.Credentials, error)
}

type scheduleShareResolver interface {
	Resolve(ctx context.Context, id models.LinkID) (*models.Link, error)
}

// ScheduleService aggregates lessons across weeks and selections.
type ScheduleService struct {
	sessions    scheduleSessionProvider
	credentials scheduleCredentialsReader
	shares      scheduleShareResolver
	factory     ClientFactory
	logger      *zap.Logger
	now         func() time.Time
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(sessions scheduleSessionProvider, credentials scheduleCredentialsReader, shares scheduleShareResolver, factory ClientFactory, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		sessions:    sessions,
		credentials: credentials,
		shares:      shares,
		factory:     factory,
		logger:      logger,
		now:         time.Now,
	}
}

// target is a resolved render destination: a client plus what to ask it for.
type target struct {
	client    Upstream
	unitGUID  string
	selection skolplattformen.Selection
}

// Lessons returns one week of lessons for the given selection. userID is nil
// for unauthenticated share requests.
func (s *ScheduleService) Lessons(ctx context.Context, userID *uuid.UUID, selection models.Selection, week models.Week) ([]models.Lesson, error) {
	if selection.Kind == models.SelectShare {
		link, err := s.shares.Resolve(ctx, selection.Share)
		if err != nil {
			return nil, err
		}
		if !PermitsWeek(link, week) {
			return nil, appErrors.ErrInvalidShareLink
		}

		tgt, err := s.shareTarget(ctx, link)
		if err != nil {
			return nil, err
		}
		return tgt.client.LessonsByWeek(ctx, tgt.unitGUID, tgt.selection, week)
	}

	if userID == nil {
		return nil, appErrors.ErrMissingCredentials
	}

	var (
		tgt *target
		err error
	)
	switch selection.Kind {
	case models.SelectClass:
		tgt, err = s.classTarget(ctx, *userID, selection.Class)
	default:
		tgt, err = s.selfTarget(ctx, *userID)
	}
	if err != nil {
		return nil, err
	}

	return tgt.client.LessonsByWeek(ctx, tgt.unitGUID, tgt.selection, week)
}

// selfTarget resolves the caller's own personal timetable.
func (s *ScheduleService) selfTarget(ctx context.Context, userID uuid.UUID) (*target, error) {
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.personalTarget(ctx, session)
}

// personalTarget picks the session owner's first personal timetable.
func (s *ScheduleService) personalTarget(ctx context.Context, session *models.Session) (*target, error) {
	client, err := s.factory(session)
	if err != nil {
		return nil, err
	}

	timetables, err := client.ListTimetables(ctx)
	if err != nil {
		return nil, err
	}
	if len(timetables) == 0 {
		return nil, appErrors.ErrTimetableNotFound
	}

	return &target{
		client:    client,
		unitGUID:  timetables[0].UnitGUID,
		selection: skolplattformen.StudentSelection(timetables[0].PersonGUID),
	}, nil
}

// shareTarget resolves a link to its owner's personal timetable. A revoked
// owner makes the link invalid rather than leaking why.
func (s *ScheduleService) shareTarget(ctx context.Context, link *models.Link) (*target, error) {
	session, err := s.sessions.Get(ctx, link.Owner)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrMissingCredentials) {
			return nil, appErrors.ErrInvalidShareLink
		}
		return nil, err
	}
	return s.personalTarget(ctx, session)
}

// classTarget resolves a class reference to a whole-class render, riding a
// registered classmate's session when the caller is not in the class.
func (s *ScheduleService) classTarget(ctx context.Context, userID uuid.UUID, reference string) (*target, error) {
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	client, err := s.factory(session)
	if err != nil {
		return nil, err
	}

	timetables, err := client.ListTimetables(ctx)
	if err != nil {
		return nil, err
	}
	if len(timetables) == 0 {
		return nil, appErrors.ErrTimetableNotFound
	}
	unitGUID := timetables[0].UnitGUID
	school := models.NewSchoolHash(models.SystemSkolplattformen, []byte(unitGUID))

	// The caller's own session suffices when they belong to the class.
	own, err := s.credentials.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if own != nil && own.Class != nil && *own.Class == reference {
		return &target{
			client:    client,
			unitGUID:  unitGUID,
			selection: skolplattformen.ClassSelection(reference),
		}, nil
	}

	peerID, peer, err := s.credentials.FindPeer(ctx, school, reference, userID)
	if err != nil {
		return nil, err
	}
	if peer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	peerSession, err := s.sessions.Get(ctx, peerID)
	if err != nil {
		return nil, err
	}
	peerClient, err := s.factory(peerSession)
	if err != nil {
		return nil, err
	}

	peerTimetables, err := peerClient.ListTimetables(ctx)
	if err != nil {
		return nil, err
	}
	if len(peerTimetables) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	return &target{
		client:    peerClient,
		unitGUID:  peerTimetables[0].UnitGUID,
		selection: skolplattformen.ClassSelection(reference),
	}, nil
}

// lessonRange fetches several weeks concurrently. Order is unspecified; any
// failing week aborts the whole aggregation.
func (s *ScheduleService) lessonRange(ctx context.Context, tgt *target, weeks []models.Week) ([]models.Lesson, error) {
	var (
		mu      sync.Mutex
		lessons []models.Lesson
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lessonFanOut)
	for _, week := range weeks {
		week := week
		g.Go(func() error {
			batch, err := tgt.client.LessonsByWeek(gctx, tgt.unitGUID, tgt.selection, week)
			if err != nil {
				return err
			}
			mu.Lock()
			lessons = append(lessons, batch...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lessons, nil
}

// ICalendar renders a share link's schedule as a VCALENDAR document. Weeks
// start a few weeks back and run while the link's range allows, capped at
// icalMaxWeeks.
func (s *ScheduleService) ICalendar(ctx context.Context, shareID models.LinkID) (string, error) {
	link, err := s.shares.Resolve(ctx, shareID)
	if err != nil {
		return "", err
	}

	tgt, err := s.shareTarget(ctx, link)
	if err != nil {
		return "", err
	}

	week := models.WeekOf(s.now().AddDate(0, 0, -7*icalLookBehind))
	var weeks []models.Week
	for len(weeks) < icalMaxWeeks && PermitsWeek(link, week) {
		weeks = append(weeks, week)
		week = week.Next()
	}

	lessons, err := s.lessonRange(ctx, tgt, weeks)
	if err != nil {
		return "", err
	}

	return renderCalendar(lessons), nil
}

func renderCalendar(lessons []models.Lesson) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//skool//skool//EN")

	for _, lesson := range lessons {
		event := cal.AddEvent(lesson.ID.String())
		event.SetStartAt(lesson.Start)
		event.SetEndAt(lesson.End)

		summary := "(Namnlös)"
		if lesson.Course != nil {
			summary = *lesson.Course
		}
		event.SetSummary(summary)

		if lesson.Location != nil {
			event.SetLocation(*lesson.Location)
		}
		if lesson.Teacher != nil {
			event.SetDescription(*lesson.Teacher)
		}
	}

	return cal.Serialize()
}
