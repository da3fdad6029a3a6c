package skolplattformen

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akeamc/skool/internal/models"
)

// lessonNamespace is the UUIDv5 namespace for deriving stable lesson IDs
// from upstream lesson GUIDs.
var lessonNamespace = uuid.MustParse("662c3131-b181-40dc-88b4-052b18ce534b")

// stockholm is the wall-clock zone all upstream times are expressed in.
var stockholm = mustLoadLocation("Europe/Stockholm")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// rawLesson mirrors the lessonInfo entries of a timetable render.
type rawLesson struct {
	GUID            string   `json:"guidId"`
	Texts           []string `json:"texts"`
	TimeStart       string   `json:"timeStart"`
	TimeEnd         string   `json:"timeEnd"`
	DayOfWeekNumber int      `json:"dayOfWeekNumber"`
}

// rawBox mirrors the boxList entries of a render; boxes carry the lesson
// colours.
type rawBox struct {
	BColor      string   `json:"bColor"`
	LessonGUIDs []string `json:"lessonGuids"`
}

// LessonsByWeek renders one week of a timetable and returns materialised
// lessons. A fresh render key is fetched for every call; keys are single
// use.
func (c *Client) LessonsByWeek(ctx context.Context, unitGUID string, selection Selection, week models.Week) ([]models.Lesson, error) {
	key, err := c.renderKey(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"renderKey":     key,
		"host":          upstreamHost,
		"unitGuid":      unitGUID,
		"width":         732,
		"height":        550,
		"selection":     selection.guid,
		"selectionType": selection.kind,
		"week":          week.Number,
		"year":          week.Year,
	}

	var data struct {
		LessonInfo []rawLesson `json:"lessonInfo"`
		BoxList    []rawBox    `json:"boxList"`
	}
	if err := c.post(ctx, "/ng/api/render/timetable", body, &data); err != nil {
		return nil, err
	}

	return materialiseLessons(data.LessonInfo, data.BoxList, week, c.logger), nil
}

// materialiseLessons converts raw render output into lessons with absolute
// UTC instants. Entries that cannot be placed unambiguously in time are
// dropped rather than guessed at.
func materialiseLessons(raw []rawLesson, boxes []rawBox, week models.Week, logger *zap.Logger) []models.Lesson {
	if logger == nil {
		logger = zap.NewNop()
	}

	colors := make(map[string]models.Color)
	for _, box := range boxes {
		color, err := models.ParseColor(box.BColor)
		if err != nil {
			continue
		}
		for _, guid := range box.LessonGUIDs {
			colors[guid] = color
		}
	}

	monday := week.Monday()
	lessons := make([]models.Lesson, 0, len(raw))

	for _, r := range raw {
		if r.DayOfWeekNumber < 1 || r.DayOfWeekNumber > 7 {
			logger.Debug("dropping lesson with invalid day", zap.Int("day", r.DayOfWeekNumber))
			continue
		}
		day := monday.AddDate(0, 0, r.DayOfWeekNumber-1)

		start, ok := localize(day, r.TimeStart)
		if !ok {
			logger.Debug("dropping lesson with unplaceable start", zap.String("time", r.TimeStart))
			continue
		}
		end, ok := localize(day, r.TimeEnd)
		if !ok {
			logger.Debug("dropping lesson with unplaceable end", zap.String("time", r.TimeEnd))
			continue
		}

		lesson := models.Lesson{
			Start: start,
			End:   end,
		}

		// Empty strings are noise in the texts array; drop them before
		// deciding what the remaining entries mean.
		texts := make([]string, 0, len(r.Texts))
		for _, text := range r.Texts {
			if text != "" {
				texts = append(texts, text)
			}
		}

		switch len(texts) {
		case 0:
		case 1:
			lesson.Course = nonEmpty(texts[0])
		case 2:
			lesson.Course = nonEmpty(texts[0])
			lesson.Location = nonEmpty(texts[1])
		case 3:
			lesson.Course = nonEmpty(texts[0])
			lesson.Teacher = nonEmpty(texts[1])
			lesson.Location = nonEmpty(texts[2])
		default:
			lesson.Course = nonEmpty(texts[0])
		}

		if r.GUID != "" {
			lesson.ID = uuid.NewSHA1(lessonNamespace, []byte(r.GUID))
			if color, ok := colors[r.GUID]; ok {
				c := color
				lesson.Color = &c
			}
		}

		lessons = append(lessons, lesson)
	}

	return lessons
}

// parseClock accepts HH:MM and HH:MM:SS clock strings.
func parseClock(s string) (time.Time, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		t, err = time.Parse("15:04", s)
	}
	return t, err
}

// localize combines a date with a wall clock string in the Stockholm zone
// and returns the UTC instant. Clocks that fall in a DST gap or repeat in a
// DST fold have no single instant and report false.
func localize(day time.Time, clock string) (time.Time, bool) {
	c, err := parseClock(clock)
	if err != nil {
		return time.Time{}, false
	}

	t := time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), c.Second(), 0, stockholm)

	// Nonexistent wall clocks (spring-forward gap) get normalized away by
	// time.Date; detect that by comparing the round trip.
	if t.Hour() != c.Hour() || t.Minute() != c.Minute() {
		return time.Time{}, false
	}

	// Ambiguous wall clocks (fall-back fold) repeat an hour later or earlier
	// with the same reading.
	const layout = "2006-01-02 15:04:05"
	wall := t.Format(layout)
	if t.Add(time.Hour).Format(layout) == wall || t.Add(-time.Hour).Format(layout) == wall {
		return time.Time{}, false
	}

	return t.UTC(), true
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
