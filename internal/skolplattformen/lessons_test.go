package skolplattformen

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akeamc/skool/internal/models"
)

func mustWeek(t *testing.T, year, number int) models.Week {
	t.Helper()
	w, err := models.NewWeek(year, number)
	require.NoError(t, err)
	return w
}

func TestMaterialiseLessons(t *testing.T) {
	raw := []rawLesson{{
		GUID:            "L1",
		Texts:           []string{"Math", "Mr A", "R12"},
		TimeStart:       "08:00",
		TimeEnd:         "08:45",
		DayOfWeekNumber: 1,
	}}
	boxes := []rawBox{{BColor: "#abcdef", LessonGUIDs: []string{"L1"}}}

	lessons := materialiseLessons(raw, boxes, mustWeek(t, 2024, 10), nil)
	require.Len(t, lessons, 1)

	l := lessons[0]
	assert.Equal(t, uuid.NewSHA1(lessonNamespace, []byte("L1")), l.ID)
	assert.Equal(t, "2024-03-04T07:00:00Z", l.Start.Format(time.RFC3339))
	assert.Equal(t, "2024-03-04T07:45:00Z", l.End.Format(time.RFC3339))
	require.NotNil(t, l.Course)
	assert.Equal(t, "Math", *l.Course)
	require.NotNil(t, l.Teacher)
	assert.Equal(t, "Mr A", *l.Teacher)
	require.NotNil(t, l.Location)
	assert.Equal(t, "R12", *l.Location)
	require.NotNil(t, l.Color)
	assert.Equal(t, "#abcdef", l.Color.HexString())
}

func TestMaterialiseTwoTexts(t *testing.T) {
	raw := []rawLesson{{
		GUID:            "L2",
		Texts:           []string{"Gym", "Hall B"},
		TimeStart:       "10:00",
		TimeEnd:         "11:00",
		DayOfWeekNumber: 3,
	}}

	lessons := materialiseLessons(raw, nil, mustWeek(t, 2024, 10), nil)
	require.Len(t, lessons, 1)

	l := lessons[0]
	require.NotNil(t, l.Course)
	assert.Equal(t, "Gym", *l.Course)
	assert.Nil(t, l.Teacher)
	require.NotNil(t, l.Location)
	assert.Equal(t, "Hall B", *l.Location)
	assert.Nil(t, l.Color)
}

func TestMaterialiseSkipsEmptyTexts(t *testing.T) {
	raw := []rawLesson{{
		GUID:            "L5",
		Texts:           []string{"Math", "R12", ""},
		TimeStart:       "08:00",
		TimeEnd:         "08:45",
		DayOfWeekNumber: 1,
	}}

	lessons := materialiseLessons(raw, nil, mustWeek(t, 2024, 10), nil)
	require.Len(t, lessons, 1)

	// Two non-empty entries mean course and location, never a teacher.
	l := lessons[0]
	require.NotNil(t, l.Course)
	assert.Equal(t, "Math", *l.Course)
	assert.Nil(t, l.Teacher)
	require.NotNil(t, l.Location)
	assert.Equal(t, "R12", *l.Location)
}

func TestMaterialiseManyTextsKeepsCourseOnly(t *testing.T) {
	raw := []rawLesson{{
		GUID:            "L3",
		Texts:           []string{"Bio", "x", "y", "z"},
		TimeStart:       "09:00",
		TimeEnd:         "09:40",
		DayOfWeekNumber: 2,
	}}

	lessons := materialiseLessons(raw, nil, mustWeek(t, 2024, 10), nil)
	require.Len(t, lessons, 1)
	require.NotNil(t, lessons[0].Course)
	assert.Equal(t, "Bio", *lessons[0].Course)
	assert.Nil(t, lessons[0].Teacher)
	assert.Nil(t, lessons[0].Location)
}

func TestMaterialiseDropsInvalidDay(t *testing.T) {
	raw := []rawLesson{
		{GUID: "a", TimeStart: "08:00", TimeEnd: "09:00", DayOfWeekNumber: 0},
		{GUID: "b", TimeStart: "08:00", TimeEnd: "09:00", DayOfWeekNumber: 8},
	}

	lessons := materialiseLessons(raw, nil, mustWeek(t, 2024, 10), nil)
	assert.Empty(t, lessons)
}

func TestMaterialiseDropsBadClocks(t *testing.T) {
	raw := []rawLesson{
		{GUID: "a", TimeStart: "not a time", TimeEnd: "09:00", DayOfWeekNumber: 1},
		{GUID: "b", TimeStart: "08:00", TimeEnd: "25:00", DayOfWeekNumber: 1},
	}

	lessons := materialiseLessons(raw, nil, mustWeek(t, 2024, 10), nil)
	assert.Empty(t, lessons)
}

func TestMaterialiseAcceptsSeconds(t *testing.T) {
	raw := []rawLesson{{
		GUID:            "L4",
		Texts:           []string{"Chem"},
		TimeStart:       "08:15:30",
		TimeEnd:         "09:00:00",
		DayOfWeekNumber: 5,
	}}

	lessons := materialiseLessons(raw, nil, mustWeek(t, 2024, 10), nil)
	require.Len(t, lessons, 1)
	assert.Equal(t, "2024-03-08T07:15:30Z", lessons[0].Start.Format(time.RFC3339))
}

func TestLocalizeDSTGap(t *testing.T) {
	// Clocks jump 02:00 -> 03:00 on 2024-03-31 in Stockholm.
	day := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	_, ok := localize(day, "02:30")
	assert.False(t, ok)

	got, ok := localize(day, "12:00")
	require.True(t, ok)
	assert.Equal(t, "2024-03-31T10:00:00Z", got.Format(time.RFC3339))
}

func TestLocalizeDSTFold(t *testing.T) {
	// 02:30 occurs twice on 2024-10-27 in Stockholm.
	day := time.Date(2024, time.October, 27, 0, 0, 0, 0, time.UTC)

	_, ok := localize(day, "02:30")
	assert.False(t, ok)

	got, ok := localize(day, "12:00")
	require.True(t, ok)
	assert.Equal(t, "2024-10-27T11:00:00Z", got.Format(time.RFC3339))
}

func TestLocalizeNormalDay(t *testing.T) {
	day := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

	got, ok := localize(day, "08:00")
	require.True(t, ok)
	assert.Equal(t, "2024-03-04T07:00:00Z", got.Format(time.RFC3339))
}
