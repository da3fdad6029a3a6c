package models

import (
	"fmt"
	"time"
)

// Week identifies an ISO-8601 week. Monday is the first day.
type Week struct {
	Year   int `json:"year"`
	Number int `json:"week"`
}

// NewWeek validates the (year, week) pair against the ISO calendar; week 53
// only exists in long years.
func NewWeek(year, number int) (Week, error) {
	if number < 1 || number > 53 {
		return Week{}, fmt.Errorf("week number %d out of range", number)
	}

	w := Week{Year: year, Number: number}
	if y, n := w.Monday().ISOWeek(); y != year || n != number {
		return Week{}, fmt.Errorf("%d-W%02d is not a valid ISO week", year, number)
	}

	return w, nil
}

// WeekOf returns the ISO week containing t, observed in t's location.
func WeekOf(t time.Time) Week {
	year, number := t.ISOWeek()
	return Week{Year: year, Number: number}
}

// Monday returns the first day of the week as a civil date at UTC midnight.
func (w Week) Monday() time.Time {
	// January 4 is always in ISO week 1.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (w.Number-1)*7)
}

// Sunday returns the last day of the week as a civil date at UTC midnight.
func (w Week) Sunday() time.Time {
	return w.Monday().AddDate(0, 0, 6)
}

// Next returns the following ISO week.
func (w Week) Next() Week {
	return WeekOf(w.Monday().AddDate(0, 0, 7))
}

func (w Week) String() string {
	return fmt.Sprintf("%d-W%02d", w.Year, w.Number)
}
