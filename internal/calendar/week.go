package calendar

import (
	"fmt"
	"strings"
	"time"

	"procedure-scheduler/internal/domain/entity"
)

// WeekDays is the number of visible days, Monday through Friday
const WeekDays = 5

// Direction moves the displayed week
type Direction string

const (
	Stay     Direction = ""
	Previous Direction = "prev"
	Next     Direction = "next"
	Today    Direction = "today"
)

// ParseDirection accepts "", "prev", "next" and "today" (case-insensitive)
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case Stay, Previous, Next, Today:
		return d, nil
	default:
		return Stay, fmt.Errorf("unknown direction %q", s)
	}
}

// Week is the Monday-aligned window shown by every calendar view
type Week struct {
	Anchor time.Time
	Start  time.Time
	Days   [WeekDays]time.Time
}

// Navigate moves anchor by one week in dir, or resets it to today.
func Navigate(anchor time.Time, dir Direction, today time.Time) Week {
	switch dir {
	case Previous:
		anchor = anchor.AddDate(0, 0, -7)
	case Next:
		anchor = anchor.AddDate(0, 0, 7)
	case Today:
		anchor = today
	}
	return WeekOf(anchor)
}

// WeekOf returns the week containing anchor
func WeekOf(anchor time.Time) Week {
	anchor = entity.DateOf(anchor)
	w := Week{Anchor: anchor, Start: WeekStart(anchor)}
	for i := range w.Days {
		w.Days[i] = w.Start.AddDate(0, 0, i)
	}
	return w
}

// WeekStart returns the Monday on or before t. Sunday belongs to the week
// that started six days earlier.
func WeekStart(t time.Time) time.Time {
	day := entity.DateOf(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// IsToday compares calendar dates only
func IsToday(day, today time.Time) bool {
	return entity.DateOf(day).Equal(entity.DateOf(today))
}

// Contains reports whether day is one of the visible days
func (w Week) Contains(day time.Time) bool {
	day = entity.DateOf(day)
	return !day.Before(w.Start) && day.Before(w.Start.AddDate(0, 0, WeekDays))
}
