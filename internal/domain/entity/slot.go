package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotDateLayout is the date part of a composite slot time ("2024-06-03-9")
const SlotDateLayout = "2006-01-02"

var ErrMalformedSlotTime = errors.New("malformed slot time, use YYYY-MM-DD-H")

// Room is a schedulable room (id is the stable key, label is for display)
type Room struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Slot identifies one bookable hour in one room
type Slot struct {
	Day  time.Time
	Hour int
	Room string
}

// NewSlot builds a slot with day normalized to its calendar date.
func NewSlot(day time.Time, hour int, room string) Slot {
	return Slot{Day: DateOf(day), Hour: hour, Room: room}
}

// DateOf returns midnight UTC of t's calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Time returns the composite "<date>-<hour>" string of the slot
func (s Slot) Time() string {
	return EncodeSlotTime(s.Day, s.Hour)
}

// Equal compares all three components exactly
func (s Slot) Equal(o Slot) bool {
	return DateOf(s.Day).Equal(DateOf(o.Day)) && s.Hour == o.Hour && s.Room == o.Room
}

func (s Slot) String() string {
	return s.Time() + "@" + s.Room
}

// EncodeSlotTime formats day and hour as "YYYY-MM-DD-H".
func EncodeSlotTime(day time.Time, hour int) string {
	return fmt.Sprintf("%s-%d", day.Format(SlotDateLayout), hour)
}

// DecodeSlotTime parses a string produced by EncodeSlotTime. The date itself
// contains dashes, so the hour is whatever follows the last one.
func DecodeSlotTime(s string) (time.Time, int, error) {
	i := strings.LastIndex(s, "-")
	if i <= 0 || i == len(s)-1 {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrMalformedSlotTime, s)
	}

	day, err := time.Parse(SlotDateLayout, s[:i])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrMalformedSlotTime, s)
	}

	hourStr := s[i+1:]
	hour, err := strconv.Atoi(hourStr)
	if err != nil || strconv.Itoa(hour) != hourStr {
		return time.Time{}, 0, fmt.Errorf("%w: %q", ErrMalformedSlotTime, s)
	}

	return day, hour, nil
}
