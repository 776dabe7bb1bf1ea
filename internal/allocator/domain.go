package allocator

import (
	"fmt"
	"time"

	"procedure-scheduler/internal/domain/entity"
)

// PastDatePolicy decides whether slots before today can be booked
type PastDatePolicy string

const (
	PastDatesAllow  PastDatePolicy = "allow"
	PastDatesReject PastDatePolicy = "reject"
)

// Domain is the closed set of bookable rooms and working hours
type Domain struct {
	Rooms     []entity.Room
	FirstHour int
	LastHour  int
	PastDates PastDatePolicy
}

// DefaultDomain returns the four imaging rooms open 9 through 17.
func DefaultDomain() Domain {
	return Domain{
		Rooms: []entity.Room{
			{ID: "angiografo-ge", Label: "Angiógrafo GE"},
			{ID: "angiografo-siemens", Label: "Angiógrafo Siemens"},
			{ID: "tomografia", Label: "Tomografia"},
			{ID: "ultrassom", Label: "Ultrassom"},
		},
		FirstHour: 9,
		LastHour:  17,
		PastDates: PastDatesAllow,
	}
}

// Hours lists the working hours in order
func (d Domain) Hours() []int {
	hours := make([]int, 0, d.LastHour-d.FirstHour+1)
	for h := d.FirstHour; h <= d.LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Room looks up a room by id
func (d Domain) Room(id string) (entity.Room, bool) {
	for _, r := range d.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return entity.Room{}, false
}

// Validate checks s against the enumerated domains and the past-date policy.
// Values outside them are rejected, never clamped.
func (d Domain) Validate(s entity.Slot, today time.Time) error {
	if err := d.Contains(s); err != nil {
		return err
	}

	day := entity.DateOf(s.Day)
	if d.PastDates == PastDatesReject && day.Before(entity.DateOf(today)) {
		return fmt.Errorf("%w: %s is in the past", ErrInvalidSlot, day.Format(entity.SlotDateLayout))
	}

	return nil
}

// Contains checks that s is a weekday, a working hour and a known room
func (d Domain) Contains(s entity.Slot) error {
	if s.Day.IsZero() {
		return fmt.Errorf("%w: day is required", ErrInvalidSlot)
	}

	day := entity.DateOf(s.Day)
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return fmt.Errorf("%w: %s is a %s, not a weekday", ErrInvalidSlot, day.Format(entity.SlotDateLayout), wd)
	}

	if s.Hour < d.FirstHour || s.Hour > d.LastHour {
		return fmt.Errorf("%w: hour %d outside %d-%d", ErrInvalidSlot, s.Hour, d.FirstHour, d.LastHour)
	}

	if _, ok := d.Room(s.Room); !ok {
		return fmt.Errorf("%w: unknown room %q", ErrInvalidSlot, s.Room)
	}

	return nil
}

// RoomLabel returns the display label of a room, or the id if unknown
func (d Domain) RoomLabel(id string) string {
	if r, ok := d.Room(id); ok {
		return r.Label
	}
	return id
}
