package usecase

import (
	"context"
	"fmt"
	"time"

	"procedure-scheduler/internal/allocator"
	"procedure-scheduler/internal/calendar"
	"procedure-scheduler/internal/converter"
	"procedure-scheduler/internal/delivery/dto"
	"procedure-scheduler/internal/domain/entity"
	"procedure-scheduler/internal/service"

	"github.com/sirupsen/logrus"
)

type CalendarUsecase interface {
	GetWeek(ctx context.Context, query *dto.CalendarQuery) (*dto.CalendarResponse, error)
}

type calendarUsecase struct {
	log    *logrus.Logger
	allocs *service.AllocatorService
	now    func() time.Time
}

func NewCalendarUsecase(log *logrus.Logger, allocs *service.AllocatorService, now func() time.Time) CalendarUsecase {
	if now == nil {
		now = time.Now
	}
	return &calendarUsecase{
		log:    log,
		allocs: allocs,
		now:    now,
	}
}

// GetWeek renders the navigated week. With a room every cell holds at most one
// entry; without one, all rooms are merged and a cell is available while any
// room is free.
func (u *calendarUsecase) GetWeek(ctx context.Context, query *dto.CalendarQuery) (*dto.CalendarResponse, error) {
	d := u.allocs.Domain()
	today := entity.DateOf(u.now())

	rooms := d.Rooms
	if query.Room != "" {
		room, ok := d.Room(query.Room)
		if !ok {
			return nil, fmt.Errorf("%w: unknown room %q", allocator.ErrInvalidSlot, query.Room)
		}
		rooms = []entity.Room{room}
	}

	anchor := today
	if query.Date != "" {
		parsed, err := time.Parse(entity.SlotDateLayout, query.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid date %q", allocator.ErrInvalidSlot, query.Date)
		}
		anchor = parsed
	}

	dir, err := calendar.ParseDirection(query.Nav)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", allocator.ErrInvalidSlot, err)
	}

	week := calendar.Navigate(anchor, dir, today)

	resp := &dto.CalendarResponse{
		Anchor:    week.Anchor.Format(entity.SlotDateLayout),
		WeekStart: week.Start.Format(entity.SlotDateLayout),
		Today:     today.Format(entity.SlotDateLayout),
		Days:      make([]dto.CalendarDayResponse, 0, len(week.Days)),
		Rows:      make([]dto.CalendarRowResponse, 0, d.LastHour-d.FirstHour+1),
	}
	if query.Room != "" {
		resp.Room = &dto.RoomResponse{ID: rooms[0].ID, Label: rooms[0].Label}
	}

	for _, day := range week.Days {
		resp.Days = append(resp.Days, dto.CalendarDayResponse{
			Date:    day.Format(entity.SlotDateLayout),
			Weekday: day.Weekday().String(),
			IsToday: calendar.IsToday(day, today),
		})
	}

	_ = u.allocs.Do(func(a *allocator.Allocator) error {
		for _, hour := range d.Hours() {
			row := dto.CalendarRowResponse{Hour: hour, Cells: make([]dto.CalendarCellResponse, 0, len(week.Days))}

			for _, day := range week.Days {
				cell := dto.CalendarCellResponse{
					Date:    day.Format(entity.SlotDateLayout),
					Time:    entity.EncodeSlotTime(day, hour),
					Entries: []dto.CalendarEntryResponse{},
				}

				for _, room := range rooms {
					occupant, ok := a.Find(entity.NewSlot(day, hour, room.ID))
					if !ok {
						continue
					}
					cell.Entries = append(cell.Entries, dto.CalendarEntryResponse{
						Room:      room.ID,
						RoomLabel: room.Label,
						Procedure: *converter.ProcedureToResponse(&occupant, d),
					})
				}
				cell.Available = len(cell.Entries) < len(rooms)

				row.Cells = append(row.Cells, cell)
			}
			resp.Rows = append(resp.Rows, row)
		}
		return nil
	})

	return resp, nil
}
