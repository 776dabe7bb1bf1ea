package allocator

import (
	"fmt"
	"sort"
	"time"

	"procedure-scheduler/internal/domain/entity"

	"github.com/google/uuid"
)

type slotKey struct {
	day  string
	hour int
	room string
}

func keyOf(s entity.Slot) slotKey {
	return slotKey{day: s.Day.Format(entity.SlotDateLayout), hour: s.Hour, room: s.Room}
}

// Option configures an Allocator
type Option func(*Allocator)

// WithClock overrides the clock used for the past-date policy and timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Allocator) {
		a.now = now
	}
}

// Allocator owns the pending/scheduled partition and enforces that no two
// scheduled procedures share a (day, hour, room) slot.
//
// An Allocator is not safe for concurrent use. Callers serialize access; every
// method returns or fails immediately. Procedures handed out are copies.
type Allocator struct {
	domain     Domain
	now        func() time.Time
	procedures map[uuid.UUID]*entity.Procedure
	occupancy  map[slotKey]uuid.UUID
}

// New creates an empty Allocator over domain
func New(domain Domain, opts ...Option) *Allocator {
	a := &Allocator{
		domain:     domain,
		now:        time.Now,
		procedures: make(map[uuid.UUID]*entity.Procedure),
		occupancy:  make(map[slotKey]uuid.UUID),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Domain returns the rooms and hours the allocator validates against
func (a *Allocator) Domain() Domain {
	return a.domain
}

// Load replaces the whole state with procs. The status of each procedure is
// taken from the presence of its binding. It fails without changing state if
// two bindings share a slot or an id repeats.
func (a *Allocator) Load(procs []entity.Procedure) error {
	procedures := make(map[uuid.UUID]*entity.Procedure, len(procs))
	occupancy := make(map[slotKey]uuid.UUID)

	for i := range procs {
		p := procs[i].Clone()
		if _, exists := procedures[p.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateProcedure, p.ID)
		}

		if p.Binding != nil {
			key := keyOf(p.Binding.Slot())
			if other, taken := occupancy[key]; taken {
				return fmt.Errorf("%w: %s held by %s and %s", ErrSlotTaken, p.Binding.Slot(), other, p.ID)
			}
			occupancy[key] = p.ID
			p.Status = entity.ProcedureStatusScheduled
		} else {
			p.Status = entity.ProcedureStatusPending
		}

		procedures[p.ID] = &p
	}

	a.procedures = procedures
	a.occupancy = occupancy
	return nil
}

// Add registers a new pending procedure
func (a *Allocator) Add(p entity.Procedure) (entity.Procedure, error) {
	if _, exists := a.procedures[p.ID]; exists {
		return entity.Procedure{}, fmt.Errorf("%w: %s", ErrDuplicateProcedure, p.ID)
	}

	stored := p.Clone()
	stored.Status = entity.ProcedureStatusPending
	stored.Binding = nil
	a.procedures[stored.ID] = &stored

	return stored.Clone(), nil
}

// Restore puts back a procedure exactly as given, binding included. It is the
// inverse of Remove.
func (a *Allocator) Restore(p entity.Procedure) error {
	if _, exists := a.procedures[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateProcedure, p.ID)
	}

	stored := p.Clone()
	if stored.Binding != nil {
		key := keyOf(stored.Binding.Slot())
		if _, taken := a.occupancy[key]; taken {
			return fmt.Errorf("%w: %s", ErrSlotTaken, stored.Binding.Slot())
		}
		a.occupancy[key] = stored.ID
		stored.Status = entity.ProcedureStatusScheduled
	} else {
		stored.Status = entity.ProcedureStatusPending
	}

	a.procedures[stored.ID] = &stored
	return nil
}

// Remove deletes a procedure and frees its slot
func (a *Allocator) Remove(id uuid.UUID) (entity.Procedure, error) {
	p, ok := a.procedures[id]
	if !ok {
		return entity.Procedure{}, fmt.Errorf("%w: %s", ErrProcedureNotFound, id)
	}

	if p.Binding != nil {
		delete(a.occupancy, keyOf(p.Binding.Slot()))
	}
	delete(a.procedures, id)

	return p.Clone(), nil
}

// Get returns a copy of the procedure with the given id
func (a *Allocator) Get(id uuid.UUID) (entity.Procedure, error) {
	p, ok := a.procedures[id]
	if !ok {
		return entity.Procedure{}, fmt.Errorf("%w: %s", ErrProcedureNotFound, id)
	}
	return p.Clone(), nil
}

// Bind moves a pending procedure into slot.
func (a *Allocator) Bind(id uuid.UUID, slot entity.Slot) (entity.Procedure, error) {
	p, ok := a.procedures[id]
	if !ok {
		return entity.Procedure{}, fmt.Errorf("%w: %s", ErrProcedureNotFound, id)
	}

	slot = entity.NewSlot(slot.Day, slot.Hour, slot.Room)
	if err := a.domain.Validate(slot, a.now()); err != nil {
		return entity.Procedure{}, err
	}

	if !p.IsPending() {
		return entity.Procedure{}, fmt.Errorf("%w: %s", ErrNotPending, id)
	}

	key := keyOf(slot)
	if occupant, taken := a.occupancy[key]; taken {
		return entity.Procedure{}, fmt.Errorf("%w: %s held by %s", ErrSlotTaken, slot, occupant)
	}

	a.occupancy[key] = id
	p.Status = entity.ProcedureStatusScheduled
	p.Binding = &entity.SlotBinding{
		ID:          uuid.New(),
		ProcedureID: id,
		Day:         slot.Day,
		Hour:        slot.Hour,
		Room:        slot.Room,
	}
	p.UpdatedAt = a.now()

	return p.Clone(), nil
}

// Reassign moves a scheduled procedure to slot. Reassigning to the slot it
// already holds succeeds and changes nothing.
func (a *Allocator) Reassign(id uuid.UUID, slot entity.Slot) (entity.Procedure, error) {
	p, ok := a.procedures[id]
	if !ok {
		return entity.Procedure{}, fmt.Errorf("%w: %s", ErrProcedureNotFound, id)
	}

	slot = entity.NewSlot(slot.Day, slot.Hour, slot.Room)
	if err := a.domain.Validate(slot, a.now()); err != nil {
		return entity.Procedure{}, err
	}

	if !p.IsScheduled() || p.Binding == nil {
		return entity.Procedure{}, fmt.Errorf("%w: %s", ErrNotScheduled, id)
	}

	current := keyOf(p.Binding.Slot())
	target := keyOf(slot)
	if current == target {
		return p.Clone(), nil
	}

	// the procedure's own slot never counts as a conflict
	if occupant, taken := a.occupancy[target]; taken && occupant != id {
		return entity.Procedure{}, fmt.Errorf("%w: %s held by %s", ErrSlotTaken, slot, occupant)
	}

	delete(a.occupancy, current)
	a.occupancy[target] = id
	p.Binding.Day = slot.Day
	p.Binding.Hour = slot.Hour
	p.Binding.Room = slot.Room
	p.UpdatedAt = a.now()

	return p.Clone(), nil
}

// Release returns a scheduled procedure to pending and frees its slot. All
// other fields are preserved.
func (a *Allocator) Release(id uuid.UUID) (entity.Procedure, error) {
	p, ok := a.procedures[id]
	if !ok {
		return entity.Procedure{}, fmt.Errorf("%w: %s", ErrProcedureNotFound, id)
	}

	if !p.IsScheduled() || p.Binding == nil {
		return entity.Procedure{}, fmt.Errorf("%w: %s", ErrNotScheduled, id)
	}

	delete(a.occupancy, keyOf(p.Binding.Slot()))
	p.Status = entity.ProcedureStatusPending
	p.Binding = nil
	p.UpdatedAt = a.now()

	return p.Clone(), nil
}

// IsOccupied reports whether any scheduled procedure holds slot
func (a *Allocator) IsOccupied(slot entity.Slot) bool {
	_, taken := a.occupancy[keyOf(entity.NewSlot(slot.Day, slot.Hour, slot.Room))]
	return taken
}

// Find returns the procedure holding slot, if any
func (a *Allocator) Find(slot entity.Slot) (entity.Procedure, bool) {
	id, taken := a.occupancy[keyOf(entity.NewSlot(slot.Day, slot.Hour, slot.Room))]
	if !taken {
		return entity.Procedure{}, false
	}
	return a.procedures[id].Clone(), true
}

// Pending lists pending procedures by priority, then age.
func (a *Allocator) Pending() []entity.Procedure {
	out := make([]entity.Procedure, 0)
	for _, p := range a.procedures {
		if p.IsPending() {
			out = append(out, p.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank(); ri != rj {
			return ri < rj
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Scheduled lists scheduled procedures by day, hour and room.
func (a *Allocator) Scheduled() []entity.Procedure {
	out := make([]entity.Procedure, 0, len(a.occupancy))
	for _, id := range a.occupancy {
		out = append(out, a.procedures[id].Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		bi, bj := out[i].Binding, out[j].Binding
		if !bi.Day.Equal(bj.Day) {
			return bi.Day.Before(bj.Day)
		}
		if bi.Hour != bj.Hour {
			return bi.Hour < bj.Hour
		}
		return bi.Room < bj.Room
	})
	return out
}
