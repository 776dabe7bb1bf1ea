package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procedure-scheduler/internal/allocator"
	"procedure-scheduler/internal/converter"
	"procedure-scheduler/internal/delivery/dto"
	"procedure-scheduler/internal/domain/entity"
	"procedure-scheduler/internal/domain/repository"
	repoimpl "procedure-scheduler/internal/repository"
	"procedure-scheduler/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const publishTimeout = 5 * time.Second

type SchedulingUsecase interface {
	Schedule(ctx context.Context, id uuid.UUID, req *dto.ScheduleRequest) (*dto.ProcedureResponse, error)
	Reschedule(ctx context.Context, id uuid.UUID, req *dto.ScheduleRequest) (*dto.ProcedureResponse, error)
	Release(ctx context.Context, id uuid.UUID) (*dto.ProcedureResponse, error)
	GetSlot(ctx context.Context, req *dto.ScheduleRequest) (*dto.SlotStatusResponse, error)
	GetRooms(ctx context.Context) *dto.RoomCatalogResponse
}

type schedulingUsecase struct {
	db            *gorm.DB
	log           *logrus.Logger
	procedureRepo repository.ProcedureRepository
	bindingRepo   repository.SlotBindingRepository
	auditService  service.AuditService
	allocs        *service.AllocatorService
	locker        service.SlotLocker
	publisher     service.EventPublisher
}

func NewSchedulingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	procedureRepo repository.ProcedureRepository,
	bindingRepo repository.SlotBindingRepository,
	auditService service.AuditService,
	allocs *service.AllocatorService,
	locker service.SlotLocker,
	publisher service.EventPublisher,
) SchedulingUsecase {
	return &schedulingUsecase{
		db:            db,
		log:           log,
		procedureRepo: procedureRepo,
		bindingRepo:   bindingRepo,
		auditService:  auditService,
		allocs:        allocs,
		locker:        locker,
		publisher:     publisher,
	}
}

// Schedule binds a pending procedure to a free slot.
//
// Flow:
// 1. Lock the target slot (Redis or in-process)
// 2. Allocator Bind (validates slot, pending state, occupancy)
// 3. Insert binding + flip status + audit row in one transaction
// 4. If the transaction fails -> compensate: restore the procedure in the allocator
// 5. After commit -> publish procedure.scheduled
func (u *schedulingUsecase) Schedule(ctx context.Context, id uuid.UUID, req *dto.ScheduleRequest) (*dto.ProcedureResponse, error) {
	slot, err := u.slotFromRequest(req)
	if err != nil {
		return nil, err
	}

	unlock, err := u.locker.Lock(ctx, slot)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var bound entity.Procedure
	err = u.allocs.Do(func(a *allocator.Allocator) error {
		before, err := a.Get(id)
		if err != nil {
			return err
		}

		bound, err = a.Bind(id, slot)
		if err != nil {
			return err
		}

		if err := u.persistBind(ctx, &bound); err != nil {
			u.compensate(a, before)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, u.handleStoreConflict(ctx, err, allocator.ErrSlotTaken)
	}

	u.log.Infof("Procedure scheduled: id=%s, slot=%s", id, slot)
	u.publish(service.NewSlotEvent(service.EventProcedureScheduled, bound, &slot, nil, time.Now()))

	return converter.ProcedureToResponse(&bound, u.allocs.Domain()), nil
}

func (u *schedulingUsecase) persistBind(ctx context.Context, procedure *entity.Procedure) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	// bind-if-free: the unique slot index rejects a taken slot
	if err := u.bindingRepo.Create(tx, procedure.Binding); err != nil {
		if repoimpl.IsDuplicateKeyError(err) {
			u.log.Warnf("Slot %s already bound in store: %+v", procedure.Binding.Slot(), err)
			return fmt.Errorf("%w: %s", errStoreConflict, procedure.Binding.Slot())
		}
		u.log.Warnf("Failed to create slot binding: %+v", err)
		return persistenceError("bind slot", err)
	}

	if err := u.updateStatus(tx, procedure.ID, entity.ProcedureStatusPending, entity.ProcedureStatusScheduled); err != nil {
		return err
	}

	slot := procedure.Binding.Slot()
	if err := u.auditService.LogUpdate(ctx, tx, procedure.ID, entity.AuditActionSlotBind, nil, converter.SlotToResponse(slot, u.allocs.Domain())); err != nil {
		return persistenceError("audit slot bind", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return persistenceError("commit", err)
	}
	return nil
}

// Reschedule moves a scheduled procedure to another slot. Moving to the slot
// it already holds succeeds without writing anything.
func (u *schedulingUsecase) Reschedule(ctx context.Context, id uuid.UUID, req *dto.ScheduleRequest) (*dto.ProcedureResponse, error) {
	slot, err := u.slotFromRequest(req)
	if err != nil {
		return nil, err
	}

	unlock, err := u.locker.Lock(ctx, slot)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		moved    entity.Procedure
		previous entity.Slot
		changed  bool
	)
	err = u.allocs.Do(func(a *allocator.Allocator) error {
		before, err := a.Get(id)
		if err != nil {
			return err
		}

		moved, err = a.Reassign(id, slot)
		if err != nil {
			return err
		}

		previous, _ = before.Slot()
		if previous.Equal(slot) {
			return nil
		}
		changed = true

		if err := u.persistReassign(ctx, &moved, previous); err != nil {
			u.compensate(a, before)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, u.handleStoreConflict(ctx, err, allocator.ErrSlotTaken)
	}

	if changed {
		u.log.Infof("Procedure rescheduled: id=%s, from=%s, to=%s", id, previous, slot)
		u.publish(service.NewSlotEvent(service.EventProcedureRescheduled, moved, &slot, &previous, time.Now()))
	}

	return converter.ProcedureToResponse(&moved, u.allocs.Domain()), nil
}

func (u *schedulingUsecase) persistReassign(ctx context.Context, procedure *entity.Procedure, previous entity.Slot) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	slot := procedure.Binding.Slot()
	affected, err := u.bindingRepo.UpdateSlot(tx, procedure.ID, slot)
	if err != nil {
		if repoimpl.IsDuplicateKeyError(err) {
			u.log.Warnf("Slot %s already bound in store: %+v", slot, err)
			return fmt.Errorf("%w: %s", errStoreConflict, slot)
		}
		u.log.Warnf("Failed to update slot binding: %+v", err)
		return persistenceError("update slot", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: procedure %s has no binding in store", errStoreConflict, procedure.ID)
	}

	d := u.allocs.Domain()
	if err := u.auditService.LogUpdate(ctx, tx, procedure.ID, entity.AuditActionSlotReassign, converter.SlotToResponse(previous, d), converter.SlotToResponse(slot, d)); err != nil {
		return persistenceError("audit slot reassign", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return persistenceError("commit", err)
	}
	return nil
}

// Release returns a scheduled procedure to the pending queue and frees its slot
func (u *schedulingUsecase) Release(ctx context.Context, id uuid.UUID) (*dto.ProcedureResponse, error) {
	var (
		released entity.Procedure
		previous entity.Slot
	)
	err := u.allocs.Do(func(a *allocator.Allocator) error {
		before, err := a.Get(id)
		if err != nil {
			return err
		}

		released, err = a.Release(id)
		if err != nil {
			return err
		}
		previous, _ = before.Slot()

		if err := u.persistRelease(ctx, id, previous); err != nil {
			u.compensate(a, before)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, u.handleStoreConflict(ctx, err, allocator.ErrNotScheduled)
	}

	u.log.Infof("Procedure released: id=%s, slot=%s", id, previous)
	u.publish(service.NewSlotEvent(service.EventProcedureReleased, released, nil, &previous, time.Now()))

	return converter.ProcedureToResponse(&released, u.allocs.Domain()), nil
}

func (u *schedulingUsecase) persistRelease(ctx context.Context, id uuid.UUID, previous entity.Slot) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.bindingRepo.DeleteByProcedureID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to delete slot binding: %+v", err)
		return persistenceError("release slot", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: procedure %s has no binding in store", errStoreConflict, id)
	}

	if err := u.updateStatus(tx, id, entity.ProcedureStatusScheduled, entity.ProcedureStatusPending); err != nil {
		return err
	}

	if err := u.auditService.LogUpdate(ctx, tx, id, entity.AuditActionSlotRelease, converter.SlotToResponse(previous, u.allocs.Domain()), nil); err != nil {
		return persistenceError("audit slot release", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return persistenceError("commit", err)
	}
	return nil
}

// GetSlot reports whether a slot is taken and by whom
func (u *schedulingUsecase) GetSlot(ctx context.Context, req *dto.ScheduleRequest) (*dto.SlotStatusResponse, error) {
	slot, err := converter.ScheduleRequestToSlot(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", allocator.ErrInvalidSlot, err)
	}

	d := u.allocs.Domain()
	if err := d.Contains(slot); err != nil {
		return nil, err
	}

	resp := &dto.SlotStatusResponse{Slot: *converter.SlotToResponse(slot, d)}
	_ = u.allocs.Do(func(a *allocator.Allocator) error {
		resp.Occupied = a.IsOccupied(slot)
		if occupant, ok := a.Find(slot); ok {
			resp.Procedure = converter.ProcedureToResponse(&occupant, d)
		}
		return nil
	})

	return resp, nil
}

// GetRooms returns the room catalogue and working hours
func (u *schedulingUsecase) GetRooms(ctx context.Context) *dto.RoomCatalogResponse {
	d := u.allocs.Domain()

	rooms := make([]dto.RoomResponse, len(d.Rooms))
	for i, r := range d.Rooms {
		rooms[i] = dto.RoomResponse{ID: r.ID, Label: r.Label}
	}

	return &dto.RoomCatalogResponse{
		Rooms:          rooms,
		Hours:          d.Hours(),
		DaysPerWeek:    5,
		PastDatePolicy: string(d.PastDates),
	}
}

func (u *schedulingUsecase) slotFromRequest(req *dto.ScheduleRequest) (entity.Slot, error) {
	slot, err := converter.ScheduleRequestToSlot(req)
	if err != nil {
		return entity.Slot{}, fmt.Errorf("%w: %v", allocator.ErrInvalidSlot, err)
	}
	return slot, nil
}

func (u *schedulingUsecase) updateStatus(tx *gorm.DB, id uuid.UUID, from, to entity.ProcedureStatus) error {
	affected, err := u.procedureRepo.UpdateStatus(tx, id, from, to)
	if err != nil {
		u.log.Warnf("Failed to update status of procedure %s: %+v", id, err)
		return persistenceError("update status", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: procedure %s is not %s in store", errStoreConflict, id, from)
	}
	return nil
}

// compensate puts the procedure back exactly as it was before the failed write
func (u *schedulingUsecase) compensate(a *allocator.Allocator, before entity.Procedure) {
	if _, err := a.Remove(before.ID); err != nil {
		u.log.Errorf("CRITICAL: Failed to compensate allocator for procedure %s: %+v", before.ID, err)
		return
	}
	if err := a.Restore(before); err != nil {
		u.log.Errorf("CRITICAL: Failed to compensate allocator for procedure %s: %+v", before.ID, err)
	}
}

// handleStoreConflict reloads the allocator when the store disagreed with it,
// e.g. another instance took the slot first. The caller sees reported.
func (u *schedulingUsecase) handleStoreConflict(ctx context.Context, err error, reported error) error {
	if !errors.Is(err, errStoreConflict) {
		return err
	}

	if rerr := u.allocs.Resync(ctx); rerr != nil {
		u.log.Errorf("Failed to resync allocator after store conflict: %+v", rerr)
	}
	return fmt.Errorf("%w: %v", reported, err)
}

func (u *schedulingUsecase) publish(event service.SlotEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := u.publisher.Publish(ctx, event); err != nil {
		u.log.Warnf("Failed to publish %s for procedure %s: %+v", event.Type, event.ProcedureID, err)
	}
}
