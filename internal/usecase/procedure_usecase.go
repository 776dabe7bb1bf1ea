package usecase

import (
	"context"
	"fmt"
	"time"

	"procedure-scheduler/internal/allocator"
	"procedure-scheduler/internal/converter"
	"procedure-scheduler/internal/delivery/dto"
	"procedure-scheduler/internal/domain/entity"
	"procedure-scheduler/internal/domain/repository"
	"procedure-scheduler/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ProcedureUsecase interface {
	CreateProcedure(ctx context.Context, req *dto.CreateProcedureRequest) (*dto.ProcedureResponse, error)
	GetProcedure(ctx context.Context, id uuid.UUID) (*dto.ProcedureResponse, error)
	ListPending(ctx context.Context) (*dto.ProcedureListResponse, error)
	ListScheduled(ctx context.Context, room string) (*dto.ProcedureListResponse, error)
	DeleteProcedure(ctx context.Context, id uuid.UUID) error
}

type procedureUsecase struct {
	db            *gorm.DB
	log           *logrus.Logger
	procedureRepo repository.ProcedureRepository
	auditService  service.AuditService
	allocs        *service.AllocatorService
	now           func() time.Time
}

func NewProcedureUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	procedureRepo repository.ProcedureRepository,
	auditService service.AuditService,
	allocs *service.AllocatorService,
) ProcedureUsecase {
	return &procedureUsecase{
		db:            db,
		log:           log,
		procedureRepo: procedureRepo,
		auditService:  auditService,
		allocs:        allocs,
		now:           time.Now,
	}
}

// CreateProcedure registers a new pending procedure.
//
// Flow:
// 1. Add to the allocator as pending
// 2. Insert procedure + audit row in one transaction
// 3. If the transaction fails -> compensate: remove from the allocator
func (u *procedureUsecase) CreateProcedure(ctx context.Context, req *dto.CreateProcedureRequest) (*dto.ProcedureResponse, error) {
	procedure := converter.CreateProcedureRequestToEntity(req)
	if procedure.PatientName == "" || procedure.ProcedureName == "" {
		return nil, fmt.Errorf("%w: patient and procedure names must not be blank", ErrInvalidProcedure)
	}
	procedure.ID = uuid.New()
	procedure.CreatedAt = u.now().UTC()
	procedure.UpdatedAt = procedure.CreatedAt

	var created entity.Procedure
	err := u.allocs.Do(func(a *allocator.Allocator) error {
		added, err := a.Add(*procedure)
		if err != nil {
			return err
		}

		if err := u.persistCreate(ctx, &added); err != nil {
			if _, cerr := a.Remove(added.ID); cerr != nil {
				u.log.Errorf("CRITICAL: Failed to compensate allocator for procedure %s: %+v", added.ID, cerr)
			}
			return err
		}

		created = added
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Procedure created: id=%s, priority=%s", created.ID, created.Priority)
	return converter.ProcedureToResponse(&created, u.allocs.Domain()), nil
}

func (u *procedureUsecase) persistCreate(ctx context.Context, procedure *entity.Procedure) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.procedureRepo.Create(tx, procedure); err != nil {
		u.log.Warnf("Failed to create procedure: %+v", err)
		return persistenceError("create procedure", err)
	}

	if err := u.auditService.LogCreate(ctx, tx, procedure.ID, entity.AuditActionProcedureCreate, converter.ProcedureToResponse(procedure, u.allocs.Domain())); err != nil {
		return persistenceError("audit procedure create", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return persistenceError("commit", err)
	}
	return nil
}

func (u *procedureUsecase) GetProcedure(ctx context.Context, id uuid.UUID) (*dto.ProcedureResponse, error) {
	var procedure entity.Procedure
	err := u.allocs.Do(func(a *allocator.Allocator) error {
		var err error
		procedure, err = a.Get(id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return converter.ProcedureToResponse(&procedure, u.allocs.Domain()), nil
}

// ListPending returns the pending queue: urgent first, then oldest first
func (u *procedureUsecase) ListPending(ctx context.Context) (*dto.ProcedureListResponse, error) {
	var procedures []entity.Procedure
	_ = u.allocs.Do(func(a *allocator.Allocator) error {
		procedures = a.Pending()
		return nil
	})

	return &dto.ProcedureListResponse{
		Procedures: converter.ProceduresToResponses(procedures, u.allocs.Domain()),
		Total:      len(procedures),
	}, nil
}

// ListScheduled returns scheduled procedures ordered by slot, optionally for one room
func (u *procedureUsecase) ListScheduled(ctx context.Context, room string) (*dto.ProcedureListResponse, error) {
	if room != "" {
		if _, ok := u.allocs.Domain().Room(room); !ok {
			return nil, fmt.Errorf("%w: unknown room %q", allocator.ErrInvalidSlot, room)
		}
	}

	var procedures []entity.Procedure
	_ = u.allocs.Do(func(a *allocator.Allocator) error {
		for _, p := range a.Scheduled() {
			if room == "" || p.Binding.Room == room {
				procedures = append(procedures, p)
			}
		}
		return nil
	})

	return &dto.ProcedureListResponse{
		Procedures: converter.ProceduresToResponses(procedures, u.allocs.Domain()),
		Total:      len(procedures),
	}, nil
}

// DeleteProcedure removes a procedure and frees its slot
func (u *procedureUsecase) DeleteProcedure(ctx context.Context, id uuid.UUID) error {
	err := u.allocs.Do(func(a *allocator.Allocator) error {
		removed, err := a.Remove(id)
		if err != nil {
			return err
		}

		if err := u.persistDelete(ctx, &removed); err != nil {
			if rerr := a.Restore(removed); rerr != nil {
				u.log.Errorf("CRITICAL: Failed to compensate allocator for procedure %s: %+v", id, rerr)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	u.log.Infof("Procedure deleted: id=%s", id)
	return nil
}

func (u *procedureUsecase) persistDelete(ctx context.Context, procedure *entity.Procedure) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.procedureRepo.Delete(tx, procedure.ID)
	if err != nil {
		u.log.Warnf("Failed to delete procedure %s: %+v", procedure.ID, err)
		return persistenceError("delete procedure", err)
	}
	if affected == 0 {
		return persistenceError("delete procedure", fmt.Errorf("procedure %s missing from store", procedure.ID))
	}

	if err := u.auditService.LogDelete(ctx, tx, procedure.ID, entity.AuditActionProcedureDelete, converter.ProcedureToResponse(procedure, u.allocs.Domain())); err != nil {
		return persistenceError("audit procedure delete", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return persistenceError("commit", err)
	}
	return nil
}
