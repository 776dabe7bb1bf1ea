package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"procedure-scheduler/internal/allocator"
	"procedure-scheduler/internal/domain/entity"
	"procedure-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AllocatorService owns the process-wide slot allocator.
//
// Lock Ordering (to prevent deadlocks):
// 1. Acquire the slot lock FIRST
// 2. Then Do (allocator mutex), which wraps the DB transaction
type AllocatorService struct {
	db            *gorm.DB
	log           *logrus.Logger
	procedureRepo repository.ProcedureRepository

	mu    sync.Mutex
	alloc *allocator.Allocator
}

func NewAllocatorService(db *gorm.DB, log *logrus.Logger, procedureRepo repository.ProcedureRepository, alloc *allocator.Allocator) *AllocatorService {
	return &AllocatorService{
		db:            db,
		log:           log,
		procedureRepo: procedureRepo,
		alloc:         alloc,
	}
}

// Domain returns the configured rooms and hours
func (s *AllocatorService) Domain() allocator.Domain {
	return s.alloc.Domain()
}

// Do runs fn with exclusive access to the allocator. fn must not call Do.
func (s *AllocatorService) Do(fn func(a *allocator.Allocator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.alloc)
}

// SyncOnStartup loads the allocator from the store and repairs status columns
// that disagree with the bindings. Should be called BEFORE accepting traffic.
func (s *AllocatorService) SyncOnStartup(ctx context.Context) error {
	s.log.Info("Starting allocator sync from database...")
	startTime := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}

	repaired, err := s.reconcileLocked(ctx)
	if err != nil {
		return err
	}

	s.log.Infof("Allocator sync completed: %d pending, %d scheduled, %d repaired in %v",
		len(s.alloc.Pending()), len(s.alloc.Scheduled()), repaired, time.Since(startTime))
	return nil
}

// Resync reloads the allocator after the store rejected a write the allocator
// accepted, e.g. another instance booked the slot first.
func (s *AllocatorService) Resync(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	s.log.Infof("Allocator resynced: %d scheduled", len(s.alloc.Scheduled()))
	return nil
}

func (s *AllocatorService) loadLocked(ctx context.Context) error {
	procedures, err := s.procedureRepo.FindAll(s.db.WithContext(ctx))
	if err != nil {
		s.log.Warnf("Failed to load procedures: %+v", err)
		return fmt.Errorf("load procedures: %w", err)
	}

	if err := s.alloc.Load(procedures); err != nil {
		s.log.Errorf("Store contains conflicting bindings: %+v", err)
		return fmt.Errorf("load allocator: %w", err)
	}
	return nil
}

// reconcileLocked compares the status column with the allocator, which
// derives status from binding presence, and rewrites the rows that differ.
func (s *AllocatorService) reconcileLocked(ctx context.Context) (int, error) {
	db := s.db.WithContext(ctx)

	pendingRows, err := s.procedureRepo.FindPending(db)
	if err != nil {
		s.log.Warnf("Failed to find pending procedures: %+v", err)
		return 0, err
	}
	scheduledRows, err := s.procedureRepo.FindScheduled(db, "")
	if err != nil {
		s.log.Warnf("Failed to find scheduled procedures: %+v", err)
		return 0, err
	}

	stored := make(map[uuid.UUID]entity.ProcedureStatus, len(pendingRows)+len(scheduledRows))
	for _, p := range pendingRows {
		stored[p.ID] = entity.ProcedureStatusPending
	}
	for _, p := range scheduledRows {
		stored[p.ID] = entity.ProcedureStatusScheduled
	}

	var repaired int
	fix := func(p entity.Procedure, from entity.ProcedureStatus) error {
		if _, err := s.procedureRepo.UpdateStatus(db, p.ID, from, p.Status); err != nil {
			s.log.Warnf("Failed to repair status of procedure %s: %+v", p.ID, err)
			return err
		}
		s.log.Warnf("Repaired status of procedure %s: %s -> %s", p.ID, from, p.Status)
		repaired++
		return nil
	}

	for _, p := range s.alloc.Pending() {
		// scheduled without a binding never shows up in either listing
		if status, ok := stored[p.ID]; !ok || status != entity.ProcedureStatusPending {
			if err := fix(p, entity.ProcedureStatusScheduled); err != nil {
				return repaired, err
			}
		}
	}
	for _, p := range s.alloc.Scheduled() {
		if stored[p.ID] != entity.ProcedureStatusScheduled {
			if err := fix(p, entity.ProcedureStatusPending); err != nil {
				return repaired, err
			}
		}
	}

	return repaired, nil
}
