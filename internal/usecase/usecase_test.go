package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"procedure-scheduler/internal/allocator"
	"procedure-scheduler/internal/delivery/dto"
	"procedure-scheduler/internal/domain/entity"
	domainRepo "procedure-scheduler/internal/domain/repository"
	"procedure-scheduler/internal/infrastructure/database"
	"procedure-scheduler/internal/repository"
	"procedure-scheduler/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// today is a Wednesday
var today = time.Date(2024, 6, 5, 10, 30, 0, 0, time.UTC)

// MockSlotBindingRepository delegates to the real repository unless a func is set
type MockSlotBindingRepository struct {
	domainRepo.SlotBindingRepository
	CreateFunc              func(db *gorm.DB, binding *entity.SlotBinding) error
	UpdateSlotFunc          func(db *gorm.DB, procedureID uuid.UUID, slot entity.Slot) (int64, error)
	DeleteByProcedureIDFunc func(db *gorm.DB, procedureID uuid.UUID) (int64, error)
}

func (m *MockSlotBindingRepository) Create(db *gorm.DB, binding *entity.SlotBinding) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(db, binding)
	}
	return m.SlotBindingRepository.Create(db, binding)
}

func (m *MockSlotBindingRepository) UpdateSlot(db *gorm.DB, procedureID uuid.UUID, slot entity.Slot) (int64, error) {
	if m.UpdateSlotFunc != nil {
		return m.UpdateSlotFunc(db, procedureID, slot)
	}
	return m.SlotBindingRepository.UpdateSlot(db, procedureID, slot)
}

func (m *MockSlotBindingRepository) DeleteByProcedureID(db *gorm.DB, procedureID uuid.UUID) (int64, error) {
	if m.DeleteByProcedureIDFunc != nil {
		return m.DeleteByProcedureIDFunc(db, procedureID)
	}
	return m.SlotBindingRepository.DeleteByProcedureID(db, procedureID)
}

// MockSlotLocker records locks; LockFunc overrides the default always-free lock
type MockSlotLocker struct {
	LockFunc func(ctx context.Context, slot entity.Slot) (func(), error)

	mu     sync.Mutex
	locked []entity.Slot
}

func (m *MockSlotLocker) Lock(ctx context.Context, slot entity.Slot) (func(), error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, slot)
	}
	m.mu.Lock()
	m.locked = append(m.locked, slot)
	m.mu.Unlock()
	return func() {}, nil
}

func (m *MockSlotLocker) Stop() {}

// RecordingPublisher keeps published events in memory
type RecordingPublisher struct {
	Err error

	mu     sync.Mutex
	events []service.SlotEvent
}

func (p *RecordingPublisher) Publish(ctx context.Context, event service.SlotEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.Err
}

func (p *RecordingPublisher) Events() []service.SlotEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]service.SlotEvent(nil), p.events...)
}

type testEnv struct {
	db         *gorm.DB
	log        *logrus.Logger
	allocs     *service.AllocatorService
	bindings   *MockSlotBindingRepository
	locker     *MockSlotLocker
	publisher  *RecordingPublisher
	procedures ProcedureUsecase
	scheduling SchedulingUsecase
	calendar   CalendarUsecase
	audit      AuditLogUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := database.NewSQLiteConnection(":memory:", log)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	procedureRepo := repository.NewProcedureRepository()
	bindings := &MockSlotBindingRepository{SlotBindingRepository: repository.NewSlotBindingRepository()}
	auditRepo := repository.NewAuditLogRepository()
	auditService := service.NewAuditService(log, auditRepo)

	alloc := allocator.New(allocator.DefaultDomain(), allocator.WithClock(func() time.Time { return today }))
	allocs := service.NewAllocatorService(db, log, procedureRepo, alloc)
	locker := &MockSlotLocker{}
	publisher := &RecordingPublisher{}
	clock := func() time.Time { return today }

	return &testEnv{
		db:         db,
		log:        log,
		allocs:     allocs,
		bindings:   bindings,
		locker:     locker,
		publisher:  publisher,
		procedures: NewProcedureUsecase(db, log, procedureRepo, auditService, allocs),
		scheduling: NewSchedulingUsecase(db, log, procedureRepo, bindings, auditService, allocs, locker, publisher),
		calendar:   NewCalendarUsecase(log, allocs, clock),
		audit:      NewAuditLogUsecase(db, log, auditRepo),
	}
}

func (e *testEnv) create(t *testing.T, name string, priority entity.Priority) uuid.UUID {
	t.Helper()
	resp, err := e.procedures.CreateProcedure(context.Background(), &dto.CreateProcedureRequest{
		PatientName:   name,
		ProcedureName: "CT abdomen",
		Priority:      string(priority),
	})
	require.NoError(t, err)
	return resp.ID
}

func (e *testEnv) storedProcedure(t *testing.T, id uuid.UUID) *entity.Procedure {
	t.Helper()
	p, err := repository.NewProcedureRepository().FindByID(e.db, id)
	require.NoError(t, err)
	return p
}

func (e *testEnv) auditActions(t *testing.T, id uuid.UUID) []string {
	t.Helper()
	resp, err := e.audit.GetAllAuditLogs(context.Background(), &id)
	require.NoError(t, err)
	actions := make([]string, len(resp.Logs))
	for i, l := range resp.Logs {
		actions[i] = l.Action
	}
	return actions
}

func slotReq(day string, hour int, room string) *dto.ScheduleRequest {
	return &dto.ScheduleRequest{Day: day, Hour: &hour, Room: room}
}

var errBoom = errors.New("boom")

func timeReq(slotTime, room string) *dto.ScheduleRequest {
	return &dto.ScheduleRequest{Time: slotTime, Room: room}
}
