package repository

import (
	"io"
	"testing"
	"time"

	"procedure-scheduler/internal/domain/entity"
	"procedure-scheduler/internal/infrastructure/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var monday = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func createProcedure(t *testing.T, db *gorm.DB, name string, priority entity.Priority, created time.Time) *entity.Procedure {
	t.Helper()
	p := &entity.Procedure{
		ID:            uuid.New(),
		PatientName:   name,
		ProcedureName: "MRI",
		Priority:      priority,
		Status:        entity.ProcedureStatusPending,
		CreatedAt:     created,
	}
	require.NoError(t, NewProcedureRepository().Create(db, p))
	return p
}

func bind(t *testing.T, db *gorm.DB, p *entity.Procedure, slot entity.Slot) *entity.SlotBinding {
	t.Helper()
	b := &entity.SlotBinding{ID: uuid.New(), ProcedureID: p.ID, Day: slot.Day, Hour: slot.Hour, Room: slot.Room}
	require.NoError(t, NewSlotBindingRepository().Create(db, b))
	n, err := NewProcedureRepository().UpdateStatus(db, p.ID, entity.ProcedureStatusPending, entity.ProcedureStatusScheduled)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	return b
}

func TestProcedureRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewProcedureRepository()

	p := createProcedure(t, db, "Ana", entity.PriorityUrgent, monday)
	p.Notes = "contrast allergy"

	got, err := repo.FindByID(db, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ana", got.PatientName)
	assert.Equal(t, entity.PriorityUrgent, got.Priority)
	assert.True(t, got.IsPending())
	assert.Nil(t, got.Binding)

	missing, err := repo.FindByID(db, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(db, &entity.Procedure{ID: p.ID, PatientName: "dup", ProcedureName: "x", Priority: entity.PriorityLow})
	assert.True(t, IsDuplicateKeyError(err), "got %v", err)
}

func TestProcedureRepository_FindPendingOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewProcedureRepository()

	createProcedure(t, db, "low", entity.PriorityLow, monday)
	createProcedure(t, db, "normal-late", entity.PriorityNormal, monday.Add(2*time.Hour))
	createProcedure(t, db, "normal-early", entity.PriorityNormal, monday.Add(time.Hour))
	createProcedure(t, db, "urgent", entity.PriorityUrgent, monday.Add(3*time.Hour))
	scheduled := createProcedure(t, db, "scheduled", entity.PriorityUrgent, monday)
	bind(t, db, scheduled, entity.NewSlot(monday, 9, "tomografia"))

	pending, err := repo.FindPending(db)
	require.NoError(t, err)

	var names []string
	for _, p := range pending {
		names = append(names, p.PatientName)
	}
	assert.Equal(t, []string{"urgent", "normal-early", "normal-late", "low"}, names)
}

func TestProcedureRepository_FindScheduled(t *testing.T) {
	db := newTestDB(t)
	repo := NewProcedureRepository()

	p1 := createProcedure(t, db, "p1", entity.PriorityNormal, monday)
	p2 := createProcedure(t, db, "p2", entity.PriorityNormal, monday)
	p3 := createProcedure(t, db, "p3", entity.PriorityNormal, monday)
	createProcedure(t, db, "pending", entity.PriorityNormal, monday)

	bind(t, db, p1, entity.NewSlot(monday.AddDate(0, 0, 1), 9, "tomografia"))
	bind(t, db, p2, entity.NewSlot(monday, 10, "tomografia"))
	bind(t, db, p3, entity.NewSlot(monday, 10, "angiografo-ge"))

	all, err := repo.FindScheduled(db, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{p3.ID, p2.ID, p1.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})
	require.NotNil(t, all[0].Binding)
	assert.True(t, all[0].Binding.Slot().Equal(entity.NewSlot(monday, 10, "angiografo-ge")))

	tomo, err := repo.FindScheduled(db, "tomografia")
	require.NoError(t, err)
	require.Len(t, tomo, 2)
	assert.Equal(t, p2.ID, tomo[0].ID)
	assert.Equal(t, p1.ID, tomo[1].ID)
}

func TestProcedureRepository_UpdateStatusGuard(t *testing.T) {
	db := newTestDB(t)
	repo := NewProcedureRepository()
	p := createProcedure(t, db, "Ana", entity.PriorityNormal, monday)

	n, err := repo.UpdateStatus(db, p.ID, entity.ProcedureStatusScheduled, entity.ProcedureStatusPending)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = repo.UpdateStatus(db, p.ID, entity.ProcedureStatusPending, entity.ProcedureStatusScheduled)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestProcedureRepository_DeleteRemovesBinding(t *testing.T) {
	db := newTestDB(t)
	repo := NewProcedureRepository()
	bindings := NewSlotBindingRepository()
	slot := entity.NewSlot(monday, 9, "tomografia")

	p := createProcedure(t, db, "Ana", entity.PriorityNormal, monday)
	bind(t, db, p, slot)

	n, err := repo.Delete(db, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	b, err := bindings.FindBySlot(db, slot)
	require.NoError(t, err)
	assert.Nil(t, b)

	n, err = repo.Delete(db, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestProcedureRepository_FindAllPreloadsBinding(t *testing.T) {
	db := newTestDB(t)
	repo := NewProcedureRepository()

	p1 := createProcedure(t, db, "p1", entity.PriorityNormal, monday)
	createProcedure(t, db, "p2", entity.PriorityNormal, monday.Add(time.Minute))
	bind(t, db, p1, entity.NewSlot(monday, 12, "ultrassom"))

	all, err := repo.FindAll(db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].Binding)
	assert.Equal(t, 12, all[0].Binding.Hour)
	assert.Nil(t, all[1].Binding)
}

func TestSlotBindingRepository_BindIfFree(t *testing.T) {
	db := newTestDB(t)
	bindings := NewSlotBindingRepository()
	slot := entity.NewSlot(monday, 9, "tomografia")

	p1 := createProcedure(t, db, "p1", entity.PriorityNormal, monday)
	p2 := createProcedure(t, db, "p2", entity.PriorityNormal, monday)
	bind(t, db, p1, slot)

	err := bindings.Create(db, &entity.SlotBinding{ID: uuid.New(), ProcedureID: p2.ID, Day: slot.Day, Hour: slot.Hour, Room: slot.Room})
	assert.True(t, IsDuplicateKeyError(err), "got %v", err)

	found, err := bindings.FindBySlot(db, slot)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, p1.ID, found.ProcedureID)
}

func TestSlotBindingRepository_UpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	bindings := NewSlotBindingRepository()
	from := entity.NewSlot(monday, 9, "tomografia")
	to := entity.NewSlot(monday.AddDate(0, 0, 1), 10, "tomografia")

	p := createProcedure(t, db, "p", entity.PriorityNormal, monday)
	original := bind(t, db, p, from)

	n, err := bindings.UpdateSlot(db, p.ID, to)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	moved, err := bindings.FindByProcedureID(db, p.ID)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, original.ID, moved.ID)
	assert.True(t, moved.Slot().Equal(to))

	old, err := bindings.FindBySlot(db, from)
	require.NoError(t, err)
	assert.Nil(t, old)

	n, err = bindings.DeleteByProcedureID(db, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = bindings.UpdateSlot(db, p.ID, from)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestAuditLogRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditLogRepository()
	p := createProcedure(t, db, "p", entity.PriorityNormal, monday)

	first := &entity.AuditLog{ProcedureID: &p.ID, Action: entity.AuditActionProcedureCreate, Metadata: entity.JSON{"entity": "procedure"}}
	require.NoError(t, repo.Create(db, first))
	require.NoError(t, repo.Create(db, &entity.AuditLog{ProcedureID: &p.ID, Action: entity.AuditActionSlotBind}))

	all, err := repo.FindAll(db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, entity.AuditActionSlotBind, all[0].Action)

	got, err := repo.FindByID(db, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "procedure", got.Metadata["entity"])

	missing, err := repo.FindByID(db, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byProcedure, err := repo.FindByProcedureID(db, p.ID)
	require.NoError(t, err)
	assert.Len(t, byProcedure, 2)
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.False(t, IsDuplicateKeyError(nil))
	assert.False(t, IsDuplicateKeyError(gorm.ErrRecordNotFound))
	assert.True(t, IsDuplicateKeyError(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
}
