package bootstrap

import (
	"testing"

	"procedure-scheduler/config"
	"procedure-scheduler/internal/allocator"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomain(t *testing.T) {
	d := NewDomain(config.ScheduleConfig{
		FirstHour:      8,
		LastHour:       12,
		Rooms:          []config.RoomConfig{{ID: "rm1", Label: "Ressonância"}},
		PastDatePolicy: "reject",
	})

	assert.Equal(t, []int{8, 9, 10, 11, 12}, d.Hours())
	assert.Equal(t, allocator.PastDatesReject, d.PastDates)
	room, ok := d.Room("rm1")
	require.True(t, ok)
	assert.Equal(t, "Ressonância", room.Label)
}

func TestSetupLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, setupLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, setupLogger("nonsense").GetLevel())
}

func TestOpenDatabase_SQLite(t *testing.T) {
	cfg := &config.Config{DB: config.DBConfig{Driver: "sqlite", SQLitePath: ":memory:"}}
	log := setupLogger("error")

	db, err := OpenDatabase(cfg, log)
	require.NoError(t, err)
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	require.NoError(t, prepareSchema(cfg, db, log))
	assert.True(t, db.Migrator().HasTable("procedures"))
	assert.True(t, db.Migrator().HasTable("slot_bindings"))
	assert.True(t, db.Migrator().HasTable("audit_logs"))
}
