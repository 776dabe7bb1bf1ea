package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"procedure-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlotEvent(t *testing.T) {
	p := entity.Procedure{
		ID:            uuid.New(),
		PatientName:   "Ana",
		ProcedureName: "CT",
		Priority:      entity.PriorityUrgent,
	}
	previous := testSlot
	current := entity.NewSlot(testSlot.Day.AddDate(0, 0, 1), 10, "ultrassom")
	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	event := NewSlotEvent(EventProcedureRescheduled, p, &current, &previous, at)

	assert.Equal(t, "2024-06-04-10", event.Time)
	assert.Equal(t, "ultrassom", event.Room)
	assert.Equal(t, "2024-06-03-9", event.PreviousTime)
	assert.Equal(t, "tomografia", event.PreviousRoom)

	body, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "procedure.rescheduled", decoded["type"])
	assert.Equal(t, p.ID.String(), decoded["procedure_id"])
	assert.Equal(t, "urgent", decoded["priority"])

	released := NewSlotEvent(EventProcedureReleased, p, nil, &previous, at)
	assert.Empty(t, released.Time)
	assert.Empty(t, released.Room)
}

func TestNoopEventPublisher(t *testing.T) {
	publisher := NewNoopEventPublisher(quietLogger())
	assert.NoError(t, publisher.Publish(context.Background(), SlotEvent{Type: EventProcedureScheduled}))
}
