package converter

import (
	"testing"
	"time"

	"procedure-scheduler/internal/allocator"
	"procedure-scheduler/internal/delivery/dto"
	"procedure-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestScheduleRequestToSlot(t *testing.T) {
	want := entity.NewSlot(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), 9, "tomografia")

	tests := []struct {
		name    string
		req     dto.ScheduleRequest
		wantErr bool
	}{
		{"day and hour", dto.ScheduleRequest{Day: "2024-06-03", Hour: intPtr(9), Room: "tomografia"}, false},
		{"composite time", dto.ScheduleRequest{Time: "2024-06-03-9", Room: "tomografia"}, false},
		{"both agree", dto.ScheduleRequest{Day: "2024-06-03", Hour: intPtr(9), Time: "2024-06-03-9", Room: "tomografia"}, false},
		{"both disagree", dto.ScheduleRequest{Day: "2024-06-03", Hour: intPtr(10), Time: "2024-06-03-9", Room: "tomografia"}, true},
		{"day without hour", dto.ScheduleRequest{Day: "2024-06-03", Room: "tomografia"}, true},
		{"hour without day", dto.ScheduleRequest{Hour: intPtr(9), Room: "tomografia"}, true},
		{"nothing", dto.ScheduleRequest{Room: "tomografia"}, true},
		{"malformed time", dto.ScheduleRequest{Time: "2024-06-03T09", Room: "tomografia"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ScheduleRequestToSlot(&tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(want), got.String())
		})
	}
}

func TestProcedureToResponse(t *testing.T) {
	p := &entity.Procedure{
		ID:            uuid.New(),
		PatientName:   "Ana",
		ProcedureName: "CT",
		Priority:      entity.PriorityNormal,
		Status:        entity.ProcedureStatusScheduled,
		Binding:       &entity.SlotBinding{Day: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Hour: 9, Room: "angiografo-ge"},
	}

	resp := ProcedureToResponse(p, allocator.DefaultDomain())
	require.NotNil(t, resp.Slot)
	assert.Equal(t, "2024-06-03-9", resp.Slot.Time)
	assert.Equal(t, "Angiógrafo GE", resp.Slot.RoomLabel)
	assert.Equal(t, "scheduled", resp.Status)

	p.Binding = nil
	assert.Nil(t, ProcedureToResponse(p, allocator.DefaultDomain()).Slot)
	assert.Nil(t, ProcedureToResponse(nil, allocator.DefaultDomain()))
}

func TestCreateProcedureRequestToEntity(t *testing.T) {
	p := CreateProcedureRequestToEntity(&dto.CreateProcedureRequest{
		PatientName:   "  Ana ",
		ProcedureName: "CT",
		Priority:      "urgent",
	})

	assert.Equal(t, "Ana", p.PatientName)
	assert.Equal(t, entity.PriorityUrgent, p.Priority)
	assert.True(t, p.IsPending())
}
