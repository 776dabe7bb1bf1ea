package allocator

import (
	"testing"
	"time"

	"procedure-scheduler/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestDefaultDomain(t *testing.T) {
	d := DefaultDomain()

	assert.Equal(t, []int{9, 10, 11, 12, 13, 14, 15, 16, 17}, d.Hours())
	assert.Len(t, d.Rooms, 4)

	room, ok := d.Room("angiografo-siemens")
	assert.True(t, ok)
	assert.Equal(t, "Angiógrafo Siemens", room.Label)

	_, ok = d.Room("raio-x")
	assert.False(t, ok)
}

func TestDomainValidate(t *testing.T) {
	d := DefaultDomain()
	today := time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)

	assert.NoError(t, d.Validate(entity.NewSlot(monday, 9, "tomografia"), today))
	assert.NoError(t, d.Validate(entity.NewSlot(time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC), 17, "ultrassom"), today))
	assert.ErrorIs(t, d.Validate(entity.NewSlot(monday, 17+1, "tomografia"), today), ErrInvalidSlot)

	d.PastDates = PastDatesReject
	assert.ErrorIs(t, d.Validate(entity.NewSlot(monday, 9, "tomografia"), today), ErrInvalidSlot)
}
