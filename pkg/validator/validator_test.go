package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name     string `json:"patient_name" validate:"required,notblank,max=5"`
	Priority string `json:"priority" validate:"required,oneof=urgent normal low"`
	Day      string `json:"day" validate:"omitempty,datetime=2006-01-02"`
	Room     string `validate:"omitempty,max=3"`
}

func TestFormatValidationErrors(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&sample{Name: "toolong", Priority: "later", Day: "03/06/2024", Room: "abcd"})
	require.Error(t, err)

	errs := v.FormatValidationErrors(err)
	assert.Equal(t, "patient_name must be at most 5 characters", errs["patient_name"])
	assert.Equal(t, "priority must be one of: urgent, normal, low", errs["priority"])
	assert.Equal(t, "day must be a date in YYYY-MM-DD format", errs["day"])
	assert.Equal(t, "room must be at most 3 characters", errs["room"])
}

func TestValidate_OK(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&sample{Name: "Ana", Priority: "urgent", Day: "2024-06-03"}))

	err := v.Validate(&sample{})
	require.Error(t, err)
	errs := v.FormatValidationErrors(err)
	assert.Equal(t, "patient_name is required", errs["patient_name"])
	assert.Equal(t, "priority is required", errs["priority"])
}

func TestValidate_NotBlank(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&sample{Name: "  ", Priority: "low"})
	require.Error(t, err)
	assert.Equal(t, "patient_name must not be blank", v.FormatValidationErrors(err)["patient_name"])
}
