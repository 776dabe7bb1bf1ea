package dto

// Request DTOs

// ScheduleRequest names the target slot either as day+hour or as the
// composite time string ("2024-06-03-9").
type ScheduleRequest struct {
	Day  string `json:"day" validate:"omitempty,datetime=2006-01-02"`
	Hour *int   `json:"hour" validate:"omitempty"`
	Time string `json:"time" validate:"omitempty,max=16"`
	Room string `json:"room" validate:"required,max=64"`
}

// Response DTOs

type SlotStatusResponse struct {
	Slot      SlotResponse       `json:"slot"`
	Occupied  bool               `json:"occupied"`
	Procedure *ProcedureResponse `json:"procedure,omitempty"`
}
