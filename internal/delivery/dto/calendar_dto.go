package dto

// Request DTOs

type CalendarQuery struct {
	Room string `validate:"omitempty,max=64"`
	Date string `validate:"omitempty,datetime=2006-01-02"`
	Nav  string `validate:"omitempty,oneof=prev next today"`
}

// Response DTOs

type CalendarDayResponse struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	IsToday bool   `json:"is_today"`
}

type CalendarEntryResponse struct {
	Room      string            `json:"room"`
	RoomLabel string            `json:"room_label"`
	Procedure ProcedureResponse `json:"procedure"`
}

type CalendarCellResponse struct {
	Date      string                  `json:"date"`
	Time      string                  `json:"time"`
	Available bool                    `json:"available"`
	Entries   []CalendarEntryResponse `json:"entries"`
}

type CalendarRowResponse struct {
	Hour  int                    `json:"hour"`
	Cells []CalendarCellResponse `json:"cells"`
}

type CalendarResponse struct {
	Anchor    string                `json:"anchor"`
	WeekStart string                `json:"week_start"`
	Today     string                `json:"today"`
	Room      *RoomResponse         `json:"room,omitempty"`
	Days      []CalendarDayResponse `json:"days"`
	Rows      []CalendarRowResponse `json:"rows"`
}
