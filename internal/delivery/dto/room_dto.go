package dto

type RoomResponse struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type RoomCatalogResponse struct {
	Rooms          []RoomResponse `json:"rooms"`
	Hours          []int          `json:"hours"`
	DaysPerWeek    int            `json:"days_per_week"`
	PastDatePolicy string         `json:"past_date_policy"`
}
