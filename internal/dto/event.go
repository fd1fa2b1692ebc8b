package dto

// EventDateLayout is the wire format of event dates.
const EventDateLayout = "2006-01-02"

// EventResponse is the public event shape.
type EventResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Link        string `json:"link"`
}

// CreateEventRequest is the admin event payload.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Location    string `json:"location" validate:"omitempty,max=255"`
	Link        string `json:"link" validate:"omitempty,url"`
}
