package dto

type SoldTicketRequest struct {
	EventID     string         `json:"event_id"`
	TicketID    string         `json:"ticket_id"`
	UserID      string         `json:"user_id"`
	Price       int64          `json:"price"`
	ToAddress   string         `json:"to_address"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	Attributes  map[string]any `json:"metadata_attributes,omitempty"`
}

type ResoldTicketRequest struct {
	TicketID  string `json:"ticket_id"`
	UserID    string `json:"user_id"`
	Price     int64  `json:"price"`
	ToAddress string `json:"to_address"`
}

type CheckedInTicketRequest struct {
	TicketID string `json:"ticket_id"`
}

type InvalidatedTicketRequest struct {
	TicketID string `json:"ticket_id"`
}
