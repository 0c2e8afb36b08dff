package models

import "time"

type TicketStatus string

const (
	StatusValid       TicketStatus = "valid"
	StatusCheckedIn   TicketStatus = "checked_in"
	StatusInvalidated TicketStatus = "invalidated"
)

// Ticket is a snapshot of a ticket assembled from the local registry and the
// ledger at request time. The ledger holds the authoritative status and owner.
type Ticket struct {
	TicketID        string       `json:"ticket_id"`
	TokenID         int64        `json:"token_id"`
	EventID         string       `json:"event_id,omitempty"`
	Status          TicketStatus `json:"status"`
	OwnerAddress    string       `json:"owner_address"`
	TransactionHash string       `json:"transaction_hash"`
	Timestamp       time.Time    `json:"timestamp"`
}

// SellOrder carries the primary-sale details for minting a new ticket token.
type SellOrder struct {
	EventID     string
	TicketID    string
	UserID      string
	Price       int64
	ToAddress   string
	Name        string
	Description string
	ImageURL    string
	Attributes  map[string]any
}

// ResaleOrder carries the secondary-market transfer details.
type ResaleOrder struct {
	TicketID  string
	UserID    string
	Price     int64
	ToAddress string
}

// TicketMapping is the persisted registry row mapping a ticket id to its
// ledger-assigned token id. Rows are write-once under normal operation.
type TicketMapping struct {
	TicketID  string    `gorm:"primaryKey;type:varchar(128)" json:"ticket_id"`
	TokenID   int64     `gorm:"not null" json:"token_id"`
	CreatedAt time.Time `json:"created_at"`
}
