package dto

import (
	"time"

	"github.com/ticketchain/ticket-service/internal/models"
)

type TicketResponse struct {
	TicketID        string              `json:"ticket_id"`
	TokenID         int64               `json:"token_id"`
	EventID         string              `json:"event_id,omitempty"`
	Status          models.TicketStatus `json:"status"`
	OwnerAddress    string              `json:"owner_address"`
	TransactionHash string              `json:"transaction_hash"`
	Timestamp       time.Time           `json:"timestamp"`
	Message         string              `json:"message"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	Service         string `json:"service"`
	LedgerBackend   string `json:"ledger_backend"`
	ContractAddress string `json:"contract_address,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToTicketResponse(t *models.Ticket, message string) TicketResponse {
	return TicketResponse{
		TicketID:        t.TicketID,
		TokenID:         t.TokenID,
		EventID:         t.EventID,
		Status:          t.Status,
		OwnerAddress:    t.OwnerAddress,
		TransactionHash: t.TransactionHash,
		Timestamp:       t.Timestamp,
		Message:         message,
	}
}
