package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ticketchain/ticket-service/internal/models"
)

// ErrUnavailable marks failures to reach or authenticate to the ledger node.
// Callers may retry after operator intervention.
var ErrUnavailable = errors.New("ledger unavailable")

// RejectedError is returned when the ledger itself refuses an operation, e.g.
// an invalid state transition enforced by the contract. Retrying the identical
// transaction will fail identically, so callers must not retry automatically.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("ledger rejected: %s", e.Reason)
}

// Receipt holds the confirmation details of a mined transaction.
type Receipt struct {
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Timestamp   time.Time
}

// MintResult is a mint receipt plus the token id the ledger assigned.
type MintResult struct {
	TokenID int64
	Receipt Receipt
}

// Ledger is the gateway to the ticket contract. Every mutating call is a
// single on-chain transaction that blocks until the transaction is confirmed;
// the context bounds how long a call may wait.
type Ledger interface {
	Mint(ctx context.Context, toAddress, tokenURI string) (*MintResult, error)
	Transfer(ctx context.Context, tokenID int64, fromAddress, toAddress string) (*Receipt, error)
	CheckIn(ctx context.Context, tokenID int64) (*Receipt, error)
	Invalidate(ctx context.Context, tokenID int64) (*Receipt, error)
	Status(ctx context.Context, tokenID int64) (models.TicketStatus, error)
	Owner(ctx context.Context, tokenID int64) (string, error)
}
