package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/ticketchain/ticket-service/internal/models"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

type stubTicket struct {
	owner    string
	status   models.TicketStatus
	tokenURI string
}

// Stub is an in-memory ledger used when no contract address is configured.
// It mirrors the contract's state machine so lifecycle rules still hold:
// token ids are assigned sequentially from 0, check-in and invalidation
// require a valid ticket, and transfers require the caller to name the
// current owner.
type Stub struct {
	mu          sync.Mutex
	nextTokenID int64
	blockNumber uint64
	tickets     map[int64]*stubTicket
}

func NewStub() *Stub {
	return &Stub{
		blockNumber: 1,
		tickets:     make(map[int64]*stubTicket),
	}
}

func (s *Stub) Mint(ctx context.Context, toAddress, tokenURI string) (*MintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tokenID := s.nextTokenID
	s.nextTokenID++
	s.tickets[tokenID] = &stubTicket{
		owner:    toAddress,
		status:   models.StatusValid,
		tokenURI: tokenURI,
	}

	return &MintResult{TokenID: tokenID, Receipt: s.receipt(150000)}, nil
}

func (s *Stub) Transfer(ctx context.Context, tokenID int64, fromAddress, toAddress string) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[tokenID]
	if !ok {
		return nil, &RejectedError{Reason: "Ticket does not exist"}
	}
	if t.owner != fromAddress {
		return nil, &RejectedError{Reason: "transfer from incorrect owner"}
	}
	t.owner = toAddress

	r := s.receipt(60000)
	return &r, nil
}

func (s *Stub) CheckIn(ctx context.Context, tokenID int64) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[tokenID]
	if !ok {
		return nil, &RejectedError{Reason: "Ticket does not exist"}
	}
	if t.status != models.StatusValid {
		return nil, &RejectedError{Reason: "Ticket is not valid"}
	}
	t.status = models.StatusCheckedIn

	r := s.receipt(50000)
	return &r, nil
}

func (s *Stub) Invalidate(ctx context.Context, tokenID int64) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[tokenID]
	if !ok {
		return nil, &RejectedError{Reason: "Ticket does not exist"}
	}
	if t.status != models.StatusValid {
		return nil, &RejectedError{Reason: "Ticket is not valid"}
	}
	t.status = models.StatusInvalidated

	r := s.receipt(50000)
	return &r, nil
}

func (s *Stub) Status(ctx context.Context, tokenID int64) (models.TicketStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[tokenID]
	if !ok {
		return "", &RejectedError{Reason: "Ticket does not exist"}
	}
	return t.status, nil
}

func (s *Stub) Owner(ctx context.Context, tokenID int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tickets[tokenID]
	if !ok {
		return zeroAddress, &RejectedError{Reason: "Ticket does not exist"}
	}
	return t.owner, nil
}

// receipt synthesizes a confirmation for the next block. Callers must hold mu.
func (s *Stub) receipt(gasUsed uint64) Receipt {
	s.blockNumber++
	sum := sha256.Sum256([]byte(strconv.FormatUint(s.blockNumber, 10) + time.Now().String()))
	return Receipt{
		TxHash:      "0x" + hex.EncodeToString(sum[:]),
		BlockNumber: s.blockNumber,
		GasUsed:     gasUsed,
		Timestamp:   time.Now().UTC(),
	}
}
