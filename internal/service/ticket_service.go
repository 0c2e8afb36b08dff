package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ticketchain/ticket-service/internal/ledger"
	"github.com/ticketchain/ticket-service/internal/models"
	"github.com/ticketchain/ticket-service/internal/registry"
	"github.com/ticketchain/ticket-service/pkg/rabbitmq"
)

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrDuplicateTicket = errors.New("ticket id already sold")
)

type TicketService interface {
	SellTicket(ctx context.Context, order *models.SellOrder) (*models.Ticket, error)
	ResellTicket(ctx context.Context, order *models.ResaleOrder) (*models.Ticket, error)
	CheckInTicket(ctx context.Context, ticketID string) (*models.Ticket, error)
	InvalidateTicket(ctx context.Context, ticketID string) (*models.Ticket, error)
}

type ticketService struct {
	registry  *registry.Registry
	ledger    ledger.Ledger
	publisher *rabbitmq.Publisher
	timeout   time.Duration

	// locks serializes operations per ticket id so two concurrent requests
	// for the same ticket cannot both reach the ledger with stale reads.
	// Lock entries are never removed; the table grows with distinct ids.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewTicketService wires the orchestrator. publisher may be nil when no
// broker is configured; timeout bounds each ledger transaction (0 disables
// the bound).
func NewTicketService(reg *registry.Registry, led ledger.Ledger, publisher *rabbitmq.Publisher, timeout time.Duration) TicketService {
	return &ticketService{
		registry:  reg,
		ledger:    led,
		publisher: publisher,
		timeout:   timeout,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *ticketService) SellTicket(ctx context.Context, order *models.SellOrder) (*models.Ticket, error) {
	unlock := s.lockTicket(order.TicketID)
	defer unlock()

	if s.registry.Exists(order.TicketID) {
		return nil, ErrDuplicateTicket
	}

	tokenURI, err := buildTokenURI(order)
	if err != nil {
		return nil, fmt.Errorf("build token uri: %w", err)
	}

	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	result, err := s.ledger.Mint(ctx, order.ToAddress, tokenURI)
	if err != nil {
		return nil, fmt.Errorf("mint ticket: %w", err)
	}

	// Registration happens only after the mint is confirmed, so a failed
	// mint never leaves a dangling mapping. The other direction cannot be
	// rolled back: a confirmed mint stands even if the registry write
	// fails, and the inconsistency is logged instead.
	if err := s.registry.Register(order.TicketID, result.TokenID); err != nil {
		if errors.Is(err, registry.ErrDuplicateTicket) {
			return nil, ErrDuplicateTicket
		}
		log.Printf("[TicketService] ticket %s minted as token %d but registry write failed: %v",
			order.TicketID, result.TokenID, err)
	}

	ticket := &models.Ticket{
		TicketID:        order.TicketID,
		TokenID:         result.TokenID,
		EventID:         order.EventID,
		Status:          models.StatusValid,
		OwnerAddress:    order.ToAddress,
		TransactionHash: result.Receipt.TxHash,
		Timestamp:       result.Receipt.Timestamp,
	}

	s.publish("ticket.sold", ticket, order.UserID, order.Price)
	return ticket, nil
}

func (s *ticketService) ResellTicket(ctx context.Context, order *models.ResaleOrder) (*models.Ticket, error) {
	unlock := s.lockTicket(order.TicketID)
	defer unlock()

	tokenID, ok := s.registry.Resolve(order.TicketID)
	if !ok {
		return nil, ErrTicketNotFound
	}

	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	currentOwner, err := s.ledger.Owner(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("look up current owner: %w", err)
	}

	receipt, err := s.ledger.Transfer(ctx, tokenID, currentOwner, order.ToAddress)
	if err != nil {
		return nil, fmt.Errorf("transfer ticket: %w", err)
	}

	// Re-read the status so the response reflects the ledger, not an
	// assumption about what the transfer left behind.
	status, err := s.ledger.Status(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("read ticket status: %w", err)
	}

	ticket := &models.Ticket{
		TicketID:        order.TicketID,
		TokenID:         tokenID,
		Status:          status,
		OwnerAddress:    order.ToAddress,
		TransactionHash: receipt.TxHash,
		Timestamp:       receipt.Timestamp,
	}

	s.publish("ticket.resold", ticket, order.UserID, order.Price)
	return ticket, nil
}

func (s *ticketService) CheckInTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.transition(ctx, ticketID, models.StatusCheckedIn, "ticket.checked_in", s.ledger.CheckIn)
}

func (s *ticketService) InvalidateTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return s.transition(ctx, ticketID, models.StatusInvalidated, "ticket.invalidated", s.ledger.Invalidate)
}

// transition runs the shared resolve → ledger call → owner re-read flow for
// check-in and invalidation. Status rules are enforced by the ledger itself;
// its rejection surfaces verbatim.
func (s *ticketService) transition(
	ctx context.Context,
	ticketID string,
	status models.TicketStatus,
	routingKey string,
	op func(context.Context, int64) (*ledger.Receipt, error),
) (*models.Ticket, error) {
	unlock := s.lockTicket(ticketID)
	defer unlock()

	tokenID, ok := s.registry.Resolve(ticketID)
	if !ok {
		return nil, ErrTicketNotFound
	}

	ctx, cancel := s.ledgerContext(ctx)
	defer cancel()

	receipt, err := op(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("update ticket state: %w", err)
	}

	owner, err := s.ledger.Owner(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("look up owner: %w", err)
	}

	ticket := &models.Ticket{
		TicketID:        ticketID,
		TokenID:         tokenID,
		Status:          status,
		OwnerAddress:    owner,
		TransactionHash: receipt.TxHash,
		Timestamp:       receipt.Timestamp,
	}

	s.publish(routingKey, ticket, "", 0)
	return ticket, nil
}

func (s *ticketService) lockTicket(ticketID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[ticketID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[ticketID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (s *ticketService) ledgerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *ticketService) publish(routingKey string, ticket *models.Ticket, userID string, price int64) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(routingKey, struct {
		*models.Ticket
		UserID string `json:"user_id,omitempty"`
		Price  int64  `json:"price,omitempty"`
	}{ticket, userID, price})
}

// buildTokenURI packages the ticket metadata into a self-contained data URI.
// Suitable for small payloads only; large metadata belongs in external
// storage such as IPFS.
func buildTokenURI(order *models.SellOrder) (string, error) {
	name := order.Name
	if name == "" {
		name = fmt.Sprintf("Ticket #%s", order.TicketID)
	}
	description := order.Description
	if description == "" {
		description = fmt.Sprintf("Ticket for event %s", order.EventID)
	}
	attributes := order.Attributes
	if attributes == nil {
		attributes = map[string]any{}
	}

	metadata := map[string]any{
		"name":        name,
		"description": description,
		"image":       order.ImageURL,
		"attributes":  attributes,
		"event_id":    order.EventID,
		"ticket_id":   order.TicketID,
	}

	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(raw), nil
}
