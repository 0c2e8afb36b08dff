package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/ticketchain/ticket-service/internal/dto"
	"github.com/ticketchain/ticket-service/internal/ledger"
	"github.com/ticketchain/ticket-service/internal/models"
	"github.com/ticketchain/ticket-service/internal/service"
)

const (
	addrA = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
	addrB = "0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"
)

// --- Mock TicketService ---

type mockTicketService struct {
	sellFn       func(ctx context.Context, order *models.SellOrder) (*models.Ticket, error)
	resellFn     func(ctx context.Context, order *models.ResaleOrder) (*models.Ticket, error)
	checkInFn    func(ctx context.Context, ticketID string) (*models.Ticket, error)
	invalidateFn func(ctx context.Context, ticketID string) (*models.Ticket, error)
}

func (m *mockTicketService) SellTicket(ctx context.Context, order *models.SellOrder) (*models.Ticket, error) {
	return m.sellFn(ctx, order)
}
func (m *mockTicketService) ResellTicket(ctx context.Context, order *models.ResaleOrder) (*models.Ticket, error) {
	return m.resellFn(ctx, order)
}
func (m *mockTicketService) CheckInTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return m.checkInFn(ctx, ticketID)
}
func (m *mockTicketService) InvalidateTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	return m.invalidateFn(ctx, ticketID)
}

func newContext(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tickets/sold", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// --- Tests ---

func TestSoldTicket_Handler_Success(t *testing.T) {
	svc := &mockTicketService{
		sellFn: func(ctx context.Context, order *models.SellOrder) (*models.Ticket, error) {
			return &models.Ticket{
				TicketID:        order.TicketID,
				TokenID:         0,
				EventID:         order.EventID,
				Status:          models.StatusValid,
				OwnerAddress:    order.ToAddress,
				TransactionHash: "0xabc",
				Timestamp:       time.Now(),
			}, nil
		},
	}

	body := `{"event_id":"E1","ticket_id":"T1","user_id":"U1","price":1000000000000000000,"to_address":"` + addrA + `"}`
	c, rec := newContext(t, body)

	h := NewTicketHandler(svc)
	err := h.SoldTicket(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.TicketResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "T1", resp.TicketID)
	assert.Equal(t, "E1", resp.EventID)
	assert.Equal(t, models.StatusValid, resp.Status)
	assert.Equal(t, addrA, resp.OwnerAddress)
	assert.Equal(t, "0xabc", resp.TransactionHash)
	assert.Equal(t, "Ticket successfully minted", resp.Message)
}

func TestSoldTicket_Handler_MissingFields(t *testing.T) {
	c, _ := newContext(t, `{"ticket_id":"T1"}`)

	h := NewTicketHandler(nil)
	err := h.SoldTicket(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestSoldTicket_Handler_NegativePrice(t *testing.T) {
	body := `{"event_id":"E1","ticket_id":"T1","price":-5,"to_address":"` + addrA + `"}`
	c, _ := newContext(t, body)

	h := NewTicketHandler(nil)
	err := h.SoldTicket(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestSoldTicket_Handler_DuplicateTicket(t *testing.T) {
	svc := &mockTicketService{
		sellFn: func(ctx context.Context, order *models.SellOrder) (*models.Ticket, error) {
			return nil, service.ErrDuplicateTicket
		},
	}

	body := `{"event_id":"E1","ticket_id":"T1","to_address":"` + addrA + `"}`
	c, _ := newContext(t, body)

	h := NewTicketHandler(svc)
	err := h.SoldTicket(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Code)
}

func TestSoldTicket_Handler_LedgerUnavailable(t *testing.T) {
	svc := &mockTicketService{
		sellFn: func(ctx context.Context, order *models.SellOrder) (*models.Ticket, error) {
			return nil, ledger.ErrUnavailable
		},
	}

	body := `{"event_id":"E1","ticket_id":"T1","to_address":"` + addrA + `"}`
	c, _ := newContext(t, body)

	h := NewTicketHandler(svc)
	err := h.SoldTicket(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, he.Code)
}

func TestResoldTicket_Handler_Success(t *testing.T) {
	svc := &mockTicketService{
		resellFn: func(ctx context.Context, order *models.ResaleOrder) (*models.Ticket, error) {
			return &models.Ticket{
				TicketID:        order.TicketID,
				TokenID:         3,
				Status:          models.StatusValid,
				OwnerAddress:    order.ToAddress,
				TransactionHash: "0xdef",
			}, nil
		},
	}

	body := `{"ticket_id":"T1","user_id":"U2","price":1500000000000000000,"to_address":"` + addrB + `"}`
	c, rec := newContext(t, body)

	h := NewTicketHandler(svc)
	err := h.ResoldTicket(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.TicketResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, addrB, resp.OwnerAddress)
	assert.Equal(t, int64(3), resp.TokenID)
}

func TestResoldTicket_Handler_NotFound(t *testing.T) {
	svc := &mockTicketService{
		resellFn: func(ctx context.Context, order *models.ResaleOrder) (*models.Ticket, error) {
			return nil, service.ErrTicketNotFound
		},
	}

	body := `{"ticket_id":"ghost","to_address":"` + addrB + `"}`
	c, _ := newContext(t, body)

	h := NewTicketHandler(svc)
	err := h.ResoldTicket(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestCheckedInTicket_Handler_Success(t *testing.T) {
	svc := &mockTicketService{
		checkInFn: func(ctx context.Context, ticketID string) (*models.Ticket, error) {
			return &models.Ticket{
				TicketID:     ticketID,
				TokenID:      1,
				Status:       models.StatusCheckedIn,
				OwnerAddress: addrA,
			}, nil
		},
	}

	c, rec := newContext(t, `{"ticket_id":"T1"}`)

	h := NewTicketHandler(svc)
	err := h.CheckedInTicket(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.TicketResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusCheckedIn, resp.Status)
}

func TestCheckedInTicket_Handler_MissingTicketID(t *testing.T) {
	c, _ := newContext(t, `{}`)

	h := NewTicketHandler(nil)
	err := h.CheckedInTicket(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCheckedInTicket_Handler_LedgerRejection(t *testing.T) {
	svc := &mockTicketService{
		checkInFn: func(ctx context.Context, ticketID string) (*models.Ticket, error) {
			return nil, &ledger.RejectedError{Reason: "Ticket is not valid"}
		},
	}

	c, _ := newContext(t, `{"ticket_id":"T1"}`)

	h := NewTicketHandler(svc)
	err := h.CheckedInTicket(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, he.Code)
	assert.Contains(t, he.Message, "Ticket is not valid")
}

func TestInvalidatedTicket_Handler_Success(t *testing.T) {
	svc := &mockTicketService{
		invalidateFn: func(ctx context.Context, ticketID string) (*models.Ticket, error) {
			return &models.Ticket{
				TicketID:     ticketID,
				TokenID:      2,
				Status:       models.StatusInvalidated,
				OwnerAddress: addrA,
			}, nil
		},
	}

	c, rec := newContext(t, `{"ticket_id":"T2"}`)

	h := NewTicketHandler(svc)
	err := h.InvalidatedTicket(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.TicketResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusInvalidated, resp.Status)
}

func TestInvalidatedTicket_Handler_NotFound(t *testing.T) {
	svc := &mockTicketService{
		invalidateFn: func(ctx context.Context, ticketID string) (*models.Ticket, error) {
			return nil, service.ErrTicketNotFound
		},
	}

	c, _ := newContext(t, `{"ticket_id":"ghost"}`)

	h := NewTicketHandler(svc)
	err := h.InvalidatedTicket(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}
