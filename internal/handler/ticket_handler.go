package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ticketchain/ticket-service/internal/dto"
	"github.com/ticketchain/ticket-service/internal/ledger"
	"github.com/ticketchain/ticket-service/internal/models"
	"github.com/ticketchain/ticket-service/internal/service"
)

type TicketHandler struct {
	svc service.TicketService
}

func NewTicketHandler(svc service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

func (h *TicketHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/sold", h.SoldTicket)
	g.POST("/resold", h.ResoldTicket)
	g.POST("/checked-in", h.CheckedInTicket)
	g.POST("/invalidated", h.InvalidatedTicket)
}

func (h *TicketHandler) SoldTicket(c echo.Context) error {
	var req dto.SoldTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TicketID == "" || req.EventID == "" || req.ToAddress == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ticket_id, event_id and to_address are required")
	}
	if req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}

	ticket, err := h.svc.SellTicket(c.Request().Context(), &models.SellOrder{
		EventID:     req.EventID,
		TicketID:    req.TicketID,
		UserID:      req.UserID,
		Price:       req.Price,
		ToAddress:   req.ToAddress,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Attributes:  req.Attributes,
	})
	if err != nil {
		return ticketError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToTicketResponse(ticket, "Ticket successfully minted"))
}

func (h *TicketHandler) ResoldTicket(c echo.Context) error {
	var req dto.ResoldTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TicketID == "" || req.ToAddress == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ticket_id and to_address are required")
	}
	if req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "price must not be negative")
	}

	ticket, err := h.svc.ResellTicket(c.Request().Context(), &models.ResaleOrder{
		TicketID:  req.TicketID,
		UserID:    req.UserID,
		Price:     req.Price,
		ToAddress: req.ToAddress,
	})
	if err != nil {
		return ticketError(err)
	}

	return c.JSON(http.StatusOK, dto.ToTicketResponse(ticket, "Ticket successfully transferred"))
}

func (h *TicketHandler) CheckedInTicket(c echo.Context) error {
	var req dto.CheckedInTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TicketID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ticket_id is required")
	}

	ticket, err := h.svc.CheckInTicket(c.Request().Context(), req.TicketID)
	if err != nil {
		return ticketError(err)
	}

	return c.JSON(http.StatusOK, dto.ToTicketResponse(ticket, "Ticket successfully checked in"))
}

func (h *TicketHandler) InvalidatedTicket(c echo.Context) error {
	var req dto.InvalidatedTicketRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.TicketID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "ticket_id is required")
	}

	ticket, err := h.svc.InvalidateTicket(c.Request().Context(), req.TicketID)
	if err != nil {
		return ticketError(err)
	}

	return c.JSON(http.StatusOK, dto.ToTicketResponse(ticket, "Ticket successfully invalidated"))
}

// ticketError maps orchestrator and ledger failures onto HTTP statuses.
// Ledger rejections pass the ledger's own message through.
func ticketError(err error) error {
	var rejected *ledger.RejectedError
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateTicket):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &rejected):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
