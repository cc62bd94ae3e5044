package handlers

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/pkg/response"
)

type noteLister interface {
	ListByOrder(ctx context.Context, orderID int64) ([]domain.TeamNote, error)
}

// NoteHandler exposes the team notes written for an order's factory replies.
type NoteHandler struct {
	notes noteLister
}

func NewNoteHandler(notes noteLister) *NoteHandler {
	return &NoteHandler{notes: notes}
}

// ListOrderNotes godoc
// @Summary List team notes for a purchase order
// @Description Returns the auto-generated team notes recorded from factory replies, newest first
// @Tags orders
// @Accept json
// @Produce json
// @Param id path int true "Purchase order ID"
// @Param x-api-key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/orders/{id}/notes [get]
func (h *NoteHandler) ListOrderNotes(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID < 1 {
		return response.BadRequestWithMessage(c, "Invalid order ID")
	}

	notes, err := h.notes.ListByOrder(c.Request().Context(), orderID)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, notes)
}
