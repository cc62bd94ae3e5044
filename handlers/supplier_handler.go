package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/service"
	"github.com/tradeops/factory-message-service/internal/templates"
	"github.com/tradeops/factory-message-service/pkg/response"
)

type supplierLister interface {
	List(ctx context.Context) ([]domain.Supplier, error)
}

type testSender interface {
	Send(ctx context.Context, in service.SendInput) (*domain.SendOutcome, error)
}

// SupplierHandler exposes supplier integration health and the connection
// test endpoint.
type SupplierHandler struct {
	suppliers supplierLister
	sender    testSender
}

func NewSupplierHandler(suppliers supplierLister, sender testSender) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers, sender: sender}
}

// ListSuppliers godoc
// @Summary List suppliers with integration health
// @Description Returns all suppliers with their chat integration status, error trail, and last successful test
// @Tags suppliers
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/suppliers [get]
func (h *SupplierHandler) ListSuppliers(c echo.Context) error {
	suppliers, err := h.suppliers.List(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, suppliers)
}

// TestSupplierWebhook godoc
// @Summary Send a connection test to a supplier's group chat
// @Description Delivers a test message to the supplier's webhook and updates the integration health accordingly
// @Tags suppliers
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param id path int true "Supplier ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/suppliers/{id}/test [post]
func (h *SupplierHandler) TestSupplierWebhook(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, fmt.Errorf("invalid supplier id"))
	}

	outcome, err := h.sender.Send(c.Request().Context(), service.SendInput{
		SupplierID: id,
		Kind:       templates.KindTest,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSupplierNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrNoWebhook):
			return response.BadRequest(c, err)
		default:
			return response.InternalServerError(c, err)
		}
	}

	data := map[string]any{
		"messageId": outcome.MessageID,
		"delivered": outcome.Success,
		"attempts":  outcome.Attempts,
	}
	if outcome.Err != nil {
		data["error"] = outcome.Err.Error()
	}

	return response.Ok(c, data)
}
