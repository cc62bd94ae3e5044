package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradeops/factory-message-service/internal/service"
	"github.com/tradeops/factory-message-service/pkg/response"
	"github.com/tradeops/factory-message-service/pkg/validator"
)

type inboundProcessor interface {
	Process(ctx context.Context, in service.InboundInput) (*service.InboundResult, error)
}

// WebhookHandler receives factory replies forwarded by the chat provider.
// Authentication is the supplier's own token, not the internal API key: the
// provider calls this endpoint, not our users.
type WebhookHandler struct {
	service inboundProcessor
}

func NewWebhookHandler(service inboundProcessor) *WebhookHandler {
	return &WebhookHandler{service: service}
}

type FactoryReplyRequest struct {
	Token    string     `json:"token" validate:"required"`
	Content  string     `json:"content" validate:"required,notblank,max=4000"`
	FromUser string     `json:"from_user,omitempty" validate:"omitempty,max=100"`
	MsgID    string     `json:"msg_id,omitempty" validate:"omitempty,max=100"`
	SentAt   *time.Time `json:"timestamp,omitempty"`
}

// FactoryReplyResponse is the flat payload the provider expects back.
type FactoryReplyResponse struct {
	Success   bool    `json:"success"`
	Duplicate bool    `json:"duplicate,omitempty"`
	MessageID *int64  `json:"message_id,omitempty"`
	Processed bool    `json:"processed"`
	Action    *string `json:"action,omitempty"`
	PONumber  *string `json:"po_number,omitempty"`
	POID      *int64  `json:"po_id,omitempty"`
}

// ReceiveFactoryReply godoc
// @Summary Receive a factory reply
// @Description Accepts a free-text reply from a supplier group chat, records it, and applies any recognized production event to the purchase order
// @Tags webhooks
// @Accept json
// @Produce json
// @Param supplierId path int true "Supplier ID"
// @Param reply body FactoryReplyRequest true "Factory reply"
// @Success 200 {object} FactoryReplyResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/webhooks/factory/{supplierId} [post]
func (h *WebhookHandler) ReceiveFactoryReply(c echo.Context) error {
	supplierID, err := strconv.ParseInt(c.Param("supplierId"), 10, 64)
	if err != nil {
		return response.BadRequest(c, fmt.Errorf("invalid supplier id"))
	}

	var req FactoryReplyRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	result, err := h.service.Process(c.Request().Context(), service.InboundInput{
		SupplierID:    supplierID,
		Token:         req.Token,
		Content:       req.Content,
		FromUser:      req.FromUser,
		ProviderMsgID: req.MsgID,
		SentAt:        req.SentAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSupplierNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrInvalidToken):
			return response.Unauthorized(c, err.Error())
		default:
			return response.InternalServerError(c, err)
		}
	}

	resp := FactoryReplyResponse{
		Success:   true,
		Duplicate: result.Duplicate,
		Processed: result.Processed,
		Action:    result.Action,
		PONumber:  result.OrderNo,
		POID:      result.OrderID,
	}
	if result.MessageID != 0 {
		id := result.MessageID
		resp.MessageID = &id
	}

	return c.JSON(http.StatusOK, resp)
}
