package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/service"
	"github.com/tradeops/factory-message-service/internal/templates"
	"github.com/tradeops/factory-message-service/pkg/response"
	"github.com/tradeops/factory-message-service/pkg/validator"
)

// outboundService is the slice of the outbound service the handler needs,
// so tests can plug in a fake.
type outboundService interface {
	Send(ctx context.Context, in service.SendInput) (*domain.SendOutcome, error)
	ListMessages(ctx context.Context, direction *domain.MessageDirection, status *domain.MessageStatus, page, pageSize int) ([]domain.Message, int64, error)
	Stats(ctx context.Context) (map[string]int64, error)
	ReplayFailed(ctx context.Context, id int64) error
	ReplayAllFailed(ctx context.Context) (int64, error)
}

type MessageHandler struct {
	service outboundService
}

func NewMessageHandler(service outboundService) *MessageHandler {
	return &MessageHandler{service: service}
}

type SendMessageRequest struct {
	SupplierID int64  `json:"supplierId" validate:"required"`
	OrderID    *int64 `json:"orderId,omitempty"`
	Kind       string `json:"kind" validate:"required"`
	Content    string `json:"content,omitempty" validate:"omitempty,notblank,max=4000"`

	Amount         *decimal.Decimal `json:"amount,omitempty"`
	PaymentPurpose string           `json:"paymentPurpose,omitempty" validate:"omitempty,max=200"`
	ReceiptURL     string           `json:"receiptUrl,omitempty" validate:"omitempty,url"`
	DocumentName   string           `json:"documentName,omitempty" validate:"omitempty,max=200"`
	DocumentURL    string           `json:"documentUrl,omitempty" validate:"omitempty,url"`
	Days           int              `json:"days,omitempty" validate:"omitempty,min=0"`
}

// SendMessage godoc
// @Summary Send a notification to a supplier's group chat
// @Description Renders the requested template and delivers it to the supplier's webhook. Delivery failure is reported in the payload, not as an HTTP error.
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param message body SendMessageRequest true "Notification to send"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages [post]
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	outcome, err := h.service.Send(c.Request().Context(), service.SendInput{
		SupplierID:     req.SupplierID,
		OrderID:        req.OrderID,
		Kind:           templates.Kind(req.Kind),
		Content:        req.Content,
		Amount:         req.Amount,
		PaymentPurpose: req.PaymentPurpose,
		ReceiptURL:     req.ReceiptURL,
		DocumentName:   req.DocumentName,
		DocumentURL:    req.DocumentURL,
		Days:           req.Days,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSupplierNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrNoWebhook),
			errors.Is(err, service.ErrUnknownKind),
			errors.Is(err, service.ErrEmptyContent),
			errors.Is(err, service.ErrContentTooLong),
			errors.Is(err, service.ErrOrderNotFound):
			return response.BadRequest(c, err)
		default:
			return response.InternalServerError(c, err)
		}
	}

	data := map[string]any{
		"messageId":  outcome.MessageID,
		"messageUid": outcome.MessageUID,
		"delivered":  outcome.Success,
		"attempts":   outcome.Attempts,
	}
	if outcome.ProviderRaw != "" {
		data["providerResponse"] = outcome.ProviderRaw
	}
	if outcome.Err != nil {
		data["error"] = outcome.Err.Error()
	}

	return response.Ok(c, data)
}

// GetAllMessages godoc
// @Summary Get the communication audit trail
// @Description Retrieves a paginated list of messages with optional direction and status filters
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param page query int false "Page number (default: 1)"
// @Param pageSize query int false "Page size (default: 20, max: 100)"
// @Param direction query string false "Filter by direction (inbound, outbound)"
// @Param status query string false "Filter by status (pending, sent, failed, delivered, read)"
// @Success 200 {object} response.PaginatedResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages [get]
func (h *MessageHandler) GetAllMessages(c echo.Context) error {
	page, pageSize, err := parsePaginationParams(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	// Optional filters arrive as strings; empty means no filter.
	var direction *domain.MessageDirection
	if directionStr := c.QueryParam("direction"); directionStr != "" {
		parsed := domain.MessageDirection(directionStr)
		direction = &parsed
	}

	var status *domain.MessageStatus
	if statusStr := c.QueryParam("status"); statusStr != "" {
		parsed := domain.MessageStatus(statusStr)
		status = &parsed
	}

	messages, totalCount, err := h.service.ListMessages(c.Request().Context(), direction, status, page, pageSize)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Paginated(c, messages, page, pageSize, totalCount)
}

// GetStats godoc
// @Summary Get message statistics
// @Description Returns message counts grouped by direction and status
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/stats [get]
func (h *MessageHandler) GetStats(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	var total int64
	for _, count := range stats {
		total += count
	}

	return response.Ok(c, map[string]any{
		"buckets": stats,
		"total":   total,
	})
}

// ReplayAllFailedMessages godoc
// @Summary Replay all failed outbound messages
// @Description Sets status='pending' for all failed outbound messages so the scheduler can resend them
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/replay [post]
func (h *MessageHandler) ReplayAllFailedMessages(c echo.Context) error {
	count, err := h.service.ReplayAllFailed(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]any{
		"replayed": count,
	})
}

// ReplayFailedMessage godoc
// @Summary Replay a single failed outbound message
// @Description Sets status='pending' for a specific failed message so the scheduler can resend it
// @Tags messages
// @Accept json
// @Produce json
// @Param x-api-key header string true "API key for messages"
// @Param id path int true "Message ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/v1/messages/{id}/replay [post]
func (h *MessageHandler) ReplayFailedMessage(c echo.Context) error {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return response.BadRequest(c, fmt.Errorf("invalid message id"))
	}

	if err := h.service.ReplayFailed(c.Request().Context(), id); err != nil {
		// "no failed message found" is a caller mistake, not a server fault.
		return response.BadRequest(c, err)
	}

	return response.Ok(c, map[string]any{
		"replayed": 1,
	})
}

func parsePaginationParams(c echo.Context) (int, int, error) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)

	pageStr := c.QueryParam("page")
	pageSizeStr := c.QueryParam("pageSize")

	page := defaultPage
	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil || p <= 0 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
		page = p
	}

	pageSize := defaultPageSize
	if pageSizeStr != "" {
		ps, err := strconv.Atoi(pageSizeStr)
		if err != nil || ps <= 0 || ps > maxPageSize {
			return 0, 0, fmt.Errorf("pageSize must be between 1 and %d", maxPageSize)
		}

		pageSize = ps
	}

	return page, pageSize, nil
}
