package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeops/factory-message-service/environments"
	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/health"
	"github.com/tradeops/factory-message-service/internal/templates"
	"github.com/tradeops/factory-message-service/pkg/logger"
	"github.com/tradeops/factory-message-service/pkg/provider"
)

// Sentinel errors the HTTP layer maps to status codes.
var (
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrNoWebhook        = errors.New("supplier has no webhook configured")
	ErrUnknownKind      = errors.New("unknown message kind")
	ErrEmptyContent     = errors.New("content is required for general messages")
	ErrContentTooLong   = errors.New("content exceeds the maximum length")
	ErrOrderNotFound    = errors.New("purchase order not found")
)

// Small internal interfaces so services are testable without a real
// database, cache, or provider endpoint.
type supplierStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Supplier, error)
	UpdateHealth(ctx context.Context, id int64, st health.State) error
}

type orderStore interface {
	GetByID(ctx context.Context, id int64) (*domain.PurchaseOrder, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*domain.PurchaseOrder, error)
	GetItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	UpdateLifecycle(ctx context.Context, po *domain.PurchaseOrder) error
	TouchFactoryMessage(ctx context.Context, orderID int64, at time.Time) error
	ListActiveForReminders(ctx context.Context) ([]domain.PurchaseOrder, error)
}

type messageStore interface {
	Create(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	FinalizeOutbound(ctx context.Context, id int64, status domain.MessageStatus, retryCount int, providerResponse string) error
	FinalizeInbound(ctx context.Context, id int64, status domain.MessageStatus, orderID, noteID *int64) error
	GetPendingOutbound(ctx context.Context, limit int) ([]domain.Message, error)
	GetAll(ctx context.Context, direction *domain.MessageDirection, status *domain.MessageStatus, page, pageSize int) ([]domain.Message, int64, error)
	GetStats(ctx context.Context) (map[string]int64, error)
	ReplayFailedByID(ctx context.Context, id int64) error
	ReplayAllFailed(ctx context.Context) (int64, error)
	HasInboundProviderMsgID(ctx context.Context, providerMsgID string) (bool, error)
}

type deliveryClient interface {
	SendMarkdown(ctx context.Context, webhookURL, content string) provider.Result
}

// SendInput is one outbound notification request. Metadata fields overlay
// the order projection, so caller-supplied figures win over denormalized
// order values.
type SendInput struct {
	SupplierID int64
	OrderID    *int64
	Kind       templates.Kind
	Content    string

	Amount         *decimal.Decimal
	PaymentPurpose string
	ReceiptURL     string
	DocumentName   string
	DocumentURL    string
	Days           int
}

// OutboundService composes, persists, and delivers factory notifications.
type OutboundService struct {
	suppliers supplierStore
	orders    orderStore
	messages  messageStore
	delivery  deliveryClient
	config    environments.MessageConfig
}

func NewOutboundService(
	suppliers supplierStore,
	orders orderStore,
	messages messageStore,
	delivery deliveryClient,
	config environments.MessageConfig,
) *OutboundService {
	return &OutboundService{
		suppliers: suppliers,
		orders:    orders,
		messages:  messages,
		delivery:  delivery,
		config:    config,
	}
}

// Send composes one message, records it as pending, then attempts delivery.
// The body comes from the kind's template unless the caller supplied explicit
// content. Delivery failure is not an error: the message stays in the audit
// trail as failed and the outcome reports what happened.
func (s *OutboundService) Send(ctx context.Context, in SendInput) (*domain.SendOutcome, error) {
	if !templates.Valid(in.Kind) {
		return nil, ErrUnknownKind
	}

	supplier, err := s.suppliers.GetByID(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}
	if supplier.WebhookURL == "" {
		return nil, ErrNoWebhook
	}

	tctx, err := s.buildContext(ctx, supplier, in)
	if err != nil {
		return nil, err
	}

	// Explicit caller content bypasses templating for any kind. The kind
	// tag still rides on the message record for the audit trail.
	content := in.Content
	if content == "" {
		content, err = templates.Render(in.Kind, tctx)
		if err != nil {
			return nil, err
		}
	}
	if len(content) > s.config.MaxContentLength {
		return nil, ErrContentTooLong
	}

	msg, err := s.messages.Create(ctx, &domain.Message{
		Direction:  domain.DirectionOutbound,
		SupplierID: supplier.ID,
		OrderID:    in.OrderID,
		Kind:       string(in.Kind),
		Content:    content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record outbound message: %w", err)
	}

	outcome := s.deliver(ctx, supplier, msg)
	return &outcome, nil
}

// DeliverPending resends outbound messages still in pending state, in
// creation order. Used by the scheduler for messages that were replayed or
// never left the queue.
func (s *OutboundService) DeliverPending(ctx context.Context) ([]domain.SendOutcome, error) {
	pending, err := s.messages.GetPendingOutbound(ctx, s.config.PendingBatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending messages: %w", err)
	}

	if len(pending) == 0 {
		logger.Debugf("No pending outbound messages")
		return nil, nil
	}

	logger.Infof("Delivering %d pending outbound messages", len(pending))

	outcomes := make([]domain.SendOutcome, 0, len(pending))
	for i := range pending {
		msg := pending[i]

		supplier, err := s.suppliers.GetByID(ctx, msg.SupplierID)
		if err != nil {
			logger.Errorf("Failed to load supplier %d for message %d: %v", msg.SupplierID, msg.ID, err)
			continue
		}
		if supplier == nil || supplier.WebhookURL == "" {
			if err := s.messages.FinalizeOutbound(ctx, msg.ID, domain.StatusFailed, 0, "supplier has no webhook configured"); err != nil {
				logger.Errorf("Failed to finalize message %d: %v", msg.ID, err)
			}
			continue
		}

		outcomes = append(outcomes, s.deliver(ctx, supplier, &msg))
	}

	return outcomes, nil
}

// deliver runs one delivery sequence and folds the result into the message
// record, the supplier's health, and the order's contact timestamp.
func (s *OutboundService) deliver(ctx context.Context, supplier *domain.Supplier, msg *domain.Message) domain.SendOutcome {
	result := s.delivery.SendMarkdown(ctx, supplier.WebhookURL, msg.Content)

	outcome := domain.SendOutcome{
		MessageID:   msg.ID,
		MessageUID:  msg.UID,
		Success:     result.Success,
		Attempts:    result.Attempts,
		ProviderRaw: result.RawBody,
	}

	status := domain.StatusSent
	providerResponse := result.RawBody
	if !result.Success {
		status = domain.StatusFailed
		if result.ErrorMessage != "" {
			providerResponse = result.ErrorMessage
		}
		outcome.Err = errors.New(result.ErrorMessage)
		logger.Warnf("Delivery to supplier %d failed after %d attempt(s): %s",
			supplier.ID, result.Attempts, result.ErrorMessage)
	}

	// retry_count records delivery attempts made, so a permanently failing
	// endpoint finishes as failed with retry_count equal to the full budget.
	if err := s.messages.FinalizeOutbound(ctx, msg.ID, status, result.Attempts, providerResponse); err != nil {
		logger.Errorf("Failed to finalize message %d: %v", msg.ID, err)
	}

	isTest := msg.Kind == string(templates.KindTest)
	st := health.FromSupplier(supplier)
	if result.Success {
		st = health.RecordSuccess(st, isTest, time.Now())
	} else {
		st = health.RecordFailure(st, result.ErrorMessage)
	}
	if err := s.suppliers.UpdateHealth(ctx, supplier.ID, st); err != nil {
		logger.Errorf("Failed to update supplier %d health: %v", supplier.ID, err)
	}

	// Contact tracking counts attempts, not successes. An undelivered
	// reminder should not look like a supplier that was never contacted.
	if msg.OrderID != nil {
		if err := s.orders.TouchFactoryMessage(ctx, *msg.OrderID, time.Now()); err != nil {
			logger.Errorf("Failed to touch order %d: %v", *msg.OrderID, err)
		}
	}

	return outcome
}

// buildContext assembles the template context: order projection first, then
// caller metadata layered on top.
func (s *OutboundService) buildContext(ctx context.Context, supplier *domain.Supplier, in SendInput) (templates.Context, error) {
	tctx := templates.Context{
		SupplierName:   supplier.Name,
		Amount:         in.Amount,
		PaymentPurpose: in.PaymentPurpose,
		ReceiptURL:     in.ReceiptURL,
		DocumentName:   in.DocumentName,
		DocumentURL:    in.DocumentURL,
		Days:           in.Days,
		Content:        in.Content,
	}

	if in.Kind == templates.KindGeneral && in.Content == "" {
		return tctx, ErrEmptyContent
	}

	if in.OrderID == nil {
		return tctx, nil
	}

	po, err := s.orders.GetByID(ctx, *in.OrderID)
	if err != nil {
		return tctx, err
	}
	if po == nil {
		return tctx, ErrOrderNotFound
	}
	if po.SupplierID != supplier.ID {
		return tctx, fmt.Errorf("order %s belongs to another supplier", po.OrderNo)
	}

	tctx.OrderNo = po.OrderNo
	tctx.TotalValue = po.TotalValue
	tctx.Currency = po.Currency
	tctx.DeliveryDate = po.DeliveryDate
	if po.PaymentTerms != nil {
		tctx.PaymentTerms = *po.PaymentTerms
	}
	if po.SalesOrderNo != nil {
		tctx.SalesOrderNo = *po.SalesOrderNo
	}

	items, err := s.orders.GetItems(ctx, po.ID)
	if err != nil {
		return tctx, err
	}
	tctx.Items = items

	return tctx, nil
}

// Message admin surface used by the HTTP layer.

func (s *OutboundService) ListMessages(
	ctx context.Context,
	direction *domain.MessageDirection,
	status *domain.MessageStatus,
	page, pageSize int,
) ([]domain.Message, int64, error) {
	return s.messages.GetAll(ctx, direction, status, page, pageSize)
}

func (s *OutboundService) Stats(ctx context.Context) (map[string]int64, error) {
	return s.messages.GetStats(ctx)
}

func (s *OutboundService) ReplayFailed(ctx context.Context, id int64) error {
	return s.messages.ReplayFailedByID(ctx, id)
}

func (s *OutboundService) ReplayAllFailed(ctx context.Context) (int64, error) {
	return s.messages.ReplayAllFailed(ctx)
}
