package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/grammar"
	"github.com/tradeops/factory-message-service/internal/lifecycle"
	"github.com/tradeops/factory-message-service/internal/templates"
	"github.com/tradeops/factory-message-service/pkg/logger"
)

var (
	ErrInvalidToken = errors.New("invalid supplier token")
)

type dedupCache interface {
	MarkInboundSeen(ctx context.Context, providerMsgID string) (bool, error)
}

type noteStore interface {
	CreateNote(ctx context.Context, note *domain.TeamNote) (int64, error)
	CreateNotifications(ctx context.Context, notifications []domain.Notification) error
}

type userStore interface {
	GetAdmin(ctx context.Context) (*domain.User, error)
	ListAssigned(ctx context.Context, orderID int64, roles []domain.Role) ([]domain.User, error)
}

// InboundInput is one factory reply as delivered by the chat provider's
// outbound webhook.
type InboundInput struct {
	SupplierID    int64
	Token         string
	Content       string
	FromUser      string
	ProviderMsgID string
	// SentAt is the provider's own timestamp for the reply, when it sends
	// one. Preferred over receipt time for milestone stamps.
	SentAt *time.Time
}

// InboundResult reports what a reply did. Processed means order state
// changed; a recorded-but-unrecognized reply is not an error.
type InboundResult struct {
	MessageID  int64
	MessageUID string
	Duplicate  bool
	Processed  bool
	Action     *string
	OrderNo    *string
	OrderID    *int64
}

// InboundService turns free-text factory replies into purchase-order state,
// team notes, and notifications. The reply is persisted before any
// processing, so a crash mid-flight loses interpretation, never the message.
type InboundService struct {
	suppliers supplierStore
	orders    orderStore
	messages  messageStore
	notes     noteStore
	users     userStore
	cache     dedupCache
}

func NewInboundService(
	suppliers supplierStore,
	orders orderStore,
	messages messageStore,
	notes noteStore,
	users userStore,
	cache dedupCache,
) *InboundService {
	return &InboundService{
		suppliers: suppliers,
		orders:    orders,
		messages:  messages,
		notes:     notes,
		users:     users,
		cache:     cache,
	}
}

func (s *InboundService) Process(ctx context.Context, in InboundInput) (*InboundResult, error) {
	supplier, err := s.suppliers.GetByID(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, ErrSupplierNotFound
	}

	if subtle.ConstantTimeCompare([]byte(supplier.Token), []byte(in.Token)) != 1 {
		return nil, ErrInvalidToken
	}

	if in.ProviderMsgID != "" {
		seen, err := s.alreadySeen(ctx, in.ProviderMsgID)
		if err != nil {
			logger.Warnf("Inbound dedup unavailable, accepting message: %v", err)
		} else if seen {
			logger.Infof("Skipping duplicate inbound message %s from supplier %d", in.ProviderMsgID, supplier.ID)
			return &InboundResult{Duplicate: true}, nil
		}
	}

	ev := grammar.Parse(in.Content)

	msg := &domain.Message{
		Direction:  domain.DirectionInbound,
		SupplierID: supplier.ID,
		Kind:       "factory_reply",
		Content:    in.Content,
	}
	if in.FromUser != "" {
		msg.FromUser = &in.FromUser
	}
	if in.ProviderMsgID != "" {
		msg.ProviderMsgID = &in.ProviderMsgID
	}
	if ev != nil {
		action := string(ev.Action)
		orderNo := ev.OrderNo
		msg.ParsedAction = &action
		msg.ParsedOrderNo = &orderNo
		if ev.Argument != "" {
			argument := ev.Argument
			msg.ParsedArgument = &argument
		}
	}

	msg, err = s.messages.Create(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("failed to record inbound message: %w", err)
	}

	result := &InboundResult{
		MessageID:  msg.ID,
		MessageUID: msg.UID,
		Action:     msg.ParsedAction,
		OrderNo:    msg.ParsedOrderNo,
	}

	// From here on the message is durable; interpretation failures are
	// absorbed into the audit record instead of failing the webhook.
	if ev == nil {
		s.finalize(ctx, msg.ID, domain.StatusRead, nil, nil)
		return result, nil
	}

	po, err := s.orders.GetByOrderNo(ctx, ev.OrderNo)
	if err != nil {
		logger.Errorf("Failed to resolve order %s: %v", ev.OrderNo, err)
		s.finalize(ctx, msg.ID, domain.StatusRead, nil, nil)
		return result, nil
	}
	if po == nil || po.SupplierID != supplier.ID {
		if po != nil {
			logger.Warnf("Supplier %d referenced order %s owned by supplier %d", supplier.ID, ev.OrderNo, po.SupplierID)
		}
		s.finalize(ctx, msg.ID, domain.StatusRead, nil, nil)
		return result, nil
	}
	result.OrderID = &po.ID

	at := time.Now()
	if in.SentAt != nil {
		at = *in.SentAt
	}
	applied := lifecycle.Apply(po, *ev, at)
	if err := s.orders.UpdateLifecycle(ctx, po); err != nil {
		logger.Errorf("Failed to persist order %s lifecycle: %v", po.OrderNo, err)
		s.finalize(ctx, msg.ID, domain.StatusRead, &po.ID, nil)
		return result, nil
	}

	if applied.StatusChanged {
		logger.Infof("Order %s: %s -> %s (%s)", po.OrderNo, applied.OldStatus, applied.NewStatus, ev.Action)
	} else {
		logger.Infof("Order %s: recorded %s, status stays %s", po.OrderNo, ev.Action, po.Status)
	}

	noteID := s.annotate(ctx, supplier, po, *ev, msg.ID)

	s.finalize(ctx, msg.ID, domain.StatusDelivered, &po.ID, noteID)
	result.Processed = true

	return result, nil
}

// alreadySeen prefers the cache and falls back to the audit trail when the
// cache is down or absent.
func (s *InboundService) alreadySeen(ctx context.Context, providerMsgID string) (bool, error) {
	if s.cache != nil {
		seen, err := s.cache.MarkInboundSeen(ctx, providerMsgID)
		if err == nil {
			return seen, nil
		}
		logger.Warnf("Cache dedup failed, falling back to database: %v", err)
	}
	return s.messages.HasInboundProviderMsgID(ctx, providerMsgID)
}

// annotate writes the auto-generated team note and fans out notifications
// to the assigned users whose role the action concerns. Failures here are
// logged, not surfaced: the order state change already happened.
func (s *InboundService) annotate(
	ctx context.Context,
	supplier *domain.Supplier,
	po *domain.PurchaseOrder,
	ev grammar.Event,
	messageID int64,
) *int64 {
	admin, err := s.users.GetAdmin(ctx)
	if err != nil {
		logger.Errorf("Failed to resolve note author: %v", err)
		return nil
	}

	mentioned, err := s.users.ListAssigned(ctx, po.ID, lifecycle.MentionRoles(ev.Action))
	if err != nil {
		logger.Errorf("Failed to resolve mentions for order %s: %v", po.OrderNo, err)
		mentioned = nil
	}

	note := &domain.TeamNote{
		OrderID:   po.ID,
		MessageID: messageID,
		AuthorID:  admin.ID,
		Content:   templates.EventSummary(supplier.Name, ev),
	}
	for _, u := range mentioned {
		note.MentionedUsers = append(note.MentionedUsers, u.ID)
	}

	noteID, err := s.notes.CreateNote(ctx, note)
	if err != nil {
		logger.Errorf("Failed to create team note for order %s: %v", po.OrderNo, err)
		return nil
	}

	if len(mentioned) > 0 {
		notifications := make([]domain.Notification, 0, len(mentioned))
		for _, u := range mentioned {
			notifications = append(notifications, domain.Notification{
				UserID: u.ID,
				Title:  fmt.Sprintf("订单 %s 有新的工厂反馈", po.OrderNo),
				Body:   note.Content,
				Link:   fmt.Sprintf("/orders/%d", po.ID),
			})
		}
		if err := s.notes.CreateNotifications(ctx, notifications); err != nil {
			logger.Errorf("Failed to create notifications for order %s: %v", po.OrderNo, err)
		}
	}

	return &noteID
}

func (s *InboundService) finalize(ctx context.Context, id int64, status domain.MessageStatus, orderID, noteID *int64) {
	if err := s.messages.FinalizeInbound(ctx, id, status, orderID, noteID); err != nil {
		logger.Errorf("Failed to finalize inbound message %d: %v", id, err)
	}
}
