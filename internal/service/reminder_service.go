package service

import (
	"context"
	"time"

	"github.com/tradeops/factory-message-service/environments"
	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/templates"
	"github.com/tradeops/factory-message-service/pkg/logger"
)

type notificationSender interface {
	Send(ctx context.Context, in SendInput) (*domain.SendOutcome, error)
}

type reminderCache interface {
	MarkReminderSent(ctx context.Context, orderID int64, kind string, cooldown time.Duration) (bool, error)
}

// ReminderStats summarizes one sweep.
type ReminderStats struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// ReminderService walks active orders and nudges suppliers whose next
// lifecycle step is overdue. Each order gets at most one reminder per sweep,
// and a cooldown suppresses repeats across sweeps.
type ReminderService struct {
	orders orderStore
	sender notificationSender
	cache  reminderCache
	config environments.ReminderConfig
}

func NewReminderService(
	orders orderStore,
	sender notificationSender,
	cache reminderCache,
	config environments.ReminderConfig,
) *ReminderService {
	return &ReminderService{
		orders: orders,
		sender: sender,
		cache:  cache,
		config: config,
	}
}

func (s *ReminderService) Sweep(ctx context.Context) (ReminderStats, error) {
	stats := ReminderStats{}

	orders, err := s.orders.ListActiveForReminders(ctx)
	if err != nil {
		return stats, err
	}
	stats.Scanned = len(orders)

	now := time.Now()
	for i := range orders {
		po := orders[i]

		kind, days, due := reminderKindFor(&po, s.config, now)
		if !due {
			continue
		}

		if s.inCooldown(ctx, &po, kind, now) {
			stats.Skipped++
			continue
		}

		orderID := po.ID
		outcome, err := s.sender.Send(ctx, SendInput{
			SupplierID: po.SupplierID,
			OrderID:    &orderID,
			Kind:       kind,
			Days:       days,
		})
		if err != nil || !outcome.Success {
			stats.Failed++
			logger.Warnf("Reminder %s for order %s not delivered", kind, po.OrderNo)
			continue
		}

		stats.Sent++
		logger.Infof("Sent %s for order %s", kind, po.OrderNo)
	}

	return stats, nil
}

// inCooldown checks the cache first; without a cache it falls back to the
// order's last outbound-contact timestamp, which is coarser (any message
// suppresses any reminder) but safe.
func (s *ReminderService) inCooldown(ctx context.Context, po *domain.PurchaseOrder, kind templates.Kind, now time.Time) bool {
	if s.cache != nil {
		sent, err := s.cache.MarkReminderSent(ctx, po.ID, string(kind), s.config.Cooldown)
		if err == nil {
			return sent
		}
		logger.Warnf("Reminder cooldown cache failed for order %s: %v", po.OrderNo, err)
	}

	return po.LastFactoryMessageAt != nil && now.Sub(*po.LastFactoryMessageAt) < s.config.Cooldown
}

// reminderKindFor decides, for one order, which reminder (if any) is due.
// Pure so the windowing rules are table-testable.
func reminderKindFor(po *domain.PurchaseOrder, cfg environments.ReminderConfig, now time.Time) (templates.Kind, int, bool) {
	daysSince := func(t time.Time) int {
		return int(now.Sub(t).Hours() / 24)
	}

	switch po.Status {
	case domain.OrderPending:
		if po.ConfirmedAt == nil && daysSince(po.CreatedAt) >= cfg.ConfirmAfterDays {
			return templates.KindConfirmationReminder, daysSince(po.CreatedAt), true
		}

	case domain.OrderConfirmed:
		if po.ConfirmedAt != nil && daysSince(*po.ConfirmedAt) >= cfg.StartAfterDays {
			return templates.KindProductionStartReminder, daysSince(*po.ConfirmedAt), true
		}

	case domain.OrderInProduction:
		if po.DeliveryDate != nil {
			if now.After(*po.DeliveryDate) {
				return templates.KindOverdueAlert, daysSince(*po.DeliveryDate), true
			}
			remaining := int(po.DeliveryDate.Sub(now).Hours() / 24)
			if remaining <= cfg.DeadlineWarningDays {
				return templates.KindDeadlineWarning, remaining, true
			}
		}
		return templates.KindProgressCheck, 0, true

	case domain.OrderProductionComplete:
		if po.QCStatus == nil {
			return templates.KindQCScheduled, 0, true
		}
		if *po.QCStatus == "passed" {
			return templates.KindShippingReminder, 0, true
		}

	case domain.OrderShipped:
		if po.ShippedAt != nil && daysSince(*po.ShippedAt) >= cfg.ShippingDocsDays {
			return templates.KindShippingDocsRequest, daysSince(*po.ShippedAt), true
		}
	}

	return "", 0, false
}
