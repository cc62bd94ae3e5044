package service

import (
	"context"
	"testing"
	"time"

	"github.com/tradeops/factory-message-service/environments"
	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/templates"
)

type fakeSender struct {
	calls   []SendInput
	fail    bool
	failErr error
}

func (f *fakeSender) Send(ctx context.Context, in SendInput) (*domain.SendOutcome, error) {
	f.calls = append(f.calls, in)
	if f.failErr != nil {
		return nil, f.failErr
	}
	return &domain.SendOutcome{MessageID: int64(len(f.calls)), Success: !f.fail, Attempts: 1}, nil
}

func testReminderConfig() environments.ReminderConfig {
	return environments.ReminderConfig{
		Interval:            6 * time.Hour,
		ConfirmAfterDays:    2,
		StartAfterDays:      3,
		DeadlineWarningDays: 7,
		ShippingDocsDays:    3,
		Cooldown:            24 * time.Hour,
	}
}

func daysAgo(now time.Time, d int) time.Time {
	return now.AddDate(0, 0, -d)
}

func TestReminderKindFor(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cfg := testReminderConfig()

	confirmed := daysAgo(now, 4)
	shipped := daysAgo(now, 5)
	nearDeadline := now.AddDate(0, 0, 3)
	farDeadline := now.AddDate(0, 0, 30)
	pastDeadline := daysAgo(now, 2)
	qcPassed := "passed"
	qcFailed := "failed: 拉链不良"

	tests := []struct {
		name     string
		po       domain.PurchaseOrder
		wantKind templates.Kind
		wantDays int
		wantDue  bool
	}{
		{
			name:     "pending past the confirmation window",
			po:       domain.PurchaseOrder{Status: domain.OrderPending, CreatedAt: daysAgo(now, 3)},
			wantKind: templates.KindConfirmationReminder,
			wantDays: 3,
			wantDue:  true,
		},
		{
			name: "pending still inside the window",
			po:   domain.PurchaseOrder{Status: domain.OrderPending, CreatedAt: daysAgo(now, 1)},
		},
		{
			name:     "confirmed but production never started",
			po:       domain.PurchaseOrder{Status: domain.OrderConfirmed, ConfirmedAt: &confirmed},
			wantKind: templates.KindProductionStartReminder,
			wantDays: 4,
			wantDue:  true,
		},
		{
			name:     "in production and overdue",
			po:       domain.PurchaseOrder{Status: domain.OrderInProduction, DeliveryDate: &pastDeadline},
			wantKind: templates.KindOverdueAlert,
			wantDays: 2,
			wantDue:  true,
		},
		{
			name:     "in production approaching the deadline",
			po:       domain.PurchaseOrder{Status: domain.OrderInProduction, DeliveryDate: &nearDeadline},
			wantKind: templates.KindDeadlineWarning,
			wantDays: 3,
			wantDue:  true,
		},
		{
			name:     "in production with a distant deadline",
			po:       domain.PurchaseOrder{Status: domain.OrderInProduction, DeliveryDate: &farDeadline},
			wantKind: templates.KindProgressCheck,
			wantDue:  true,
		},
		{
			name:     "in production without a delivery date",
			po:       domain.PurchaseOrder{Status: domain.OrderInProduction},
			wantKind: templates.KindProgressCheck,
			wantDue:  true,
		},
		{
			name:     "production complete awaiting inspection",
			po:       domain.PurchaseOrder{Status: domain.OrderProductionComplete},
			wantKind: templates.KindQCScheduled,
			wantDue:  true,
		},
		{
			name:     "inspection passed, ship it",
			po:       domain.PurchaseOrder{Status: domain.OrderProductionComplete, QCStatus: &qcPassed},
			wantKind: templates.KindShippingReminder,
			wantDue:  true,
		},
		{
			name: "inspection failed is handled by people, not reminders",
			po:   domain.PurchaseOrder{Status: domain.OrderProductionComplete, QCStatus: &qcFailed},
		},
		{
			name:     "shipped without documents",
			po:       domain.PurchaseOrder{Status: domain.OrderShipped, ShippedAt: &shipped},
			wantKind: templates.KindShippingDocsRequest,
			wantDays: 5,
			wantDue:  true,
		},
		{
			name: "shipped recently",
			po:   domain.PurchaseOrder{Status: domain.OrderShipped, ShippedAt: &now},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, days, due := reminderKindFor(&tt.po, cfg, now)
			if due != tt.wantDue {
				t.Fatalf("due = %v, want %v", due, tt.wantDue)
			}
			if !due {
				return
			}
			if kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", kind, tt.wantKind)
			}
			if days != tt.wantDays {
				t.Errorf("days = %d, want %d", days, tt.wantDays)
			}
		})
	}
}

func TestSweep_SendsDueReminders(t *testing.T) {
	now := time.Now()
	orders := &fakeOrders{
		active: []domain.PurchaseOrder{
			{ID: 1, OrderNo: "PO-A", SupplierID: 1, Status: domain.OrderPending, CreatedAt: daysAgo(now, 5)},
			{ID: 2, OrderNo: "PO-B", SupplierID: 1, Status: domain.OrderPending, CreatedAt: now},
			{ID: 3, OrderNo: "PO-C", SupplierID: 2, Status: domain.OrderProductionComplete},
		},
	}
	sender := &fakeSender{}

	svc := NewReminderService(orders, sender, &fakeCache{}, testReminderConfig())

	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Scanned != 3 {
		t.Errorf("scanned = %d, want 3", stats.Scanned)
	}
	if stats.Sent != 2 {
		t.Errorf("sent = %d, want 2", stats.Sent)
	}
	if len(sender.calls) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(sender.calls))
	}

	first := sender.calls[0]
	if first.Kind != templates.KindConfirmationReminder {
		t.Errorf("first reminder kind = %s", first.Kind)
	}
	if first.OrderID == nil || *first.OrderID != 1 {
		t.Errorf("first reminder order = %v", first.OrderID)
	}
	if first.Days != 5 {
		t.Errorf("first reminder days = %d, want 5", first.Days)
	}

	if sender.calls[1].Kind != templates.KindQCScheduled {
		t.Errorf("second reminder kind = %s", sender.calls[1].Kind)
	}
}

func TestSweep_CooldownSuppressesRepeats(t *testing.T) {
	now := time.Now()
	orders := &fakeOrders{
		active: []domain.PurchaseOrder{
			{ID: 1, OrderNo: "PO-A", SupplierID: 1, Status: domain.OrderPending, CreatedAt: daysAgo(now, 5)},
		},
	}
	sender := &fakeSender{}
	cache := &fakeCache{}

	svc := NewReminderService(orders, sender, cache, testReminderConfig())

	if _, err := svc.Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", stats.Skipped)
	}
	if len(sender.calls) != 1 {
		t.Errorf("expected no second send inside the cooldown, got %d", len(sender.calls))
	}
}

func TestSweep_FallbackCooldownWithoutCache(t *testing.T) {
	now := time.Now()
	recent := now.Add(-1 * time.Hour)
	orders := &fakeOrders{
		active: []domain.PurchaseOrder{
			{ID: 1, OrderNo: "PO-A", SupplierID: 1, Status: domain.OrderPending,
				CreatedAt: daysAgo(now, 5), LastFactoryMessageAt: &recent},
		},
	}
	sender := &fakeSender{}

	svc := NewReminderService(orders, sender, nil, testReminderConfig())

	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Skipped != 1 || len(sender.calls) != 0 {
		t.Errorf("recent contact should suppress the reminder without a cache, sent %d", len(sender.calls))
	}
}

func TestSweep_DeliveryFailureCounted(t *testing.T) {
	now := time.Now()
	orders := &fakeOrders{
		active: []domain.PurchaseOrder{
			{ID: 1, OrderNo: "PO-A", SupplierID: 1, Status: domain.OrderPending, CreatedAt: daysAgo(now, 5)},
		},
	}
	sender := &fakeSender{fail: true}

	svc := NewReminderService(orders, sender, &fakeCache{}, testReminderConfig())

	stats, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}
	if stats.Sent != 0 {
		t.Errorf("sent = %d, want 0", stats.Sent)
	}
}
