package lifecycle

import (
	"testing"
	"time"

	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/grammar"
)

func newOrder(status domain.OrderStatus) *domain.PurchaseOrder {
	return &domain.PurchaseOrder{
		ID:      1,
		OrderNo: "PO-2024-001",
		Status:  status,
	}
}

func TestApply_ConfirmedSetsTimestampOnly(t *testing.T) {
	po := newOrder(domain.OrderPending)
	now := time.Now()

	res := Apply(po, grammar.Event{Action: grammar.ActionConfirmed, OrderNo: po.OrderNo}, now)

	if res.StatusChanged {
		t.Errorf("expected no status change for CONFIRMED")
	}
	if po.Status != domain.OrderPending {
		t.Errorf("status = %s, want %s", po.Status, domain.OrderPending)
	}
	if po.ConfirmedAt == nil || !po.ConfirmedAt.Equal(now) {
		t.Errorf("expected confirmedAt to be set to %v, got %v", now, po.ConfirmedAt)
	}
	if po.LastReplyAt == nil {
		t.Errorf("expected lastReplyAt to be stamped")
	}
}

func TestApply_ShippedAdvancesStatusAndSetsTracking(t *testing.T) {
	po := newOrder(domain.OrderProductionComplete)
	now := time.Now()

	ev := grammar.Event{
		Action:   grammar.ActionShipped,
		OrderNo:  po.OrderNo,
		Argument: "SF1234567890",
	}
	res := Apply(po, ev, now)

	if !res.StatusChanged {
		t.Fatalf("expected status change")
	}
	if po.Status != domain.OrderShipped {
		t.Errorf("status = %s, want %s", po.Status, domain.OrderShipped)
	}
	if po.TrackingNo == nil || *po.TrackingNo != "SF1234567890" {
		t.Errorf("trackingNo = %v, want SF1234567890", po.TrackingNo)
	}
	if po.ShippedAt == nil {
		t.Errorf("expected shippedAt to be set")
	}
}

func TestApply_QCFailSetsStatusTextWithoutStatusChange(t *testing.T) {
	po := newOrder(domain.OrderInProduction)

	ev := grammar.Event{
		Action:   grammar.ActionQCFail,
		OrderNo:  po.OrderNo,
		Argument: "broken zipper",
	}
	res := Apply(po, ev, time.Now())

	if res.StatusChanged {
		t.Errorf("expected no status change for QC_FAIL")
	}
	if po.Status != domain.OrderInProduction {
		t.Errorf("status = %s, want %s", po.Status, domain.OrderInProduction)
	}
	if po.QCStatus == nil || *po.QCStatus != "failed: broken zipper" {
		t.Errorf("qcStatus = %v, want %q", po.QCStatus, "failed: broken zipper")
	}
}

func TestApply_NeverRegressesStatus(t *testing.T) {
	tests := []struct {
		name    string
		current domain.OrderStatus
		action  grammar.Action
	}{
		{"production start on shipped order", domain.OrderShipped, grammar.ActionProductionStart},
		{"production complete on shipped order", domain.OrderShipped, grammar.ActionProductionComplete},
		{"shipped on delivered order", domain.OrderDelivered, grammar.ActionShipped},
		{"duplicate production start", domain.OrderInProduction, grammar.ActionProductionStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po := newOrder(tt.current)
			now := time.Now()

			res := Apply(po, grammar.Event{Action: tt.action, OrderNo: po.OrderNo}, now)

			if res.StatusChanged {
				t.Errorf("expected status write to be skipped")
			}
			if po.Status != tt.current {
				t.Errorf("status regressed: %s -> %s", tt.current, po.Status)
			}
			// Milestones and activity still land.
			if po.LastReplyAt == nil {
				t.Errorf("expected lastReplyAt to be stamped even without a status change")
			}
		})
	}
}

func TestApply_DelayIsInformational(t *testing.T) {
	po := newOrder(domain.OrderInProduction)

	ev := grammar.Event{
		Action:   grammar.ActionDelay,
		OrderNo:  po.OrderNo,
		Argument: "material shortage",
		Days:     5,
	}
	res := Apply(po, ev, time.Now())

	if res.StatusChanged {
		t.Errorf("expected no status change for DELAY")
	}
	if po.Status != domain.OrderInProduction {
		t.Errorf("status = %s, want unchanged", po.Status)
	}
	if po.LastReplyAt == nil {
		t.Errorf("expected lastReplyAt to be stamped")
	}
}

func TestMentionRoles(t *testing.T) {
	tests := []struct {
		action grammar.Action
		want   []domain.Role
	}{
		{grammar.ActionConfirmed, []domain.Role{domain.RolePurchasing}},
		{grammar.ActionQCFail, []domain.Role{domain.RoleQuality, domain.RoleProduction, domain.RoleProjectManagement}},
		{grammar.ActionShipped, []domain.Role{domain.RoleLogistics, domain.RoleCustomerService}},
		{grammar.ActionDelay, []domain.Role{domain.RoleProjectManagement, domain.RoleCustomerService, domain.RoleSalesManagement}},
	}

	for _, tt := range tests {
		got := MentionRoles(tt.action)
		if len(got) != len(tt.want) {
			t.Fatalf("MentionRoles(%s) = %v, want %v", tt.action, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("MentionRoles(%s)[%d] = %s, want %s", tt.action, i, got[i], tt.want[i])
			}
		}
	}
}
