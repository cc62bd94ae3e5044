// Package lifecycle maps recognized factory events onto purchase-order
// state. Status only ever moves forward; milestone timestamps and activity
// tracking are applied even when the status write is skipped, so a
// duplicated or out-of-order webhook delivery cannot reset progress.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/grammar"
)

// statusRank orders the forward-only lifecycle. Cancelled and delivered are
// terminal and never targeted by factory events.
var statusRank = map[domain.OrderStatus]int{
	domain.OrderDraft:              0,
	domain.OrderPending:            1,
	domain.OrderConfirmed:          2,
	domain.OrderInProduction:       3,
	domain.OrderProductionComplete: 4,
	domain.OrderShipped:            5,
	domain.OrderDelivered:          6,
}

type transition struct {
	// target is empty for actions that never change status.
	target    domain.OrderStatus
	milestone func(po *domain.PurchaseOrder, ev grammar.Event, now time.Time)
}

var transitions = map[grammar.Action]transition{
	grammar.ActionConfirmed: {
		milestone: func(po *domain.PurchaseOrder, _ grammar.Event, now time.Time) {
			po.ConfirmedAt = &now
		},
	},
	grammar.ActionProductionStart: {
		target: domain.OrderInProduction,
		milestone: func(po *domain.PurchaseOrder, _ grammar.Event, now time.Time) {
			po.ProductionStartedAt = &now
		},
	},
	grammar.ActionProductionComplete: {
		target: domain.OrderProductionComplete,
		milestone: func(po *domain.PurchaseOrder, _ grammar.Event, now time.Time) {
			po.ProductionCompletedAt = &now
		},
	},
	grammar.ActionQCPass: {
		milestone: func(po *domain.PurchaseOrder, _ grammar.Event, _ time.Time) {
			s := "passed"
			po.QCStatus = &s
		},
	},
	grammar.ActionQCFail: {
		milestone: func(po *domain.PurchaseOrder, ev grammar.Event, _ time.Time) {
			s := "failed"
			if ev.Argument != "" {
				s = fmt.Sprintf("failed: %s", ev.Argument)
			}
			po.QCStatus = &s
		},
	},
	grammar.ActionShipped: {
		target: domain.OrderShipped,
		milestone: func(po *domain.PurchaseOrder, ev grammar.Event, now time.Time) {
			po.ShippedAt = &now
			if ev.Argument != "" {
				tracking := ev.Argument
				po.TrackingNo = &tracking
			}
		},
	},
	// DELAY is purely informational.
	grammar.ActionDelay: {
		milestone: func(_ *domain.PurchaseOrder, _ grammar.Event, _ time.Time) {},
	},
}

// Result reports what Apply actually did.
type Result struct {
	StatusChanged bool
	OldStatus     domain.OrderStatus
	NewStatus     domain.OrderStatus
}

// Apply mutates po according to the event. The status write is skipped when
// the implied target is not strictly forward of the current status, but
// milestones and the last-reply timestamp are stamped regardless.
func Apply(po *domain.PurchaseOrder, ev grammar.Event, now time.Time) Result {
	res := Result{OldStatus: po.Status, NewStatus: po.Status}

	tr, ok := transitions[ev.Action]
	if !ok {
		return res
	}

	tr.milestone(po, ev, now)
	po.LastReplyAt = &now

	if tr.target != "" {
		cur, curOK := statusRank[po.Status]
		tgt := statusRank[tr.target]
		if curOK && tgt > cur {
			po.Status = tr.target
			res.StatusChanged = true
			res.NewStatus = tr.target
		}
	}

	return res
}

// MentionRoles lists the internal teams that must be alerted for an action.
var mentionRoles = map[grammar.Action][]domain.Role{
	grammar.ActionConfirmed:          {domain.RolePurchasing},
	grammar.ActionProductionStart:    {domain.RoleProjectManagement},
	grammar.ActionProductionComplete: {domain.RoleQuality, domain.RoleLogistics},
	grammar.ActionQCPass:             {domain.RoleLogistics, domain.RoleCustomerService},
	grammar.ActionQCFail:             {domain.RoleQuality, domain.RoleProduction, domain.RoleProjectManagement},
	grammar.ActionShipped:            {domain.RoleLogistics, domain.RoleCustomerService},
	grammar.ActionDelay:              {domain.RoleProjectManagement, domain.RoleCustomerService, domain.RoleSalesManagement},
}

func MentionRoles(action grammar.Action) []domain.Role {
	return mentionRoles[action]
}
