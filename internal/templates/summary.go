package templates

import (
	"fmt"

	"github.com/tradeops/factory-message-service/internal/grammar"
)

// EventSummary renders the team-facing note for a parsed factory reply.
// These are internal annotations, distinct from the factory-facing templates.
func EventSummary(supplierName string, ev grammar.Event) string {
	switch ev.Action {
	case grammar.ActionConfirmed:
		return fmt.Sprintf("%s 已确认采购订单 %s", supplierName, ev.OrderNo)
	case grammar.ActionProductionStart:
		return fmt.Sprintf("%s 已开始生产订单 %s", supplierName, ev.OrderNo)
	case grammar.ActionProductionComplete:
		return fmt.Sprintf("%s 已完成订单 %s 的生产", supplierName, ev.OrderNo)
	case grammar.ActionQCPass:
		return fmt.Sprintf("订单 %s 质检通过（%s）", ev.OrderNo, supplierName)
	case grammar.ActionQCFail:
		if ev.Argument != "" {
			return fmt.Sprintf("订单 %s 质检不合格：%s（%s）", ev.OrderNo, ev.Argument, supplierName)
		}
		return fmt.Sprintf("订单 %s 质检不合格（%s）", ev.OrderNo, supplierName)
	case grammar.ActionShipped:
		if ev.Argument != "" {
			return fmt.Sprintf("%s 已发货订单 %s，运单号 %s", supplierName, ev.OrderNo, ev.Argument)
		}
		return fmt.Sprintf("%s 已发货订单 %s", supplierName, ev.OrderNo)
	case grammar.ActionDelay:
		if ev.Argument != "" {
			return fmt.Sprintf("%s 报告订单 %s 延期 %d 天：%s", supplierName, ev.OrderNo, ev.Days, ev.Argument)
		}
		return fmt.Sprintf("%s 报告订单 %s 延期 %d 天", supplierName, ev.OrderNo, ev.Days)
	default:
		return fmt.Sprintf("%s 回复了订单 %s", supplierName, ev.OrderNo)
	}
}
