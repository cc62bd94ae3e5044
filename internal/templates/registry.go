// Package templates renders outbound factory notifications and team-facing
// event summaries. Factory templates are WeCom-style markdown in the
// factories' working language; each is a pure function of its context.
package templates

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tradeops/factory-message-service/internal/domain"
)

type Kind string

const (
	KindTest           Kind = "test"
	KindOrderCreated   Kind = "order_created"
	KindOrderUpdated   Kind = "order_updated"
	KindPaymentSent    Kind = "payment_sent"
	KindDocumentShared Kind = "document_shared"
	KindGeneral        Kind = "general"

	// Scheduled reminder family.
	KindConfirmationReminder    Kind = "confirmation_reminder"
	KindProductionStartReminder Kind = "production_start_reminder"
	KindProgressCheck           Kind = "progress_check"
	KindDeadlineWarning         Kind = "deadline_warning"
	KindOverdueAlert            Kind = "overdue_alert"
	KindQCScheduled             Kind = "qc_scheduled"
	KindShippingReminder        Kind = "shipping_reminder"
	KindShippingDocsRequest     Kind = "shipping_documents_request"
)

// Context carries everything a template may reference. The outbound composer
// fills it from the purchase-order projection and then overlays caller
// metadata, so caller-supplied figures always win over denormalized order
// values.
type Context struct {
	SupplierName string
	OrderNo      string
	TotalValue   decimal.Decimal
	Currency     string
	DeliveryDate *time.Time
	PaymentTerms string
	SalesOrderNo string
	Items        []domain.OrderItem

	// Payment metadata (payment_sent).
	Amount         *decimal.Decimal
	PaymentPurpose string
	ReceiptURL     string

	// Document metadata (document_shared).
	DocumentName string
	DocumentURL  string

	// Reminder parameters supplied by the scheduler or caller.
	Days int

	// Raw pass-through content (general).
	Content string
}

var moneyPrinter = message.NewPrinter(language.English)

// Money renders "USD 5,000.00" style amounts.
func Money(currency string, amount decimal.Decimal) string {
	f, _ := amount.Float64()
	return fmt.Sprintf("%s %s", currency, moneyPrinter.Sprintf("%.2f", f))
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "待定"
	}
	return t.Format("2006-01-02")
}

type renderFunc func(Context) string

var registry = map[Kind]renderFunc{
	KindTest: func(c Context) string {
		return fmt.Sprintf("**连接测试**\n%s 您好，这是一条来自贸易协同系统的测试消息。收到请忽略。", c.SupplierName)
	},
	KindOrderCreated: func(c Context) string {
		var b strings.Builder
		fmt.Fprintf(&b, "**新采购订单 %s**\n", c.OrderNo)
		fmt.Fprintf(&b, "订单金额：%s\n", Money(c.Currency, c.TotalValue))
		fmt.Fprintf(&b, "交货日期：%s\n", formatDate(c.DeliveryDate))
		if c.PaymentTerms != "" {
			fmt.Fprintf(&b, "付款条件：%s\n", c.PaymentTerms)
		}
		if len(c.Items) > 0 {
			b.WriteString("明细：\n")
			for _, it := range c.Items {
				fmt.Fprintf(&b, "> %s × %d%s\n", it.ProductName, it.Quantity, it.Unit)
			}
		}
		fmt.Fprintf(&b, "\n请确认订单，回复：`CONFIRMED %s`", c.OrderNo)
		return b.String()
	},
	KindOrderUpdated: func(c Context) string {
		var b strings.Builder
		fmt.Fprintf(&b, "**采购订单 %s 已更新**\n", c.OrderNo)
		fmt.Fprintf(&b, "订单金额：%s\n", Money(c.Currency, c.TotalValue))
		fmt.Fprintf(&b, "交货日期：%s\n", formatDate(c.DeliveryDate))
		b.WriteString("请以最新信息为准。")
		return b.String()
	},
	KindPaymentSent: func(c Context) string {
		amount := c.TotalValue
		if c.Amount != nil {
			amount = *c.Amount
		}
		var b strings.Builder
		fmt.Fprintf(&b, "**付款通知 %s**\n", c.OrderNo)
		fmt.Fprintf(&b, "付款金额：%s\n", Money(c.Currency, amount))
		if c.PaymentPurpose != "" {
			fmt.Fprintf(&b, "付款类型：%s\n", c.PaymentPurpose)
		}
		if c.ReceiptURL != "" {
			fmt.Fprintf(&b, "[付款凭证](%s)\n", c.ReceiptURL)
		}
		b.WriteString("请查收并确认到账。")
		return b.String()
	},
	KindDocumentShared: func(c Context) string {
		name := c.DocumentName
		if name == "" {
			name = "相关文件"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "**文件共享 %s**\n", c.OrderNo)
		if c.DocumentURL != "" {
			fmt.Fprintf(&b, "[%s](%s)\n", name, c.DocumentURL)
		} else {
			fmt.Fprintf(&b, "%s\n", name)
		}
		b.WriteString("请查收。")
		return b.String()
	},
	KindConfirmationReminder: func(c Context) string {
		return fmt.Sprintf("**订单确认提醒**\n采购订单 %s 已发出 %d 天，尚未收到确认。\n请回复：`CONFIRMED %s`",
			c.OrderNo, c.Days, c.OrderNo)
	},
	KindProductionStartReminder: func(c Context) string {
		return fmt.Sprintf("**开工提醒**\n采购订单 %s 已确认 %d 天，请安排生产。\n开工后请回复：`PRODUCTION_START %s`",
			c.OrderNo, c.Days, c.OrderNo)
	},
	KindProgressCheck: func(c Context) string {
		return fmt.Sprintf("**进度跟进**\n采购订单 %s 生产中，请告知当前进度。\n完工后请回复：`PRODUCTION_COMPLETE %s`",
			c.OrderNo, c.OrderNo)
	},
	KindDeadlineWarning: func(c Context) string {
		return fmt.Sprintf("**交期预警**\n采购订单 %s 距交货日期（%s）还有 %d 天，请确保按期完成。",
			c.OrderNo, formatDate(c.DeliveryDate), c.Days)
	},
	KindOverdueAlert: func(c Context) string {
		return fmt.Sprintf("**交期逾期**\n采购订单 %s 已超过交货日期（%s）%d 天，请立即反馈情况。\n如有延误请回复：`DELAY %s <天数> <原因>`",
			c.OrderNo, formatDate(c.DeliveryDate), c.Days, c.OrderNo)
	},
	KindQCScheduled: func(c Context) string {
		return fmt.Sprintf("**验货安排**\n采购订单 %s 生产已完成，质检即将进行，请做好准备。\n验货结果请回复：`QC_PASS %s` 或 `QC_FAIL %s <原因>`",
			c.OrderNo, c.OrderNo, c.OrderNo)
	},
	KindShippingReminder: func(c Context) string {
		return fmt.Sprintf("**发货提醒**\n采购订单 %s 请尽快安排发货。\n发货后请回复：`SHIPPED %s <运单号>`",
			c.OrderNo, c.OrderNo)
	},
	KindShippingDocsRequest: func(c Context) string {
		return fmt.Sprintf("**发货单据**\n采购订单 %s 已发货，请尽快提供装箱单、发票等发货单据。", c.OrderNo)
	},
	KindGeneral: func(c Context) string {
		return c.Content
	},
}

// Valid reports whether a message kind has a registered template.
func Valid(kind Kind) bool {
	_, ok := registry[kind]
	return ok
}

// Render produces the message body for a kind.
func Render(kind Kind, ctx Context) (string, error) {
	fn, ok := registry[kind]
	if !ok {
		return "", fmt.Errorf("unknown message kind: %s", kind)
	}
	return fn(ctx), nil
}
