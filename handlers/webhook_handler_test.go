package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tradeops/factory-message-service/internal/service"
	validatorpkg "github.com/tradeops/factory-message-service/pkg/validator"
)

type fakeInbound struct {
	result *service.InboundResult
	err    error

	inputs []service.InboundInput
}

func (f *fakeInbound) Process(ctx context.Context, in service.InboundInput) (*service.InboundResult, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newWebhookContext(t *testing.T, supplierID, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = validatorpkg.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/factory/"+supplierID, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("supplierId")
	c.SetParamValues(supplierID)
	return c, rec
}

func TestReceiveFactoryReply_ProcessedEvent(t *testing.T) {
	action := "SHIPPED"
	orderNo := "PO-2025-001"
	orderID := int64(10)
	fake := &fakeInbound{result: &service.InboundResult{
		MessageID:  42,
		MessageUID: "uid-42",
		Processed:  true,
		Action:     &action,
		OrderNo:    &orderNo,
		OrderID:    &orderID,
	}}
	handler := NewWebhookHandler(fake)

	c, rec := newWebhookContext(t, "1",
		`{"token": "secret-token", "content": "SHIPPED PO-2025-001 SF123", "from_user": "陈厂长", "msg_id": "wx-1", "timestamp": "2025-06-01T08:30:00Z"}`)

	if err := handler.ReceiveFactoryReply(c); err != nil {
		t.Fatalf("ReceiveFactoryReply returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp FactoryReplyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if !resp.Success || !resp.Processed {
		t.Errorf("expected success and processed, got %+v", resp)
	}
	if resp.Action == nil || *resp.Action != "SHIPPED" {
		t.Errorf("expected action SHIPPED, got %v", resp.Action)
	}
	if resp.PONumber == nil || *resp.PONumber != "PO-2025-001" {
		t.Errorf("expected po_number, got %v", resp.PONumber)
	}
	if resp.POID == nil || *resp.POID != 10 {
		t.Errorf("expected po_id 10, got %v", resp.POID)
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 process call, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if in.SupplierID != 1 || in.Token != "secret-token" || in.ProviderMsgID != "wx-1" {
		t.Errorf("unexpected input: %+v", in)
	}
	if in.SentAt == nil || !in.SentAt.Equal(time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("expected the provider timestamp passed through, got %v", in.SentAt)
	}
}

func TestReceiveFactoryReply_UnrecognizedReply(t *testing.T) {
	fake := &fakeInbound{result: &service.InboundResult{
		MessageID:  43,
		MessageUID: "uid-43",
		Processed:  false,
	}}
	handler := NewWebhookHandler(fake)

	c, rec := newWebhookContext(t, "1", `{"token": "secret-token", "content": "好的收到"}`)

	if err := handler.ReceiveFactoryReply(c); err != nil {
		t.Fatalf("ReceiveFactoryReply returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("an unrecognized reply is still accepted, got %d", rec.Code)
	}

	var resp FactoryReplyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	if resp.Processed {
		t.Error("expected processed=false")
	}
}

func TestReceiveFactoryReply_InvalidToken(t *testing.T) {
	handler := NewWebhookHandler(&fakeInbound{err: service.ErrInvalidToken})

	c, rec := newWebhookContext(t, "1", `{"token": "wrong", "content": "CONFIRMED PO-1"}`)

	if err := handler.ReceiveFactoryReply(c); err != nil {
		t.Fatalf("ReceiveFactoryReply returned error: %v", err)
	}

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestReceiveFactoryReply_UnknownSupplier(t *testing.T) {
	handler := NewWebhookHandler(&fakeInbound{err: service.ErrSupplierNotFound})

	c, rec := newWebhookContext(t, "99", `{"token": "secret-token", "content": "CONFIRMED PO-1"}`)

	if err := handler.ReceiveFactoryReply(c); err != nil {
		t.Fatalf("ReceiveFactoryReply returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestReceiveFactoryReply_BadSupplierID(t *testing.T) {
	handler := NewWebhookHandler(&fakeInbound{})

	c, rec := newWebhookContext(t, "not-a-number", `{"token": "t", "content": "x"}`)

	if err := handler.ReceiveFactoryReply(c); err != nil {
		t.Fatalf("ReceiveFactoryReply returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestReceiveFactoryReply_MissingToken(t *testing.T) {
	handler := NewWebhookHandler(&fakeInbound{})

	c, rec := newWebhookContext(t, "1", `{"content": "CONFIRMED PO-1"}`)

	if err := handler.ReceiveFactoryReply(c); err != nil {
		t.Fatalf("ReceiveFactoryReply returned error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}
