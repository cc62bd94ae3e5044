package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/internal/service"
	"github.com/tradeops/factory-message-service/pkg/response"
	validatorpkg "github.com/tradeops/factory-message-service/pkg/validator"
)

// fakeOutbound is a small test double for outboundService.
type fakeOutbound struct {
	outcome *domain.SendOutcome
	err     error

	sendInputs []service.SendInput
}

func (f *fakeOutbound) Send(ctx context.Context, in service.SendInput) (*domain.SendOutcome, error) {
	f.sendInputs = append(f.sendInputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func (f *fakeOutbound) ListMessages(ctx context.Context, direction *domain.MessageDirection, status *domain.MessageStatus, page, pageSize int) ([]domain.Message, int64, error) {
	return nil, 0, nil
}

func (f *fakeOutbound) Stats(ctx context.Context) (map[string]int64, error) {
	return map[string]int64{"outbound_sent": 3, "inbound_delivered": 2}, nil
}

func (f *fakeOutbound) ReplayFailed(ctx context.Context, id int64) error {
	return nil
}

func (f *fakeOutbound) ReplayAllFailed(ctx context.Context) (int64, error) {
	return 4, nil
}

func newTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	e.Validator = validatorpkg.New()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// TestSendMessage_BadJSON verifies that invalid JSON returns 400 Bad Request.
func TestSendMessage_BadJSON(t *testing.T) {
	handler := NewMessageHandler(&fakeOutbound{})

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/messages", `{"supplierId": 1, "kind":`)

	if err := handler.SendMessage(c); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	var resp response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected Success=false, got true")
	}
}

// TestSendMessage_MissingKind verifies that validation failure returns 422.
func TestSendMessage_MissingKind(t *testing.T) {
	handler := NewMessageHandler(&fakeOutbound{})

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/messages", `{"supplierId": 1}`)

	if err := handler.SendMessage(c); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
}

func TestSendMessage_SupplierNotFound(t *testing.T) {
	handler := NewMessageHandler(&fakeOutbound{err: service.ErrSupplierNotFound})

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/messages",
		`{"supplierId": 99, "kind": "test"}`)

	if err := handler.SendMessage(c); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestSendMessage_UnknownKindIsBadRequest(t *testing.T) {
	handler := NewMessageHandler(&fakeOutbound{err: service.ErrUnknownKind})

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/messages",
		`{"supplierId": 1, "kind": "carrier_pigeon"}`)

	if err := handler.SendMessage(c); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestSendMessage_DeliveryFailureIsStillOK(t *testing.T) {
	fake := &fakeOutbound{outcome: &domain.SendOutcome{
		MessageID:   7,
		MessageUID:  "uid-7",
		Success:     false,
		Attempts:    3,
		ProviderRaw: `{"errcode":45009,"errmsg":"freq out of limit"}`,
		Err:         errors.New("provider returned status 500"),
	}}
	handler := NewMessageHandler(fake)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/messages",
		`{"supplierId": 1, "orderId": 10, "kind": "order_created"}`)

	if err := handler.SendMessage(c); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}

	// Delivery failure lives in the payload, not the HTTP status.
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp response.SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data payload: %T", resp.Data)
	}
	if data["delivered"] != false {
		t.Errorf("expected delivered=false, got %v", data["delivered"])
	}
	if _, ok := data["error"]; !ok {
		t.Error("expected the delivery error in the payload")
	}
	if data["providerResponse"] != `{"errcode":45009,"errmsg":"freq out of limit"}` {
		t.Errorf("expected the raw provider response in the payload, got %v", data["providerResponse"])
	}

	if len(fake.sendInputs) != 1 {
		t.Fatalf("expected 1 send, got %d", len(fake.sendInputs))
	}
	if fake.sendInputs[0].OrderID == nil || *fake.sendInputs[0].OrderID != 10 {
		t.Errorf("expected order id 10 passed through, got %v", fake.sendInputs[0].OrderID)
	}
}

func TestGetStats(t *testing.T) {
	handler := NewMessageHandler(&fakeOutbound{})

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/messages/stats", "")

	if err := handler.GetStats(c); err != nil {
		t.Fatalf("GetStats returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var resp response.SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response body: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["total"] != float64(5) {
		t.Errorf("expected total 5, got %v", data["total"])
	}
}

func TestGetAllMessages_InvalidPage(t *testing.T) {
	handler := NewMessageHandler(&fakeOutbound{})

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/messages?page=zero", "")

	if err := handler.GetAllMessages(c); err != nil {
		t.Fatalf("GetAllMessages returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
