package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/tradeops/factory-message-service/internal/domain"
	"github.com/tradeops/factory-message-service/pkg/response"
)

type fakeNoteLister struct {
	notes []domain.TeamNote

	requestedOrderIDs []int64
}

func (f *fakeNoteLister) ListByOrder(ctx context.Context, orderID int64) ([]domain.TeamNote, error) {
	f.requestedOrderIDs = append(f.requestedOrderIDs, orderID)
	return f.notes, nil
}

func TestListOrderNotes_ReturnsNotes(t *testing.T) {
	lister := &fakeNoteLister{notes: []domain.TeamNote{
		{ID: 1, OrderID: 10, AuthorID: 1, Content: "东莞服饰厂 已确认采购订单 PO-2025-001", CreatedAt: time.Now()},
	}}
	h := NewNoteHandler(lister)

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/orders/10/notes", "")
	c.SetParamNames("id")
	c.SetParamValues("10")

	if err := h.ListOrderNotes(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(lister.requestedOrderIDs) != 1 || lister.requestedOrderIDs[0] != 10 {
		t.Fatalf("expected lookup for order 10, got %v", lister.requestedOrderIDs)
	}

	var body response.SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	notes, ok := body.Data.([]any)
	if !ok || len(notes) != 1 {
		t.Fatalf("expected 1 note in response, got %#v", body.Data)
	}
}

func TestListOrderNotes_BadOrderID(t *testing.T) {
	h := NewNoteHandler(&fakeNoteLister{})

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/orders/abc/notes", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	if err := h.ListOrderNotes(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
