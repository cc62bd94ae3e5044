package validator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type sampleRequest struct {
	SupplierID int64  `json:"supplier_id" validate:"required"`
	Content    string `json:"content" validate:"required,notblank"`
}

func TestCustomValidator_ValidateReturnsValidationError(t *testing.T) {
	cv := New()

	// Both fields left empty to trigger validation errors.
	err := cv.Validate(sampleRequest{})
	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}

	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	if len(ve.Errors) == 0 {
		t.Fatalf("expected at least one validation error, got none")
	}

	if _, exists := ve.Errors["supplier_id"]; !exists {
		t.Errorf("expected 'supplier_id' to be in validation errors")
	}
	if _, exists := ve.Errors["content"]; !exists {
		t.Errorf("expected 'content' to be in validation errors")
	}
}

func TestCustomValidator_NotBlankRejectsWhitespace(t *testing.T) {
	cv := New()

	err := cv.Validate(sampleRequest{SupplierID: 1, Content: "   \t\n"})
	if err == nil {
		t.Fatalf("expected validation error for whitespace-only content")
	}

	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if msg, exists := ve.Errors["content"]; !exists {
		t.Errorf("expected 'content' to be in validation errors")
	} else if msg != "content must not be blank" {
		t.Errorf("unexpected translation %q", msg)
	}

	if err := cv.Validate(sampleRequest{SupplierID: 1, Content: "ok"}); err != nil {
		t.Errorf("expected valid request to pass, got %v", err)
	}
}

func TestHandleValidationError_Returns422WithDetails(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	c := e.NewContext(req, rec)

	cv := New()
	err := cv.Validate(sampleRequest{})

	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}

	if err := HandleValidationError(c, err); err != nil {
		t.Fatalf("HandleValidationError returned error: %v", err)
	}

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}

	var body ValidationErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if body.Success {
		t.Errorf("expected Success=false, got true")
	}
	if body.Error != "Validation failed" {
		t.Errorf("expected error='Validation failed', got %q", body.Error)
	}
	if len(body.Details) == 0 {
		t.Fatalf("expected details in validation response, got none")
	}
}
