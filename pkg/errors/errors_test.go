package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected"},
		{code: CodeInsufficientInventory, status: http.StatusConflict, publicMsg: "insufficient inventory", detailsOK: true},
		{code: CodeOrderNotModifiable, status: http.StatusUnprocessableEntity, publicMsg: "order cannot be modified at this stage", detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "store unavailable")
	if wrapped.Unwrap() != cause {
		t.Fatalf("expected wrapped cause to be preserved")
	}
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("errors.Is should reach the cause")
	}

	nilWrapped := Wrap(CodeNotFound, nil, "missing")
	if nilWrapped.Unwrap() != nil {
		t.Fatalf("wrapping nil should produce no cause")
	}
}

func TestAsFindsTypedError(t *testing.T) {
	typed := New(CodeOrderNotModifiable, "already cancelled")
	wrapped := Wrap(CodeDependency, typed, "outer")

	found := As(wrapped)
	if found == nil {
		t.Fatal("expected to find typed error")
	}
	if found.Code() != CodeDependency {
		t.Fatalf("outermost typed error should win, got %s", found.Code())
	}

	if As(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors should not convert")
	}
	if As(nil) != nil {
		t.Fatal("nil should not convert")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeInsufficientInventory, "product out of stock").
		WithDetails(map[string]any{"product_id": "abc", "requested": 3, "available": 1})
	if err.Details() == nil {
		t.Fatal("expected details to be attached")
	}
}
