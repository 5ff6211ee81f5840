package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("driver: connection refused")
	err := Wrap(CodeDependency, cause, "insert transaction")

	if err.Code() != CodeDependency {
		t.Fatalf("expected dependency code, got %s", err.Code())
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "DEPENDENCY_ERROR: insert transaction" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAsUnwrapsNestedTypedError(t *testing.T) {
	typed := New(CodeStateConflict, "insufficient availability")
	wrapped := fmt.Errorf("check out: %w", typed)

	got := As(wrapped)
	if got == nil {
		t.Fatal("expected typed error")
	}
	if got.Code() != CodeStateConflict {
		t.Fatalf("expected state conflict code, got %s", got.Code())
	}
	if !IsCode(wrapped, CodeStateConflict) {
		t.Fatal("IsCode should match through wrapping")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestMetadataStatuses(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:    http.StatusBadRequest,
		CodeNotFound:      http.StatusNotFound,
		CodeStateConflict: http.StatusUnprocessableEntity,
		CodeDependency:    http.StatusServiceUnavailable,
	}
	for code, want := range cases {
		if got := MetadataFor(code).HTTPStatus; got != want {
			t.Fatalf("code %s: expected status %d, got %d", code, want, got)
		}
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"quantity": "must be at least 1"})
	details, ok := err.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details type %T", err.Details())
	}
	if details["quantity"] != "must be at least 1" {
		t.Fatalf("unexpected details %v", details)
	}
}
