package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	err := New("ALLOCATION_FAILED", "failed", http.StatusInternalServerError).WithInternal(stdErrors.New("boom"))

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[string]struct {
		err  error
		want int
	}{
		"sentinel":  {ErrRateLimit, http.StatusTooManyRequests},
		"wrapped":   {fmt.Errorf("detail: %w", ErrForbidden), http.StatusForbidden},
		"zero":      {New("X", "x", 0), http.StatusInternalServerError},
		"plain":     {stdErrors.New("plain"), http.StatusInternalServerError},
		"nil error": {nil, http.StatusInternalServerError},
	}
	for name, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", name, tc.want, got)
		}
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", http.StatusBadRequest)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestCopiesStillMatchSentinel(t *testing.T) {
	sentinel := New("OFFERING_NOT_FOUND", "Offering not found", http.StatusNotFound)
	wrapped := fmt.Errorf("lookup: %w", sentinel.WithInternal(stdErrors.New("record not found")))

	if !stdErrors.Is(wrapped, sentinel) {
		t.Fatal("expected wrapped copy to match sentinel")
	}
	if stdErrors.Is(wrapped, ErrForbidden) {
		t.Fatal("expected different codes not to match")
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")
	if err.Code != ErrBadRequest.Code {
		t.Fatalf("expected %s, got %s", ErrBadRequest.Code, err.Code)
	}
	if err.Message != "invalid payload" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
	if err.StatusCode != ErrBadRequest.StatusCode {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
	if ErrBadRequest.Message != "Invalid request" {
		t.Fatal("expected sentinel message to remain unchanged")
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("user not found")
	if err.StatusCode != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", err.StatusCode)
	}
	if !stdErrors.Is(err, ErrNotFound) {
		t.Fatal("expected not found copy to match sentinel")
	}
}
