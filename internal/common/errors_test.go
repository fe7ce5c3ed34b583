package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewAppError(CodeUnsupportedMedia, "pdf only", nil), http.StatusUnsupportedMediaType},
		{NewAppError(CodeExtractionFailed, "x", nil), http.StatusUnprocessableEntity},
		{NewAppError(CodeValidationFailed, "x", nil), http.StatusUnprocessableEntity},
		{NewAppError(CodeParsingFailed, "x", nil), http.StatusBadGateway},
		{NewAppError(CodeMalformedAIResponse, "x", nil), http.StatusBadGateway},
		{NewAppError(CodeInvalidInput, "x", ErrInvalidInput), http.StatusBadRequest},
		{NewAppError(CodeNotFound, "x", ErrNotFound), http.StatusNotFound},
		{NewAppError(CodeUnauthorized, "x", nil), http.StatusUnauthorized},
		{NewAppError(CodeForbidden, "x", nil), http.StatusForbidden},
		{NewAppError(CodeInvalidTransition, "x", nil), http.StatusConflict},
		{fmt.Errorf("lookup: %w", ErrNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestAppErrorIsMatchesCode(t *testing.T) {
	err := fmt.Errorf("run: %w", PersistenceError("update resume status", errors.New("reset")))
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected persistence failure, got %v", err)
	}
	if errors.Is(err, ErrParsingFailed) {
		t.Fatal("codes must not cross-match")
	}
	if got := Message(err); got != "update resume status: reset" {
		t.Fatalf("Message = %q", got)
	}
	if GRPCCode(NewAppError(CodeForbidden, "x", nil)) != codes.PermissionDenied {
		t.Fatal("forbidden should map to PermissionDenied")
	}
}
