package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ResponseError carries the model's raw text alongside a decode failure so it
// is never lost on the way to the store.
type ResponseError struct {
	Raw string
	Err error
}

func (e *ResponseError) Error() string { return e.Err.Error() }

func (e *ResponseError) Unwrap() error { return e.Err }

// RawResponse returns the raw model text attached anywhere in err's chain.
func RawResponse(err error) (string, bool) {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Raw, true
	}
	return "", false
}

// TransportError is a failed exchange with the provider, as opposed to an
// answer the model got wrong. Status is 0 when no response arrived.
type TransportError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider status %d: %v", e.Status, e.Err)
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// Retryable reports whether sending the same request again may succeed.
// Client errors other than 429 are permanent.
func (e *TransportError) Retryable() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500 || e.Status/100 == 2
}

// IsPermanent reports whether err carries a transport failure that retrying
// cannot fix.
func IsPermanent(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && !te.Retryable()
}
