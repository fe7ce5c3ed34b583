package common

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any *AppError carrying the same Code, so the sentinels below
// work with errors.Is regardless of message or cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Error codes
const (
	CodeConfig              = "CONFIG_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeUnsupportedMedia    = "UNSUPPORTED_MEDIA_TYPE"
	CodeExtractionFailed    = "EXTRACTION_FAILED"
	CodeValidationFailed    = "VALIDATION_FAILED"
	CodeParsingFailed       = "PARSING_FAILED"
	CodeMalformedAIResponse = "MALFORMED_AI_RESPONSE"
	CodePersistenceFailed   = "PERSISTENCE_FAILED"
	CodeInvalidTransition   = "INVALID_TRANSITION"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Pipeline error kinds; match with errors.Is.
var (
	ErrForbidden            = &AppError{Code: CodeForbidden, Message: "access denied"}
	ErrUnsupportedMediaType = &AppError{Code: CodeUnsupportedMedia, Message: "unsupported media type"}
	ErrExtractionFailed     = &AppError{Code: CodeExtractionFailed, Message: "text extraction failed"}
	ErrValidationFailed     = &AppError{Code: CodeValidationFailed, Message: "extracted text is not usable"}
	ErrParsingFailed        = &AppError{Code: CodeParsingFailed, Message: "ai parsing failed"}
	ErrMalformedAIResponse  = &AppError{Code: CodeMalformedAIResponse, Message: "malformed ai response"}
	ErrPersistenceFailed    = &AppError{Code: CodePersistenceFailed, Message: "persistence failed"}
	ErrInvalidTransition    = &AppError{Code: CodeInvalidTransition, Message: "invalid status transition"}
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// PersistenceError wraps a store failure unless it already carries a code.
func PersistenceError(message string, err error) error {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return err
	}
	return NewAppError(CodePersistenceFailed, message, err)
}

// Message returns the human-readable part of err: the AppError message when
// err is one, err.Error() otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		if ae.Cause != nil {
			return fmt.Sprintf("%s: %v", ae.Message, ae.Cause)
		}
		return ae.Message
	}
	return err.Error()
}

// GRPCCode maps an error to the closest gRPC status code.
func GRPCCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return s.Code()
	}
	var ae *AppError
	if !errors.As(err, &ae) {
		switch {
		case errors.Is(err, ErrNotFound):
			return codes.NotFound
		case errors.Is(err, ErrInvalidInput):
			return codes.InvalidArgument
		}
		return codes.Internal
	}
	switch ae.Code {
	case CodeNotFound:
		return codes.NotFound
	case CodeInvalidInput, CodeValidationFailed, CodeConfig:
		return codes.InvalidArgument
	case CodeUnsupportedMedia, CodeExtractionFailed, CodeInvalidTransition:
		return codes.FailedPrecondition
	case CodeUnauthorized:
		return codes.Unauthenticated
	case CodeForbidden:
		return codes.PermissionDenied
	case CodeParsingFailed, CodeMalformedAIResponse:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// HTTPStatus maps an error to the HTTP status the REST layer responds with.
func HTTPStatus(err error) int {
	if errors.Is(err, ErrUnsupportedMediaType) {
		return http.StatusUnsupportedMediaType
	}
	if errors.Is(err, ErrExtractionFailed) || errors.Is(err, ErrValidationFailed) {
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, ErrParsingFailed) || errors.Is(err, ErrMalformedAIResponse) {
		return http.StatusBadGateway
	}
	switch GRPCCode(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
