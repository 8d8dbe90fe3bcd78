package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/article-service/internal/auth"
	"github.com/spec-kit/article-service/internal/mail"
	"github.com/spec-kit/article-service/internal/service"
	"github.com/spec-kit/article-service/internal/store"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

type mapping struct {
	target  error
	code    string
	message string
	status  int
}

// mappings is checked in order; the first sentinel matched wins.
var mappings = []mapping{
	{auth.ErrWrongTokenKind, "WRONG_TOKEN_KIND", "invalid token type", http.StatusUnauthorized},
	{auth.ErrPrincipalNotFound, "UNAUTHORIZED", "invalid token", http.StatusUnauthorized},
	{auth.ErrInvalidCredential, "UNAUTHORIZED", "invalid token", http.StatusUnauthorized},

	{service.ErrAccountExists, "ACCOUNT_EXISTS", "account already exists", http.StatusConflict},
	{service.ErrCodeAlreadySent, "CODE_ALREADY_SENT", "verification code already sent", http.StatusTooManyRequests},
	{service.ErrAccountNotFound, "NOT_FOUND", "account not found", http.StatusNotFound},
	{service.ErrAlreadyVerified, "ALREADY_VERIFIED", "account already verified", http.StatusConflict},
	{service.ErrCodeNotFound, "NOT_FOUND", "code not found", http.StatusNotFound},
	{service.ErrBadCredentials, "BAD_CREDENTIALS", "bad credentials", http.StatusBadRequest},
	{service.ErrNotVerified, "NOT_VERIFIED", "user not verified", http.StatusForbidden},
	{mail.ErrSend, "MAIL_UNAVAILABLE", "verification code could not be sent", http.StatusBadGateway},

	{store.ErrNotFound, "NOT_FOUND", "resource not found", http.StatusNotFound},
	{store.ErrConflict, "CONFLICT", "conflicting resource", http.StatusConflict},
	{store.ErrTransactionAborted, "TRANSACTION_ABORTED", "transaction aborted", http.StatusConflict},
	{context.DeadlineExceeded, "TIMEOUT", "request timed out", http.StatusGatewayTimeout},
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
			Err:        err,
		}
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return &DomainError{Code: m.code, Message: m.message, HTTPStatus: m.status, Err: err}
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts err for the HTTP boundary.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusRequestTimeout:
		return "TIMEOUT"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "HTTP_ERROR"
}
