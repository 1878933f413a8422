package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ideaboard/api/internal/backend"
	"ideaboard/api/internal/store"
	"ideaboard/api/internal/theme"
	"ideaboard/api/internal/usercontext"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(message string, details any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, details)
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "CONFLICT", "Already exists", nil
	case errors.Is(err, theme.ErrUnknownTheme):
		return http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Unknown theme", nil
	case errors.Is(err, usercontext.ErrNoProvider):
		return http.StatusInternalServerError, "CONFIGURATION_ERROR", "User context not configured", nil
	case errors.Is(err, backend.ErrNetworkFailure):
		return http.StatusBadGateway, "BACKEND_UNAVAILABLE", "Backend request failed", nil
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "Request timed out", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
