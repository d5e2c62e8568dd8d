package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tsunayoshi21/Labeling-app/internal/service"
	"github.com/tsunayoshi21/Labeling-app/internal/service/auth"
	"github.com/tsunayoshi21/Labeling-app/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, service.ErrReviewerNotFound),
		errors.Is(err, service.ErrWorkItemNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrReferenceNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, service.ErrReviewerNameTaken),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, service.ErrSelfTransfer),
		errors.Is(err, service.ErrNoStatusesSelected),
		errors.Is(err, service.ErrWorkItemMismatch),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Special cases
	case errors.Is(err, service.ErrNoPendingTasks):
		return http.StatusNoContent

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"

	// Not found errors
	case errors.Is(err, service.ErrReviewerNotFound):
		return "Reviewer not found"

	case errors.Is(err, service.ErrWorkItemNotFound):
		return "Work item not found"

	case errors.Is(err, service.ErrAssignmentNotFound):
		return "Assignment not found"

	case errors.Is(err, service.ErrReferenceNotFound):
		return "No reference reviewer configured"

	// Conflict errors
	case errors.Is(err, service.ErrReviewerNameTaken):
		return "Reviewer name already in use"

	// Bad request errors
	case errors.Is(err, service.ErrInvalidStatus):
		return "Invalid assignment status"

	case errors.Is(err, service.ErrInvalidCount):
		return "Count must be positive"

	case errors.Is(err, service.ErrSelfTransfer):
		return "Source and destination reviewer must differ"

	case errors.Is(err, service.ErrNoStatusesSelected):
		return "At least one status must be selected"

	case errors.Is(err, service.ErrWorkItemMismatch):
		return "Assignments reference different work items"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Default case for unknown errors
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'LoginRequest.Name' Error:Field validation for 'Name' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	case "gt":
		return "must be greater"
	case "uuid":
		return "invalid identifier"
	default:
		return "validation failed"
	}
}
