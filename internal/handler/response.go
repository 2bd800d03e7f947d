package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepay/internal/repository"
	"ridepay/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	errCode := errorCode(err)
	message := err.Error()
	if code == http.StatusInternalServerError && errCode == "" {
		// Store errors carry connection details; keep them in the logs only.
		_ = c.Error(err)
		message = "internal error"
	}
	c.JSON(code, ErrorResponse{Error: message, Code: errCode})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrCardNotFound),
		errors.Is(err, service.ErrPassengerNotFound),
		errors.Is(err, service.ErrBusNotFound),
		errors.Is(err, service.ErrDriverNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidCardID),
		errors.Is(err, service.ErrInvalidTagID),
		errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidBusID),
		errors.Is(err, service.ErrInvalidDeviceID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidTopUpMethod),
		errors.Is(err, service.ErrInvalidTransaction),
		errors.Is(err, service.ErrInvalidTransactionID):
		return http.StatusBadRequest

	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusPaymentRequired

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrTagMismatch),
		errors.Is(err, service.ErrCardNotLinked),
		errors.Is(err, service.ErrBusOccupied),
		errors.Is(err, service.ErrDeviceMismatch):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, service.ErrBalanceConflict),
		errors.Is(err, service.ErrAssignmentChanged),
		errors.Is(err, service.ErrTapInProgress),
		errors.Is(err, service.ErrTapSessionClosed):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{repository.ErrNotFound, "not_found"},
	{service.ErrCardNotFound, "card_not_found"},
	{service.ErrTagMismatch, "tag_mismatch"},
	{service.ErrCardNotLinked, "card_not_linked"},
	{service.ErrPassengerNotFound, "passenger_not_found"},
	{service.ErrTariffUnset, "tariff_unset"},
	{service.ErrInsufficientBalance, "insufficient_balance"},
	{service.ErrBalanceConflict, "balance_conflict"},
	{service.ErrBusNotFound, "bus_not_found"},
	{service.ErrDriverNotFound, "driver_not_found"},
	{service.ErrBusOccupied, "bus_occupied"},
	{service.ErrAssignmentChanged, "assignment_changed"},
	{service.ErrTapInProgress, "tap_in_progress"},
	{service.ErrTapSessionClosed, "tap_session_closed"},
	{service.ErrDeviceMismatch, "device_mismatch"},
	{service.ErrInvalidTransaction, "invalid_transaction"},
}

// errorCode returns a stable machine-readable code for err, or "" when none applies.
func errorCode(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	if mapErrorToHTTPStatus(err) == http.StatusBadRequest {
		return "invalid_request"
	}
	return ""
}
