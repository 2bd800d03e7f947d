package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"ridepay/internal/repository"
	"ridepay/internal/service"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{repository.ErrNotFound, http.StatusNotFound},
		{service.ErrCardNotFound, http.StatusNotFound},
		{service.ErrPassengerNotFound, http.StatusNotFound},
		{service.ErrBusNotFound, http.StatusNotFound},
		{service.ErrInvalidTagID, http.StatusBadRequest},
		{service.ErrInvalidLocation, http.StatusBadRequest},
		{fmt.Errorf("%w: fee is required", service.ErrInvalidTransaction), http.StatusBadRequest},
		{service.ErrInsufficientBalance, http.StatusPaymentRequired},
		{service.ErrTagMismatch, http.StatusForbidden},
		{service.ErrCardNotLinked, http.StatusForbidden},
		{service.ErrBusOccupied, http.StatusForbidden},
		{service.ErrDeviceMismatch, http.StatusForbidden},
		{service.ErrBalanceConflict, http.StatusConflict},
		{service.ErrAssignmentChanged, http.StatusConflict},
		{service.ErrTapInProgress, http.StatusConflict},
		{service.ErrTapSessionClosed, http.StatusConflict},
		{service.ErrDriverNotFound, http.StatusNotFound},
		{service.ErrTariffUnset, http.StatusInternalServerError},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := mapErrorToHTTPStatus(tt.err); got != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, got)
		}
	}
}

func TestRespondError_HidesStoreErrors(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err         error
		wantMessage string
		wantCode    string
	}{
		{errors.New("pq: password authentication failed"), "internal error", ""},
		{service.ErrTariffUnset, service.ErrTariffUnset.Error(), "tariff_unset"},
		{fmt.Errorf("debit: %w", service.ErrInsufficientBalance), "debit: insufficient balance", "insufficient_balance"},
		{service.ErrInvalidBusID, "invalid bus id", "invalid_request"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		respondError(c, tt.err)

		var body ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error != tt.wantMessage || body.Code != tt.wantCode {
			t.Errorf("%v: expected %q/%q, got %q/%q", tt.err, tt.wantMessage, tt.wantCode, body.Error, body.Code)
		}
	}
}
