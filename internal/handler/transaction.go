package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ridepay/internal/domain"
	"ridepay/internal/service"
)

const maxListLimit = 500

// TransactionHandler handles HTTP requests for ledger records.
type TransactionHandler struct {
	recorder *service.TransactionRecorder
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(recorder *service.TransactionRecorder) *TransactionHandler {
	return &TransactionHandler{recorder: recorder}
}

// CreateTransactionRequest is the HTTP request body for a synthetic ledger record.
type CreateTransactionRequest struct {
	Type          domain.TransactionType `json:"type"`
	Amount        float64                `json:"amount"`
	FromPassenger string                 `json:"from_passenger"`
	Organization  string                 `json:"organization"`
	Bus           *domain.BusDetails     `json:"bus"`
	TopUp         *domain.TopUpDetails   `json:"topup"`
	Card          *domain.CardDetails    `json:"card"`
}

// TransactionListResponse is the HTTP response for a transaction listing.
type TransactionListResponse struct {
	Transactions []*domain.Transaction `json:"transactions"`
	Count        int                   `json:"count"`
}

// Create handles POST /v1/transactions
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	txn, err := h.recorder.Create(c.Request.Context(), &domain.Transaction{
		Type:          req.Type,
		Amount:        req.Amount,
		FromPassenger: req.FromPassenger,
		Organization:  req.Organization,
		Bus:           req.Bus,
		TopUp:         req.TopUp,
		Card:          req.Card,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, txn)
}

// Get handles GET /v1/transactions/:id
func (h *TransactionHandler) Get(c *gin.Context) {
	txn, err := h.recorder.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, txn)
}

// List handles GET /v1/transactions
// Query: type, passenger_id, driver_id, bus_id, start and end (unix milliseconds), limit.
func (h *TransactionHandler) List(c *gin.Context) {
	filter := domain.TransactionFilter{
		Type:        domain.TransactionType(c.Query("type")),
		PassengerID: c.Query("passenger_id"),
		DriverID:    c.Query("driver_id"),
		BusID:       c.Query("bus_id"),
	}

	var err error
	if filter.Start, err = parseUnixMillis(c.Query("start")); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "start must be unix milliseconds", Code: "invalid_request"})
		return
	}
	if filter.End, err = parseUnixMillis(c.Query("end")); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "end must be unix milliseconds", Code: "invalid_request"})
		return
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer", Code: "invalid_request"})
			return
		}
		filter.Limit = min(limit, maxListLimit)
	}

	txns, err := h.recorder.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if txns == nil {
		txns = []*domain.Transaction{}
	}

	respondJSON(c, http.StatusOK, TransactionListResponse{
		Transactions: txns,
		Count:        len(txns),
	})
}

func parseUnixMillis(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
