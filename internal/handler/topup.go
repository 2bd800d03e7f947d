package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepay/internal/domain"
	"ridepay/internal/service"
)

// TopUpHandler handles HTTP requests for balance top-ups.
type TopUpHandler struct {
	topUpService *service.TopUpService
}

// NewTopUpHandler creates a new TopUpHandler.
func NewTopUpHandler(topUpService *service.TopUpService) *TopUpHandler {
	return &TopUpHandler{topUpService: topUpService}
}

// TopUpRequest is the HTTP request body for a top-up.
type TopUpRequest struct {
	PassengerID  string  `json:"passenger_id"`
	Amount       float64 `json:"amount"`
	Fee          float64 `json:"fee"`
	Method       string  `json:"method"`
	Organization string  `json:"organization"`
}

// TopUpResponse is the HTTP response for a top-up.
type TopUpResponse struct {
	Balance       float64             `json:"balance"`
	LedgerPending bool                `json:"ledger_pending,omitempty"`
	Transaction   *domain.Transaction `json:"transaction"`
}

// TopUp handles POST /v1/topups
func (h *TopUpHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.PassengerID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "passenger_id is required"})
		return
	}

	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "amount must be positive"})
		return
	}

	result, err := h.topUpService.TopUp(c.Request.Context(), service.TopUpRequest{
		PassengerID:  req.PassengerID,
		Amount:       req.Amount,
		Fee:          req.Fee,
		Method:       req.Method,
		Organization: req.Organization,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, TopUpResponse{
		Balance:       result.Balance,
		LedgerPending: result.LedgerPending,
		Transaction:   result.Transaction,
	})
}
