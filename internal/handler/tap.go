package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridepay/internal/domain"
	"ridepay/internal/middleware"
	"ridepay/internal/service"
)

// TapHandler handles HTTP requests from bus tap devices.
type TapHandler struct {
	tapService    *service.TapService
	driverService *service.DriverService
}

// NewTapHandler creates a new TapHandler.
func NewTapHandler(tapService *service.TapService, driverService *service.DriverService) *TapHandler {
	return &TapHandler{
		tapService:    tapService,
		driverService: driverService,
	}
}

// FixedTapRequest is the HTTP request body for a fixed-fare card tap.
type FixedTapRequest struct {
	TagID        string `json:"tag_id"`
	CardID       string `json:"card_id"`
	BusID        string `json:"bus_id"`
	DeviceID     string `json:"device_id"`
	Organization string `json:"organization"`
}

// DistanceTapRequest is the HTTP request body for a distance-fare card tap.
type DistanceTapRequest struct {
	TagID        string   `json:"tag_id"`
	CardID       string   `json:"card_id"`
	BusID        string   `json:"bus_id"`
	DeviceID     string   `json:"device_id"`
	Lat          *float64 `json:"lat"`
	Lng          *float64 `json:"lng"`
	Organization string   `json:"organization"`
}

// QRTapRequest is the HTTP request body for a QR tap.
type QRTapRequest struct {
	PassengerID  string `json:"passenger_id"`
	BusID        string `json:"bus_id"`
	DeviceID     string `json:"device_id"`
	Organization string `json:"organization"`
}

// DriverTapRequest is the HTTP request body for a driver tap.
type DriverTapRequest struct {
	DriverID string `json:"driver_id"`
	BusID    string `json:"bus_id"`
}

// TapResponse is the HTTP response for passenger taps.
type TapResponse struct {
	Action        string              `json:"action"`
	Balance       *float64            `json:"balance,omitempty"`
	LedgerPending bool                `json:"ledger_pending,omitempty"`
	Transaction   *domain.Transaction `json:"transaction,omitempty"`
	Session       *SessionResponse    `json:"session,omitempty"`
}

// SessionResponse describes an open tap-in.
type SessionResponse struct {
	ID       string    `json:"id"`
	BusID    string    `json:"bus_id"`
	Lat      float64   `json:"lat"`
	Lng      float64   `json:"lng"`
	OpenedAt time.Time `json:"opened_at"`
}

// DriverTapResponse is the HTTP response for a driver tap.
type DriverTapResponse struct {
	Action   string    `json:"action"`
	DriverID string    `json:"driver_id"`
	BusID    string    `json:"bus_id"`
	At       time.Time `json:"at"`
}

// Fixed handles POST /v1/tap/fixed
func (h *TapHandler) Fixed(c *gin.Context) {
	var req FixedTapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := checkDevice(c, req.DeviceID); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.tapService.TapFixed(c.Request.Context(), service.FixedTapRequest{
		TagID:        req.TagID,
		CardID:       req.CardID,
		BusID:        req.BusID,
		DeviceID:     req.DeviceID,
		Organization: req.Organization,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTapResponse(result))
}

// Distance handles POST /v1/tap/distance
func (h *TapHandler) Distance(c *gin.Context) {
	var req DistanceTapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Lat == nil || req.Lng == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "lat and lng are required", Code: "invalid_request"})
		return
	}
	if err := checkDevice(c, req.DeviceID); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.tapService.TapDistance(c.Request.Context(), service.DistanceTapRequest{
		TagID:        req.TagID,
		CardID:       req.CardID,
		BusID:        req.BusID,
		DeviceID:     req.DeviceID,
		Lat:          *req.Lat,
		Lng:          *req.Lng,
		Organization: req.Organization,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	code := http.StatusOK
	if result.Action == service.TapActionTapIn {
		code = http.StatusCreated
	}
	respondJSON(c, code, toTapResponse(result))
}

// QR handles POST /v1/tap/qr
func (h *TapHandler) QR(c *gin.Context) {
	var req QRTapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if err := checkDevice(c, req.DeviceID); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.tapService.TapQR(c.Request.Context(), service.QRTapRequest{
		PassengerID:  req.PassengerID,
		BusID:        req.BusID,
		DeviceID:     req.DeviceID,
		Organization: req.Organization,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTapResponse(result))
}

// Driver handles POST /v1/tap/driver
func (h *TapHandler) Driver(c *gin.Context) {
	var req DriverTapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.driverService.Tap(c.Request.Context(), service.DriverTapRequest{
		DriverID: req.DriverID,
		BusID:    req.BusID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, DriverTapResponse{
		Action:   string(result.Action),
		DriverID: result.DriverID,
		BusID:    result.BusID,
		At:       result.At,
	})
}

// checkDevice rejects a body device_id that differs from the authenticated device.
func checkDevice(c *gin.Context, deviceID string) error {
	authenticated, ok := middleware.DeviceID(c)
	if ok && deviceID != authenticated {
		return service.ErrDeviceMismatch
	}
	return nil
}

func toTapResponse(result *service.TapResult) TapResponse {
	resp := TapResponse{
		Action:        string(result.Action),
		LedgerPending: result.LedgerPending,
		Transaction:   result.Transaction,
	}
	if result.Action == service.TapActionCharged {
		balance := result.Balance
		resp.Balance = &balance
	}
	if s := result.Session; s != nil {
		resp.Session = &SessionResponse{
			ID:       s.ID,
			BusID:    s.BusID,
			Lat:      s.OriginLat,
			Lng:      s.OriginLng,
			OpenedAt: s.OpenedAt,
		}
	}
	return resp
}
