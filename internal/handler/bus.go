package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepay/internal/service"
)

// BusHandler handles HTTP requests for buses.
type BusHandler struct {
	driverService *service.DriverService
}

// NewBusHandler creates a new BusHandler.
func NewBusHandler(driverService *service.DriverService) *BusHandler {
	return &BusHandler{driverService: driverService}
}

// AssignmentResponse is the HTTP response for a bus assignment.
type AssignmentResponse struct {
	BusID    string `json:"bus_id"`
	DriverID string `json:"driver_id,omitempty"`
	Assigned bool   `json:"assigned"`
}

// GetAssignment handles GET /v1/buses/:id/assignment
func (h *BusHandler) GetAssignment(c *gin.Context) {
	bus, err := h.driverService.Assignment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AssignmentResponse{
		BusID:    bus.ID,
		DriverID: bus.DriverID,
		Assigned: bus.Assigned(),
	})
}
