package domain

import "time"

// Bus carries the driver assignment of a vehicle.
// An empty DriverID means the bus is unassigned.
type Bus struct {
	ID       string
	DriverID string
}

// Assigned reports whether a driver is signed into the bus.
func (b Bus) Assigned() bool {
	return b.DriverID != ""
}

// AssignmentAction is the outcome of a driver tap.
type AssignmentAction string

const (
	AssignmentLogin  AssignmentAction = "login"
	AssignmentLogout AssignmentAction = "logout"
)

// DriverLogEntry records a driver's sign-in period on a bus.
type DriverLogEntry struct {
	ID       string
	DriverID string
	BusID    string
	LoginAt  time.Time // zero for logout-only fallback entries
	LogoutAt time.Time
}
