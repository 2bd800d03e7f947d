package domain

import "time"

// CardStatus represents the lifecycle status of an issued card.
type CardStatus string

const (
	CardStatusActive   CardStatus = "active"
	CardStatusInactive CardStatus = "inactive"
)

// Card binds a physical tag to a passenger.
type Card struct {
	ID          string
	TagID       string
	PassengerID string
	Status      CardStatus
	IssuedAt    time.Time
}
