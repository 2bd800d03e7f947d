package domain

import "time"

// DiscountType is a standing discount category.
type DiscountType string

const (
	DiscountTypeStudent DiscountType = "student"
	DiscountTypeSenior  DiscountType = "senior"
	DiscountTypePWD     DiscountType = "pwd"
)

// Discount is the standing discount attached to a passenger account.
type Discount struct {
	Active    bool
	Type      DiscountType
	ExpiresAt time.Time // zero means no expiry recorded
}

// InEffect reports whether the discount applies at the given instant.
func (d Discount) InEffect(now time.Time) bool {
	if !d.Active || d.Type == "" {
		return false
	}
	if !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt) {
		return false
	}
	return true
}

// Passenger is a stored-value account.
type Passenger struct {
	ID       string
	Balance  float64
	Version  int64 // bumped on every balance write
	Discount Discount
}

// DiscountRate is the configured percentage for a discount type.
type DiscountRate struct {
	Type          DiscountType
	Rate          float64 // percent
	ValidityYears int
}
