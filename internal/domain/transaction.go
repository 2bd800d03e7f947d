package domain

import "time"

// TransactionType is the kind of ledger record.
type TransactionType string

const (
	TransactionTypeBus   TransactionType = "bus"
	TransactionTypeTopUp TransactionType = "topup"
	TransactionTypeCard  TransactionType = "card"
)

// IdentityMethod records how the passenger was identified for a bus fare.
type IdentityMethod string

const (
	IdentityMethodTag IdentityMethod = "tag"
	// IdentityMethodQR marks the lower-assurance path where the client asserts
	// the passenger id and no tag binding is verified.
	IdentityMethodQR IdentityMethod = "qr"
)

// Transaction is an immutable ledger record.
// Exactly one of Bus, TopUp or Card is set, matching Type.
type Transaction struct {
	ID            string          `json:"id"`
	Type          TransactionType `json:"type"`
	Amount        float64         `json:"amount"`
	FromPassenger string          `json:"from_passenger"`
	Organization  string          `json:"organization,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`

	Bus   *BusDetails   `json:"bus,omitempty"`
	TopUp *TopUpDetails `json:"topup,omitempty"`
	Card  *CardDetails  `json:"card,omitempty"`
}

// BusDetails are the fields of a fare transaction.
type BusDetails struct {
	BusID          string             `json:"bus_id"`
	DeviceID       string             `json:"device_id"`
	DriverID       string             `json:"driver_id"`
	FareBasis      FareBasis          `json:"fare_basis"`
	FareAmount     float64            `json:"fare_amount"`
	BaseFare       float64            `json:"base_fare"`
	IdentityMethod IdentityMethod     `json:"identity_method,omitempty"`
	Discount       *AppliedDiscount   `json:"discount,omitempty"`
	Promotions     []AppliedPromotion `json:"promotions,omitempty"`

	// Distance-based fares only.
	TapIn        *TapPoint `json:"tap_in,omitempty"`
	TapOut       *TapPoint `json:"tap_out,omitempty"`
	DistanceKm   float64   `json:"distance_km,omitempty"`
	TierDistance float64   `json:"tier_distance,omitempty"`
	TierFare     float64   `json:"tier_fare,omitempty"`
}

// TapPoint is a geo-stamped tap.
type TapPoint struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	At  time.Time `json:"at"`
}

// TopUpDetails are the fields of a balance top-up.
type TopUpDetails struct {
	Method      string  `json:"method"`
	TopUpAmount float64 `json:"topup_amount"`
	Fee         float64 `json:"fee"`
}

// CardDetails are the fields of a card issuance sale.
type CardDetails struct {
	IssuedCardID string  `json:"issued_card_id"`
	Price        float64 `json:"price"`
	Fee          float64 `json:"fee"`
	Location     string  `json:"location"`
}

// TransactionFilter narrows a transaction listing. Zero fields are ignored.
type TransactionFilter struct {
	Type        TransactionType
	PassengerID string
	DriverID    string
	BusID       string
	Start       time.Time
	End         time.Time
	Limit       int
}
