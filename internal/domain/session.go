package domain

import "time"

// TapSession is an open distance-based trip awaiting tap-out.
type TapSession struct {
	ID          string    `json:"id"`
	PassengerID string    `json:"passenger_id"`
	OpenedAt    time.Time `json:"opened_at"`
	OriginLat   float64   `json:"origin_lat"`
	OriginLng   float64   `json:"origin_lng"`
	BusID       string    `json:"bus_id"`
	DeviceID    string    `json:"device_id"`
}
