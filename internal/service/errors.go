package service

import "errors"

var (
	// ErrCardNotFound is returned when the presented card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrTagMismatch is returned when the presented tag is not the one bound to the card.
	ErrTagMismatch = errors.New("tag does not match card")

	// ErrCardNotLinked is returned when the card has no active passenger binding.
	ErrCardNotLinked = errors.New("card is not linked to an account")

	// ErrPassengerNotFound is returned when the passenger account does not exist.
	ErrPassengerNotFound = errors.New("passenger not found")

	// ErrTariffUnset is returned when the fare tariff is missing or malformed.
	ErrTariffUnset = errors.New("fare tariff is not configured")

	// ErrInsufficientBalance is returned when the balance cannot cover the fare.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrBalanceConflict is returned when a debit keeps losing against concurrent writers.
	ErrBalanceConflict = errors.New("balance changed concurrently, retry")

	// ErrBusNotFound is returned when the bus does not exist.
	ErrBusNotFound = errors.New("bus not found")

	// ErrDriverNotFound is returned when no driver is signed into the bus.
	ErrDriverNotFound = errors.New("no driver assigned to bus")

	// ErrBusOccupied is returned when another driver is signed into the bus.
	ErrBusOccupied = errors.New("bus is occupied by another driver")

	// ErrAssignmentChanged is returned when the bus assignment changed during a driver tap.
	ErrAssignmentChanged = errors.New("bus assignment changed concurrently")

	// ErrTapInProgress is returned when a concurrent tap-in already opened a session.
	ErrTapInProgress = errors.New("tap-in already in progress")

	// ErrTapSessionClosed is returned when the tap session was consumed by another tap-out.
	ErrTapSessionClosed = errors.New("tap session already closed")

	// ErrDeviceMismatch is returned when the request device differs from the authenticated device.
	ErrDeviceMismatch = errors.New("device does not match token")

	// ErrInvalidCardID is returned when card ID is empty.
	ErrInvalidCardID = errors.New("invalid card id")

	// ErrInvalidTagID is returned when tag ID is empty.
	ErrInvalidTagID = errors.New("invalid tag id")

	// ErrInvalidPassengerID is returned when passenger ID is empty.
	ErrInvalidPassengerID = errors.New("invalid passenger id")

	// ErrInvalidBusID is returned when bus ID is empty.
	ErrInvalidBusID = errors.New("invalid bus id")

	// ErrInvalidDeviceID is returned when device ID is empty.
	ErrInvalidDeviceID = errors.New("invalid device id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidLocation is returned when tap coordinates are out of range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidAmount is returned when a money amount is negative or not positive where required.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidTopUpMethod is returned when the top-up method is empty.
	ErrInvalidTopUpMethod = errors.New("invalid top-up method")

	// ErrInvalidTransaction is returned when a transaction record fails validation.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrInvalidTransactionID is returned when transaction ID is empty.
	ErrInvalidTransactionID = errors.New("invalid transaction id")
)
