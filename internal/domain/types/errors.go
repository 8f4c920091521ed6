package types

import "errors"

var (
	ErrRideNotFound    = errors.New("ride not found")
	ErrDriverNotFound  = errors.New("driver not found")
	ErrVehicleNotFound = errors.New("vehicle not found")
	ErrNotFound        = errors.New("requested item not found")

	ErrInvalidTransition  = errors.New("invalid ride status transition")
	ErrBadRequest         = errors.New("malformed event payload")
	ErrNotRideParticipant = errors.New("actor is not a participant of the ride")
)
