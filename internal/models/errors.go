package models

import "errors"

// Domain errors surfaced by the store and the booking service. Handlers
// map these to HTTP statuses; anything else is a persistence failure.
var (
	ErrNotFound         = errors.New("not found")
	ErrRideFull         = errors.New("no available seats")
	ErrAlreadyBooked    = errors.New("ride already booked")
	ErrSelfBooking      = errors.New("cannot book your own ride")
	ErrChatProvisioning = errors.New("failed to provision chat")
	ErrNotParticipant   = errors.New("not a chat participant")
	ErrNotOwner         = errors.New("not the ride owner")
)
