package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidState is returned when a loaded DialogueState breaks its invariants.
var ErrInvalidState = errors.New("invalid dialogue state")

// ErrInvalidTurnInput is returned for turns rejected before reaching the dialogue (e.g. empty message).
var ErrInvalidTurnInput = errors.New("invalid turn input")

// ErrParseFailure means no usable date or time could be extracted from the message.
var ErrParseFailure = errors.New("no usable date or time")

// Calendar backend failures. Adapters wrap one of these two.
var (
	ErrServiceUnavailable = errors.New("calendar service unavailable")
	ErrBackend            = errors.New("calendar backend error")
)

// ErrAvailabilityService wraps a calendar failure raised while checking availability.
var ErrAvailabilityService = errors.New("availability check failed")

// ErrBookingFailure wraps a calendar failure raised while creating the event.
var ErrBookingFailure = errors.New("booking failed")

// ErrNoAvailabilityFound is returned when the alternative-slot scan exhausts its horizon.
var ErrNoAvailabilityFound = errors.New("no availability found")
