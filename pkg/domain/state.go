package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Intent classifies the latest user turn.
type Intent string

const (
	IntentNone     Intent = ""         // No turn classified yet
	IntentGreeting Intent = "greeting" // First turn carried a greeting
	IntentBooking  Intent = "booking"  // Turn asks to schedule something
	IntentUnknown  Intent = "unknown"  // Anything else
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentNone, IntentGreeting, IntentBooking, IntentUnknown:
		return true
	}
	return false
}

// DialogueState is the per-session conversational state.
// It is owned by a single session and mutated by one turn at a time.
type DialogueState struct {
	// Greeted is set once the greeting has been sent. It is never reset.
	Greeted bool `json:"greeted"`

	// Intent is the classification of the latest turn.
	Intent Intent `json:"intent"`

	// PendingDate and PendingTime accumulate the slot being negotiated.
	PendingDate *civil.Date `json:"pending_date,omitempty"`
	PendingTime *civil.Time `json:"pending_time,omitempty"`

	// SuggestedInstant is the instant currently offered for confirmation.
	SuggestedInstant *time.Time `json:"suggested_instant,omitempty"`

	// AwaitingConfirmation is true iff the last reply asked a yes/no question.
	AwaitingConfirmation bool `json:"awaiting_confirmation"`

	// LastResponse is the most recent assistant message.
	LastResponse string `json:"last_response,omitempty"`

	// UpdatedAt records when the state was last persisted.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// NewDialogueState returns the state of a session that has never spoken.
func NewDialogueState() *DialogueState {
	return &DialogueState{Intent: IntentNone}
}

// Snapshot returns a deep copy of the state.
func (s *DialogueState) Snapshot() *DialogueState {
	if s == nil {
		return nil
	}
	cp := *s
	if s.PendingDate != nil {
		d := *s.PendingDate
		cp.PendingDate = &d
	}
	if s.PendingTime != nil {
		t := *s.PendingTime
		cp.PendingTime = &t
	}
	if s.SuggestedInstant != nil {
		at := *s.SuggestedInstant
		cp.SuggestedInstant = &at
	}
	return &cp
}

// ClearPending drops the accumulated slot components.
func (s *DialogueState) ClearPending() {
	s.PendingDate = nil
	s.PendingTime = nil
}

// Propose records the instant offered to the user and opens the confirmation gate.
func (s *DialogueState) Propose(at time.Time) {
	s.SuggestedInstant = &at
	s.AwaitingConfirmation = true
}

// Withdraw closes the confirmation gate and discards the offered instant.
func (s *DialogueState) Withdraw() {
	s.SuggestedInstant = nil
	s.AwaitingConfirmation = false
}

// BookingInProgress reports whether any slot component has been collected.
func (s *DialogueState) BookingInProgress() bool {
	return s.PendingDate != nil || s.PendingTime != nil
}

// Validate checks the structural invariants of the state.
func (s *DialogueState) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if !s.Intent.Valid() {
		return fmt.Errorf("%w: unknown intent %q", ErrInvalidState, s.Intent)
	}
	if s.AwaitingConfirmation && s.SuggestedInstant == nil {
		return fmt.Errorf("%w: awaiting confirmation without a suggested instant", ErrInvalidState)
	}
	if s.Intent == IntentBooking && !s.Greeted {
		return fmt.Errorf("%w: booking intent before greeting", ErrInvalidState)
	}
	if s.PendingDate != nil && !s.PendingDate.IsValid() {
		return fmt.Errorf("%w: invalid pending date %s", ErrInvalidState, s.PendingDate)
	}
	if s.PendingTime != nil && !s.PendingTime.IsValid() {
		return fmt.Errorf("%w: invalid pending time %s", ErrInvalidState, s.PendingTime)
	}
	return nil
}
