package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// StateDiff lists the fields that changed between two dialogue states.
// Cleared optional fields are reported through the Cleared slice.
type StateDiff struct {
	Greeted              *bool       `json:"greeted,omitempty"`
	Intent               *Intent     `json:"intent,omitempty"`
	PendingDate          *civil.Date `json:"pending_date,omitempty"`
	PendingTime          *civil.Time `json:"pending_time,omitempty"`
	SuggestedInstant     *time.Time  `json:"suggested_instant,omitempty"`
	AwaitingConfirmation *bool       `json:"awaiting_confirmation,omitempty"`
	Cleared              []string    `json:"cleared,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, every set field of newState is reported.
// It returns nil when nothing changed.
func Diff(oldState, newState *DialogueState) *StateDiff {
	if newState == nil {
		return nil
	}
	if oldState == nil {
		oldState = NewDialogueState()
	}

	diff := &StateDiff{}
	if oldState.Greeted != newState.Greeted {
		diff.Greeted = &newState.Greeted
	}
	if oldState.Intent != newState.Intent {
		diff.Intent = &newState.Intent
	}
	if oldState.AwaitingConfirmation != newState.AwaitingConfirmation {
		diff.AwaitingConfirmation = &newState.AwaitingConfirmation
	}

	switch {
	case newState.PendingDate == nil && oldState.PendingDate != nil:
		diff.Cleared = append(diff.Cleared, "pending_date")
	case newState.PendingDate != nil && (oldState.PendingDate == nil || *oldState.PendingDate != *newState.PendingDate):
		diff.PendingDate = newState.PendingDate
	}

	switch {
	case newState.PendingTime == nil && oldState.PendingTime != nil:
		diff.Cleared = append(diff.Cleared, "pending_time")
	case newState.PendingTime != nil && (oldState.PendingTime == nil || *oldState.PendingTime != *newState.PendingTime):
		diff.PendingTime = newState.PendingTime
	}

	switch {
	case newState.SuggestedInstant == nil && oldState.SuggestedInstant != nil:
		diff.Cleared = append(diff.Cleared, "suggested_instant")
	case newState.SuggestedInstant != nil && (oldState.SuggestedInstant == nil || !oldState.SuggestedInstant.Equal(*newState.SuggestedInstant)):
		diff.SuggestedInstant = newState.SuggestedInstant
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Greeted == nil &&
		d.Intent == nil &&
		d.PendingDate == nil &&
		d.PendingTime == nil &&
		d.SuggestedInstant == nil &&
		d.AwaitingConfirmation == nil &&
		len(d.Cleared) == 0
}
