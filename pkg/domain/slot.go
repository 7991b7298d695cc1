package domain

import "time"

// SlotDuration is the fixed length of every bookable slot.
const SlotDuration = 30 * time.Minute

// Candidate is a date/time phrase found in a message.
type Candidate struct {
	Instant time.Time `json:"instant"`
	Phrase  string    `json:"phrase"`

	// HasDate and HasTime tell which components the phrase actually named.
	HasDate bool `json:"has_date"`
	HasTime bool `json:"has_time"`
}

// ProposalKind says how the resolver arrived at the offered instant.
type ProposalKind string

const (
	ProposalDirect      ProposalKind = "direct"      // Requested slot is free
	ProposalShifted     ProposalKind = "shifted"     // Requested day was a weekend
	ProposalAlternative ProposalKind = "alternative" // Requested slot was taken
)

// Proposal is a candidate booking awaiting the user's yes/no.
type Proposal struct {
	Instant time.Time    `json:"instant"`
	Kind    ProposalKind `json:"kind"`
	Message string       `json:"message"`
}

// Booking is the result of creating a calendar event.
type Booking struct {
	EventID      string    `json:"event_id,omitempty"`
	Start        time.Time `json:"start"`
	Link         string    `json:"link,omitempty"`
	Confirmation string    `json:"confirmation"`
}

// HumanLayout renders instants the way the assistant speaks them.
const HumanLayout = "Monday, Jan 02 at 03:04 PM"

// FormatInstant renders t with HumanLayout.
func FormatInstant(t time.Time) string {
	return t.Format(HumanLayout)
}

// ConfirmationText builds the user-facing text for a created event.
func ConfirmationText(start time.Time, link string) string {
	text := "✅ Booked for " + FormatInstant(start)
	if link != "" {
		text += "\n🔗 [View in Calendar](" + link + ")"
	}
	return text
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
