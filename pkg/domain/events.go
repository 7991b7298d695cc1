package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurn         EventType = "turn"
	EventProposal     EventType = "proposal"
	EventCalendarCall EventType = "calendar_call"
)

// TurnOutcome summarises what a turn did.
type TurnOutcome string

const (
	OutcomeGreeted   TurnOutcome = "greeted"
	OutcomeHelp      TurnOutcome = "help"
	OutcomeAskDate   TurnOutcome = "ask_date"
	OutcomeAskTime   TurnOutcome = "ask_time"
	OutcomeProposed  TurnOutcome = "proposed"
	OutcomeBooked    TurnOutcome = "booked"
	OutcomeRejected  TurnOutcome = "rejected"
	OutcomeReprompt  TurnOutcome = "reprompt"
	OutcomeFailed    TurnOutcome = "failed"
	OutcomeNoSlot    TurnOutcome = "no_slot"
	OutcomeMalformed TurnOutcome = "malformed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// TurnEvent is emitted once per processed turn.
type TurnEvent struct {
	EventBase
	Intent   Intent        `json:"intent"`
	Outcome  TurnOutcome   `json:"outcome"`
	Duration time.Duration `json:"duration"`
}

// ProposalEvent is emitted whenever a slot is offered.
type ProposalEvent struct {
	EventBase
	Kind    ProposalKind `json:"kind"`
	Instant time.Time    `json:"instant"`
}

// CalendarEvent is emitted for every call to the availability port.
type CalendarEvent struct {
	EventBase
	Operation string        `json:"operation"`
	Instant   time.Time     `json:"instant"`
	Duration  time.Duration `json:"duration"`
	IsError   bool          `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for assistant observability.
type LifecycleHooks struct {
	OnTurn         func(context.Context, *TurnEvent)
	OnProposal     func(context.Context, *ProposalEvent)
	OnCalendarCall func(context.Context, *CalendarEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTurn:         chain(h.OnTurn, other.OnTurn),
		OnProposal:     chain(h.OnProposal, other.OnProposal),
		OnCalendarCall: chain(h.OnCalendarCall, other.OnCalendarCall),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
