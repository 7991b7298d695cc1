// Package dialogue implements the per-turn conversation state machine.
//
// A turn flows through up to four gates in order: greeting, confirmation,
// intent classification and response generation. Step never mutates the
// state it is given and always returns a usable state and reply.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aretw0/agenda/internal/logging"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/aretw0/agenda/pkg/ports"
)

// DefaultSummary titles the calendar events created on confirmation.
const DefaultSummary = "Scheduled Appointment"

// Replies the machine speaks outside of resolver proposals.
const (
	GreetingReply      = "👋 Hi there! I can help you schedule meetings. Try something like 'Book a call tomorrow at 3pm'."
	IntroReply         = "👋 Hi! I can help schedule meetings. Example: 'Book Friday at 2pm'"
	HelpReply          = "I can help schedule a meeting. Try saying: 'Book Friday at 2pm'"
	AskDateReply       = "📅 What day should I book it for? (e.g. 'Friday' or 'July 5th')"
	AskTimeReply       = "⏰ What time should I book it for? (e.g. '2pm')"
	ConfirmReply       = "Please confirm: Should I book this? (yes/no)"
	RejectedReply      = "No problem! What time would work better?"
	BookingFailedReply = "⚠️ Sorry, I couldn't book that slot right now. Reply 'yes' to try again or 'no' to pick another time."
	ParseFailedReply   = "🤔 Sorry, I couldn't understand that date or time. Could you rephrase it? (e.g. 'Friday at 2pm')"
	CalendarDownReply  = "⚠️ Sorry, I couldn't check the calendar right now. Please try again in a moment."
	NoSlotReply        = "⚠️ I couldn't find a free slot anywhere near that time. Could you suggest another day?"
	SystemErrorReply   = "⚠️ System error - please try again"
)

// Extractor finds the earliest-mentioned date/time phrase in a message.
type Extractor interface {
	First(text string, now time.Time) (domain.Candidate, bool)
}

// Resolver turns a requested date and time into a proposal.
type Resolver interface {
	Resolve(ctx context.Context, date civil.Date, clock civil.Time, now time.Time) (domain.Proposal, error)
}

// Result is the outcome of one turn.
type Result struct {
	Reply   string
	State   *domain.DialogueState
	Outcome domain.TurnOutcome

	// Proposal is set when the turn offered a slot.
	Proposal *domain.Proposal
	// Booking is set when the turn created an event.
	Booking *domain.Booking
	// Err records an internal failure that was turned into an apology.
	Err error
}

// Machine runs turns. It holds no per-session data and is safe for concurrent use.
type Machine struct {
	extractor Extractor
	resolver  Resolver
	booker    ports.Calendar
	summary   string
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithSummary sets the title of booked events.
func WithSummary(summary string) Option {
	return func(m *Machine) {
		if summary != "" {
			m.summary = summary
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the machine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New creates a Machine. booker receives the CreateEvent call on confirmation.
func New(extractor Extractor, resolver Resolver, booker ports.Calendar, opts ...Option) *Machine {
	m := &Machine{
		extractor: extractor,
		resolver:  resolver,
		booker:    booker,
		summary:   DefaultSummary,
		now:       time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Step processes one message against current and returns the next state.
// Failures never escape: they come back as an apology in Result.Reply with
// the cause in Result.Err.
func (m *Machine) Step(ctx context.Context, current *domain.DialogueState, input string) (res Result) {
	if current == nil {
		current = domain.NewDialogueState()
	}
	prev := current.Snapshot()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Recovered from panic during turn", "panic", r)
			res = m.rollback(prev, SystemErrorReply, domain.OutcomeFailed, fmt.Errorf("panic during turn: %v", r))
		}
	}()

	state := current.Snapshot()

	if !state.Greeted {
		return m.greet(state, input)
	}
	if state.AwaitingConfirmation {
		return m.confirm(ctx, state, prev, input)
	}

	// A prompt for the missing day or time keeps the booking open.
	inProgress := state.BookingInProgress() || state.Intent == domain.IntentBooking
	if !IsBookingRequest(input, inProgress) {
		state.Intent = domain.IntentUnknown
		return reply(state, HelpReply, domain.OutcomeHelp)
	}
	state.Intent = domain.IntentBooking

	now := m.now()
	if c, ok := m.extractor.First(input, now); ok {
		if c.HasDate {
			d := civil.DateOf(c.Instant)
			state.PendingDate = &d
		}
		if c.HasTime {
			t := civil.TimeOf(c.Instant)
			state.PendingTime = &t
		}
	}

	switch {
	case state.PendingDate == nil:
		return reply(state, AskDateReply, domain.OutcomeAskDate)
	case state.PendingTime == nil:
		return reply(state, AskTimeReply, domain.OutcomeAskTime)
	}

	proposal, err := m.resolver.Resolve(ctx, *state.PendingDate, *state.PendingTime, now)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoAvailabilityFound):
			return m.rollback(prev, NoSlotReply, domain.OutcomeNoSlot, err)
		case errors.Is(err, domain.ErrParseFailure):
			m.logger.Debug("Could not resolve requested slot", "err", err)
			return m.rollback(prev, ParseFailedReply, domain.OutcomeReprompt, err)
		}
		m.logger.Warn("Slot resolution failed", "err", err)
		return m.rollback(prev, CalendarDownReply, domain.OutcomeFailed, err)
	}

	state.Propose(proposal.Instant)
	res = reply(state, proposal.Message, domain.OutcomeProposed)
	res.Proposal = &proposal
	return res
}

func (m *Machine) greet(state *domain.DialogueState, input string) Result {
	state.Greeted = true
	state.Withdraw()
	if IsGreeting(input) {
		state.Intent = domain.IntentGreeting
		return reply(state, GreetingReply, domain.OutcomeGreeted)
	}
	state.Intent = domain.IntentNone
	return reply(state, IntroReply, domain.OutcomeGreeted)
}

func (m *Machine) confirm(ctx context.Context, state, prev *domain.DialogueState, input string) Result {
	switch ClassifyReply(input) {
	case ReplyReject:
		state.Withdraw()
		return reply(state, RejectedReply, domain.OutcomeRejected)

	case ReplyAccept:
		at := *state.SuggestedInstant
		booking, err := m.booker.CreateEvent(ctx, at, domain.SlotDuration, m.summary)
		if err != nil {
			m.logger.Warn("Booking failed", "instant", at, "err", err)
			return m.rollback(prev, BookingFailedReply, domain.OutcomeFailed, fmt.Errorf("%w: %w", domain.ErrBookingFailure, err))
		}
		state.ClearPending()
		state.Withdraw()
		res := reply(state, booking.Confirmation, domain.OutcomeBooked)
		res.Booking = &booking
		return res
	}
	return reply(state, ConfirmReply, domain.OutcomeReprompt)
}

// rollback answers with the pre-turn state, updating only the last response.
func (m *Machine) rollback(prev *domain.DialogueState, text string, outcome domain.TurnOutcome, err error) Result {
	state := prev.Snapshot()
	state.LastResponse = text
	return Result{Reply: text, State: state, Outcome: outcome, Err: err}
}

func reply(state *domain.DialogueState, text string, outcome domain.TurnOutcome) Result {
	state.LastResponse = text
	return Result{Reply: text, State: state, Outcome: outcome}
}
