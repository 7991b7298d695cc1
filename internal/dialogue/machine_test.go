package dialogue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aretw0/agenda/internal/slots"
	"github.com/aretw0/agenda/internal/temporal"
	"github.com/aretw0/agenda/pkg/adapters/memory"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is a known Monday morning.
var monday = time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)

var fridayTwo = time.Date(2026, time.October, 23, 14, 0, 0, 0, time.UTC)

func newMachine(cal *memory.Calendar, opts ...slots.Option) *Machine {
	return New(temporal.New(), slots.New(cal, opts...), cal, WithClock(func() time.Time { return monday }))
}

func greeted() *domain.DialogueState {
	return &domain.DialogueState{Greeted: true}
}

func TestStep_GreetingGate(t *testing.T) {
	cal := memory.NewCalendar()
	m := newMachine(cal)

	res := m.Step(context.Background(), domain.NewDialogueState(), "hello")
	assert.Equal(t, GreetingReply, res.Reply)
	assert.True(t, res.State.Greeted)
	assert.Equal(t, domain.IntentGreeting, res.State.Intent)
	assert.Equal(t, domain.OutcomeGreeted, res.Outcome)

	// A booking request on the very first turn only earns the introduction.
	res = m.Step(context.Background(), domain.NewDialogueState(), "Book Friday at 2pm")
	assert.Equal(t, IntroReply, res.Reply)
	assert.True(t, res.State.Greeted)
	assert.Equal(t, domain.IntentNone, res.State.Intent)
	assert.Nil(t, res.State.PendingDate)
	assert.False(t, res.State.AwaitingConfirmation)
	assert.Zero(t, cal.Checks())
}

func TestStep_BookFridayDirect(t *testing.T) {
	cal := memory.NewCalendar()
	m := newMachine(cal)

	res := m.Step(context.Background(), greeted(), "Book Friday at 2pm")
	require.NoError(t, res.Err)

	assert.Equal(t, domain.IntentBooking, res.State.Intent)
	assert.True(t, res.State.AwaitingConfirmation)
	require.NotNil(t, res.State.SuggestedInstant)
	assert.Equal(t, fridayTwo, *res.State.SuggestedInstant)
	require.NotNil(t, res.Proposal)
	assert.Equal(t, domain.ProposalDirect, res.Proposal.Kind)
	assert.Equal(t, res.Proposal.Message, res.Reply)
	assert.Equal(t, res.Reply, res.State.LastResponse)
	assert.Equal(t, domain.OutcomeProposed, res.Outcome)
}

func TestStep_BookFridayAlternative(t *testing.T) {
	cal := memory.NewCalendar()
	cal.Block(fridayTwo, time.Hour)
	m := newMachine(cal)

	res := m.Step(context.Background(), greeted(), "Book Friday at 2pm")
	require.NotNil(t, res.Proposal)
	assert.Equal(t, domain.ProposalAlternative, res.Proposal.Kind)
	assert.Equal(t, fridayTwo.Add(time.Hour), *res.State.SuggestedInstant)
	assert.True(t, res.State.AwaitingConfirmation)
}

func TestStep_WeekendIsShiftedWithoutCalendar(t *testing.T) {
	cal := memory.NewCalendar()
	m := newMachine(cal)

	res := m.Step(context.Background(), greeted(), "Book Saturday at 2pm")
	require.NotNil(t, res.Proposal)
	assert.Equal(t, domain.ProposalShifted, res.Proposal.Kind)
	assert.Equal(t, time.Date(2026, time.October, 26, 0, 0, 0, 0, time.UTC), *res.State.SuggestedInstant)
	assert.Zero(t, cal.Checks())
}

func TestStep_YesWithoutProposalIsHelp(t *testing.T) {
	cal := memory.NewCalendar()
	m := newMachine(cal)

	res := m.Step(context.Background(), greeted(), "yes")
	assert.Equal(t, HelpReply, res.Reply)
	assert.Equal(t, domain.IntentUnknown, res.State.Intent)
	assert.Zero(t, cal.Creates())
}

func TestStep_NoResolvableDateAsksForDay(t *testing.T) {
	m := newMachine(memory.NewCalendar())

	res := m.Step(context.Background(), greeted(), "let's meet sometime")
	assert.Equal(t, AskDateReply, res.Reply)
	assert.Equal(t, domain.IntentBooking, res.State.Intent)
	assert.Nil(t, res.State.PendingDate)
	assert.Nil(t, res.State.PendingTime)
	assert.Equal(t, domain.OutcomeAskDate, res.Outcome)
}

func TestStep_AssemblesSlotAcrossTurns(t *testing.T) {
	m := newMachine(memory.NewCalendar())
	ctx := context.Background()

	res := m.Step(ctx, greeted(), "Book Friday")
	assert.Equal(t, AskTimeReply, res.Reply)
	require.NotNil(t, res.State.PendingDate)
	assert.Nil(t, res.State.PendingTime)

	res = m.Step(ctx, res.State, "3pm")
	require.NotNil(t, res.State.SuggestedInstant)
	assert.Equal(t, fridayTwo.Add(time.Hour), *res.State.SuggestedInstant)
}

func TestStep_AcceptBooksExactlyOnce(t *testing.T) {
	cal := memory.NewCalendar()
	m := newMachine(cal)
	ctx := context.Background()

	proposed := m.Step(ctx, greeted(), "Book Friday at 2pm").State
	res := m.Step(ctx, proposed, "yes please")

	assert.Equal(t, domain.OutcomeBooked, res.Outcome)
	assert.Equal(t, 1, cal.Creates())
	events := cal.Events()
	require.Len(t, events, 1)
	assert.Equal(t, fridayTwo, events[0].Start)
	assert.Equal(t, DefaultSummary, events[0].Summary)

	assert.False(t, res.State.AwaitingConfirmation)
	assert.Nil(t, res.State.SuggestedInstant)
	assert.Nil(t, res.State.PendingDate)
	assert.Nil(t, res.State.PendingTime)
	assert.Contains(t, res.Reply, "Booked for Friday, Oct 23 at 02:00 PM")
	require.NotNil(t, res.Booking)
	assert.Equal(t, "evt-1", res.Booking.EventID)
}

func TestStep_SummaryOption(t *testing.T) {
	cal := memory.NewCalendar()
	m := New(temporal.New(), slots.New(cal), cal,
		WithClock(func() time.Time { return monday }),
		WithSummary("Intro call"),
	)
	ctx := context.Background()

	proposed := m.Step(ctx, greeted(), "Book Friday at 2pm").State
	m.Step(ctx, proposed, "confirm")
	require.Len(t, cal.Events(), 1)
	assert.Equal(t, "Intro call", cal.Events()[0].Summary)
}

func TestStep_UnclearReplyIsIdempotent(t *testing.T) {
	cal := memory.NewCalendar()
	m := newMachine(cal)
	ctx := context.Background()

	state := m.Step(ctx, greeted(), "Book Friday at 2pm").State
	want := *state.SuggestedInstant

	for _, msg := range []string{"hmm", "what?", "maybe later", "Friday at 4pm"} {
		res := m.Step(ctx, state, msg)
		assert.Equal(t, ConfirmReply, res.Reply)
		assert.True(t, res.State.AwaitingConfirmation)
		require.NotNil(t, res.State.SuggestedInstant)
		assert.Equal(t, want, *res.State.SuggestedInstant)
		state = res.State
	}
	assert.Zero(t, cal.Creates())
}

func TestStep_RejectDiscardsProposal(t *testing.T) {
	m := newMachine(memory.NewCalendar())
	ctx := context.Background()

	proposed := m.Step(ctx, greeted(), "Book Friday at 2pm").State
	res := m.Step(ctx, proposed, "yes, actually no")

	assert.Equal(t, RejectedReply, res.Reply)
	assert.Equal(t, domain.OutcomeRejected, res.Outcome)
	assert.False(t, res.State.AwaitingConfirmation)
	assert.Nil(t, res.State.SuggestedInstant)
	assert.NotNil(t, res.State.PendingDate, "the requested day survives a rejection")

	// A new time on its own re-proposes on the same day.
	res = m.Step(ctx, res.State, "4pm then")
	require.NotNil(t, res.State.SuggestedInstant)
	assert.Equal(t, fridayTwo.Add(2*time.Hour), *res.State.SuggestedInstant)
}

func TestStep_BookingFailureKeepsProposal(t *testing.T) {
	cal := memory.NewCalendar()
	m := newMachine(cal)
	ctx := context.Background()

	proposed := m.Step(ctx, greeted(), "Book Friday at 2pm").State

	cal.FailCreates(domain.ErrServiceUnavailable)
	res := m.Step(ctx, proposed, "yes")
	assert.Equal(t, BookingFailedReply, res.Reply)
	assert.ErrorIs(t, res.Err, domain.ErrBookingFailure)
	assert.ErrorIs(t, res.Err, domain.ErrServiceUnavailable)
	assert.True(t, res.State.AwaitingConfirmation)
	assert.Equal(t, *proposed.SuggestedInstant, *res.State.SuggestedInstant)

	cal.FailCreates(nil)
	res = m.Step(ctx, res.State, "yes")
	assert.Equal(t, domain.OutcomeBooked, res.Outcome)
	assert.Len(t, cal.Events(), 1)
}

func TestStep_AvailabilityFailureRollsBack(t *testing.T) {
	cal := memory.NewCalendar()
	cal.FailChecks(domain.ErrBackend)
	m := newMachine(cal)

	before := greeted()
	res := m.Step(context.Background(), before, "Book Friday at 2pm")

	assert.Equal(t, CalendarDownReply, res.Reply)
	assert.ErrorIs(t, res.Err, domain.ErrAvailabilityService)
	assert.Equal(t, domain.OutcomeFailed, res.Outcome)
	assert.Nil(t, res.State.PendingDate)
	assert.Nil(t, res.State.SuggestedInstant)
	assert.False(t, res.State.AwaitingConfirmation)
	assert.Equal(t, domain.IntentNone, res.State.Intent)
	assert.Equal(t, CalendarDownReply, res.State.LastResponse)
}

func TestStep_NoAvailability(t *testing.T) {
	cal := memory.NewCalendar()
	cal.Block(fridayTwo, 30*24*time.Hour)
	m := newMachine(cal, slots.WithLookahead(24*time.Hour))

	res := m.Step(context.Background(), greeted(), "Book Friday at 2pm")
	assert.Equal(t, NoSlotReply, res.Reply)
	assert.Equal(t, domain.OutcomeNoSlot, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrNoAvailabilityFound)
	assert.False(t, res.State.AwaitingConfirmation)
}

func TestStep_DoesNotMutateInput(t *testing.T) {
	m := newMachine(memory.NewCalendar())
	before := greeted()

	m.Step(context.Background(), before, "Book Friday at 2pm")
	assert.Equal(t, greeted(), before)
}

type panickyExtractor struct{}

func (panickyExtractor) First(string, time.Time) (domain.Candidate, bool) {
	panic("boom")
}

func TestStep_RecoversFromPanic(t *testing.T) {
	cal := memory.NewCalendar()
	m := New(panickyExtractor{}, slots.New(cal), cal)

	before := greeted()
	res := m.Step(context.Background(), before, "Book Friday at 2pm")
	assert.Equal(t, SystemErrorReply, res.Reply)
	assert.Error(t, res.Err)
	assert.Equal(t, domain.IntentNone, res.State.Intent)
	assert.True(t, res.State.Greeted)
}

func TestStep_ResultStateIsValid(t *testing.T) {
	cal := memory.NewCalendar()
	m := newMachine(cal)
	ctx := context.Background()

	state := domain.NewDialogueState()
	for _, msg := range []string{"hi", "Book Friday", "2pm", "hmm", "no", "Saturday at 10am", "yes", "what now?"} {
		res := m.Step(ctx, state, msg)
		require.NoError(t, res.State.Validate(), "after %q", msg)
		state = res.State
	}
	assert.Len(t, cal.Events(), 1)
}

func TestStep_AnswersToAskDateContinueBooking(t *testing.T) {
	m := newMachine(memory.NewCalendar())
	ctx := context.Background()

	res := m.Step(ctx, greeted(), "book a meeting")
	require.Equal(t, AskDateReply, res.Reply)

	res = m.Step(ctx, res.State, "Friday")
	assert.Equal(t, AskTimeReply, res.Reply)
	assert.Equal(t, domain.IntentBooking, res.State.Intent)
	require.NotNil(t, res.State.PendingDate)
	assert.Equal(t, civil.DateOf(fridayTwo), *res.State.PendingDate)

	res = m.Step(ctx, res.State, "2pm")
	require.NotNil(t, res.State.SuggestedInstant)
	assert.Equal(t, fridayTwo, *res.State.SuggestedInstant)
}

func TestStep_PassedMonthDayMeansNextYear(t *testing.T) {
	m := newMachine(memory.NewCalendar())
	ctx := context.Background()

	res := m.Step(ctx, greeted(), "Book July 5th at 2pm")
	require.NotNil(t, res.State.PendingDate)
	assert.Equal(t, civil.Date{Year: 2027, Month: time.July, Day: 5}, *res.State.PendingDate)
	assert.True(t, res.State.AwaitingConfirmation)

	// The example in the day prompt is itself an answer.
	res = m.Step(ctx, greeted(), "book a meeting")
	res = m.Step(ctx, res.State, "July 5th")
	assert.Equal(t, AskTimeReply, res.Reply)
	require.NotNil(t, res.State.PendingDate)
	assert.Equal(t, 2027, res.State.PendingDate.Year)
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(context.Context, civil.Date, civil.Time, time.Time) (domain.Proposal, error) {
	return domain.Proposal{}, f.err
}

func TestStep_UnresolvableSlotAsksToRephrase(t *testing.T) {
	cal := memory.NewCalendar()
	m := New(temporal.New(), failingResolver{err: fmt.Errorf("%w: invalid slot", domain.ErrParseFailure)}, cal,
		WithClock(func() time.Time { return monday }))

	res := m.Step(context.Background(), greeted(), "Book Friday at 2pm")
	assert.Equal(t, ParseFailedReply, res.Reply)
	assert.Equal(t, domain.OutcomeReprompt, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrParseFailure)
	assert.Nil(t, res.State.PendingDate)
	assert.False(t, res.State.AwaitingConfirmation)
}
