package agenda

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/agenda/internal/dialogue"
	"github.com/aretw0/agenda/internal/input"
	"github.com/aretw0/agenda/internal/logging"
	"github.com/aretw0/agenda/internal/slots"
	"github.com/aretw0/agenda/internal/temporal"
	"github.com/aretw0/agenda/pkg/adapters/memory"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/aretw0/agenda/pkg/ports"
	"github.com/aretw0/agenda/pkg/session"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Version is the release of the assistant.
const Version = "0.3.0"

// DefaultCalendarTimeout bounds every call to the calendar.
const DefaultCalendarTimeout = 10 * time.Second

// DefaultTurnTimeout bounds a whole turn, including every calendar call of
// an alternative-slot scan.
const DefaultTurnTimeout = 20 * time.Second

const instrumentationName = "github.com/aretw0/agenda"

// Assistant is the high-level entry point: it serialises turns per session,
// runs the dialogue and persists the resulting state.
type Assistant struct {
	sessions *session.Manager
	machine  *dialogue.Machine
	calendar *boundedCalendar

	turnTimeout time.Duration
	hooks       domain.LifecycleHooks
	tracer      trace.Tracer
	logger      *slog.Logger
	maxInput    int
	loc         *time.Location
}

type options struct {
	store           ports.StateStore
	locker          ports.DistributedLocker
	lockTTL         time.Duration
	loc             *time.Location
	lookahead       time.Duration
	keepTimeOnShift bool
	summary         string
	calendarTimeout time.Duration
	turnTimeout     time.Duration
	hooks           domain.LifecycleHooks
	tracerProvider  trace.TracerProvider
	logger          *slog.Logger
	maxInput        int
	now             func() time.Time
}

// Option defines a functional option for configuring the Assistant.
type Option func(*options)

// WithStore sets the session store (default: in-memory).
func WithStore(store ports.StateStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithLocker enables cross-replica locking of sessions. The lock must outlive
// the turn deadline; a non-positive ttl selects twice the turn timeout.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(o *options) {
		o.locker = locker
		o.lockTTL = ttl
	}
}

// WithLocation fixes the timezone the conversation is held in (default: UTC).
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.loc = loc
	}
}

// WithLookahead bounds the search for an alternative slot.
func WithLookahead(d time.Duration) Option {
	return func(o *options) {
		o.lookahead = d
	}
}

// WithKeepTimeOnShift keeps the requested time-of-day when a weekend is shifted.
func WithKeepTimeOnShift(keep bool) Option {
	return func(o *options) {
		o.keepTimeOnShift = keep
	}
}

// WithSummary sets the title of booked events.
func WithSummary(summary string) Option {
	return func(o *options) {
		o.summary = summary
	}
}

// WithCalendarTimeout overrides DefaultCalendarTimeout.
func WithCalendarTimeout(d time.Duration) Option {
	return func(o *options) {
		o.calendarTimeout = d
	}
}

// WithTurnTimeout overrides DefaultTurnTimeout. A turn that runs out of time
// is answered like a calendar outage.
func WithTurnTimeout(d time.Duration) Option {
	return func(o *options) {
		o.turnTimeout = d
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls accumulate.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(o *options) {
		o.hooks = o.hooks.Merge(hooks)
	}
}

// WithTracerProvider sets the OpenTelemetry provider (default: the global one).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxInputSize caps the byte length of a message.
func WithMaxInputSize(n int) Option {
	return func(o *options) {
		o.maxInput = n
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates an Assistant that checks and books slots on cal.
func New(cal ports.Calendar, opts ...Option) (*Assistant, error) {
	if cal == nil {
		return nil, fmt.Errorf("a calendar is required")
	}

	o := options{
		loc:             time.UTC,
		calendarTimeout: DefaultCalendarTimeout,
		turnTimeout:     DefaultTurnTimeout,
		maxInput:        input.DefaultMaxSize,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = memory.NewStore()
	}
	if o.logger == nil {
		o.logger = logging.NewNop()
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	if o.loc == nil {
		o.loc = time.UTC
	}
	if o.calendarTimeout <= 0 {
		return nil, fmt.Errorf("calendar timeout must be positive, got %s", o.calendarTimeout)
	}
	if o.turnTimeout <= 0 {
		return nil, fmt.Errorf("turn timeout must be positive, got %s", o.turnTimeout)
	}
	if o.locker != nil {
		switch {
		case o.lockTTL <= 0:
			o.lockTTL = 2 * o.turnTimeout
		case o.lockTTL <= o.turnTimeout:
			return nil, fmt.Errorf("lock ttl %s must exceed the turn timeout %s", o.lockTTL, o.turnTimeout)
		}
	}

	tracer := o.tracerProvider.Tracer(instrumentationName)
	bounded := &boundedCalendar{
		next:    cal,
		timeout: o.calendarTimeout,
		tracer:  tracer,
		hooks:   o.hooks,
		logger:  o.logger,
	}

	sessionOpts := []session.Option{session.WithLogger(o.logger)}
	if o.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(o.locker), session.WithLockTTL(o.lockTTL))
	}

	extractor := temporal.New(temporal.WithLocation(o.loc), temporal.WithLogger(o.logger))
	resolver := slots.New(bounded,
		slots.WithLocation(o.loc),
		slots.WithLookahead(o.lookahead),
		slots.WithKeepTimeOnShift(o.keepTimeOnShift),
		slots.WithLogger(o.logger),
	)
	machine := dialogue.New(extractor, resolver, bounded,
		dialogue.WithSummary(o.summary),
		dialogue.WithClock(o.now),
		dialogue.WithLogger(o.logger),
	)

	return &Assistant{
		sessions:    session.NewManager(o.store, sessionOpts...),
		machine:     machine,
		calendar:    bounded,
		turnTimeout: o.turnTimeout,
		hooks:       o.hooks,
		tracer:      tracer,
		logger:      o.logger,
		maxInput:    o.maxInput,
		loc:         o.loc,
	}, nil
}

// ProcessTurn runs one message through the dialogue for sessionID and returns
// the reply with the persisted state.
//
// Calendar and dialogue failures are answered with an apology and a nil error.
// The error is non-nil only for rejected input (wrapping domain.ErrInvalidTurnInput)
// and for session storage failures; in the latter case the reply is still an
// apology and the state is the one the turn started from.
func (a *Assistant) ProcessTurn(ctx context.Context, sessionID, message string) (string, *domain.DialogueState, error) {
	start := time.Now()

	if strings.TrimSpace(sessionID) == "" {
		a.emitTurn(ctx, sessionID, domain.IntentNone, domain.OutcomeMalformed, start)
		return "", nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidTurnInput)
	}
	clean, err := input.Sanitize(message, a.maxInput)
	if err != nil {
		a.emitTurn(ctx, sessionID, domain.IntentNone, domain.OutcomeMalformed, start)
		return "", nil, err
	}

	ctx, span := a.tracer.Start(ctx, "agenda.turn", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()
	ctx = withSessionID(ctx, sessionID)

	var (
		res  dialogue.Result
		prev *domain.DialogueState
	)
	saved, err := a.sessions.Update(ctx, sessionID, func(ctx context.Context, current *domain.DialogueState) (*domain.DialogueState, error) {
		prev = current.Snapshot()
		// The deadline covers the dialogue only, so the result can still be saved.
		stepCtx, cancel := context.WithTimeout(ctx, a.turnTimeout)
		defer cancel()
		res = a.machine.Step(stepCtx, current, clean)
		return res.State, nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session storage failed")
		a.logger.Error("Failed to persist turn", "session_id", sessionID, "err", err)
		a.emitTurn(ctx, sessionID, domain.IntentNone, domain.OutcomeFailed, start)

		if prev == nil {
			prev = domain.NewDialogueState()
		}
		return dialogue.SystemErrorReply, prev, fmt.Errorf("session %q: %w", sessionID, err)
	}

	span.SetAttributes(
		attribute.String("turn.intent", string(saved.Intent)),
		attribute.String("turn.outcome", string(res.Outcome)),
		attribute.Bool("turn.awaiting_confirmation", saved.AwaitingConfirmation),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
	}
	if res.Proposal != nil && a.hooks.OnProposal != nil {
		a.hooks.OnProposal(ctx, &domain.ProposalEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventProposal, SessionID: sessionID},
			Kind:      res.Proposal.Kind,
			Instant:   res.Proposal.Instant,
		})
	}
	a.emitTurn(ctx, sessionID, saved.Intent, res.Outcome, start)
	a.logger.Debug("Processed turn",
		"session_id", sessionID,
		"intent", saved.Intent,
		"outcome", res.Outcome,
	)
	return res.Reply, saved, nil
}

// Session returns the stored state of sessionID, or domain.ErrSessionNotFound.
func (a *Assistant) Session(ctx context.Context, sessionID string) (*domain.DialogueState, error) {
	return a.sessions.Load(ctx, sessionID)
}

// Reset forgets sessionID.
func (a *Assistant) Reset(ctx context.Context, sessionID string) error {
	return a.sessions.Delete(ctx, sessionID)
}

// Sessions lists the stored session IDs.
func (a *Assistant) Sessions(ctx context.Context) ([]string, error) {
	return a.sessions.List(ctx)
}

// Location returns the timezone the assistant speaks in.
func (a *Assistant) Location() *time.Location {
	return a.loc
}

func (a *Assistant) emitTurn(ctx context.Context, sessionID string, intent domain.Intent, outcome domain.TurnOutcome, start time.Time) {
	if a.hooks.OnTurn == nil {
		return
	}
	a.hooks.OnTurn(ctx, &domain.TurnEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTurn, SessionID: sessionID},
		Intent:    intent,
		Outcome:   outcome,
		Duration:  time.Since(start),
	})
}

type sessionKey struct{}

func withSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

func sessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
