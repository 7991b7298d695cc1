// Package slots turns a requested date and time into a bookable proposal.
package slots

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aretw0/agenda/internal/logging"
	"github.com/aretw0/agenda/pkg/domain"
	"github.com/aretw0/agenda/pkg/ports"
)

// DefaultLookahead bounds the alternative-slot scan.
const DefaultLookahead = 14 * 24 * time.Hour

// Resolver applies the weekend policy and negotiates availability with a calendar.
type Resolver struct {
	calendar  ports.Calendar
	loc       *time.Location
	lookahead time.Duration
	keepTime  bool
	logger    *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLocation sets the timezone requested dates and times are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithLookahead overrides DefaultLookahead.
func WithLookahead(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.lookahead = d
		}
	}
}

// WithKeepTimeOnShift carries the requested time-of-day over to the shifted
// weekday instead of proposing midnight.
func WithKeepTimeOnShift(keep bool) Option {
	return func(r *Resolver) {
		r.keepTime = keep
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver backed by calendar.
func New(calendar ports.Calendar, opts ...Option) *Resolver {
	r := &Resolver{
		calendar:  calendar,
		loc:       time.UTC,
		lookahead: DefaultLookahead,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve proposes an instant for date and clock. It never books.
//
// Weekend requests are shifted to the next weekday without consulting the
// calendar. Weekday requests are checked; a taken (or already elapsed) slot
// starts a forward scan in SlotDuration steps that ends with
// ErrNoAvailabilityFound once the lookahead is exhausted. Calendar failures
// are wrapped in ErrAvailabilityService.
func (r *Resolver) Resolve(ctx context.Context, date civil.Date, clock civil.Time, now time.Time) (domain.Proposal, error) {
	if !date.IsValid() || !clock.IsValid() {
		return domain.Proposal{}, fmt.Errorf("%w: invalid slot %s %s", domain.ErrParseFailure, date, clock)
	}
	requested := civil.DateTime{Date: date, Time: clock}.In(r.loc)

	if domain.IsWeekend(requested) {
		shifted := r.shift(date, clock)
		return domain.Proposal{
			Instant: shifted,
			Kind:    domain.ProposalShifted,
			Message: fmt.Sprintf("⚠️ Weekends are unavailable. I've shifted it to the next working day: %s. Should I book it? (yes/no)", domain.FormatInstant(shifted)),
		}, nil
	}

	elapsed := requested.Before(now)
	if !elapsed {
		free, err := r.calendar.CheckFree(ctx, requested, domain.SlotDuration)
		if err != nil {
			return domain.Proposal{}, fmt.Errorf("%w: %w", domain.ErrAvailabilityService, err)
		}
		if free {
			return domain.Proposal{
				Instant: requested,
				Kind:    domain.ProposalDirect,
				Message: fmt.Sprintf("✅ That time is free! Should I book it for %s? (yes/no)", domain.FormatInstant(requested)),
			}, nil
		}
	}

	next, err := r.nextAvailable(ctx, requested, now)
	if err != nil {
		return domain.Proposal{}, err
	}

	reason := "That time is already booked."
	if elapsed {
		reason = "That time has already passed."
	}
	return domain.Proposal{
		Instant: next,
		Kind:    domain.ProposalAlternative,
		Message: fmt.Sprintf("⛔ %s How about %s? (yes/no)", reason, domain.FormatInstant(next)),
	}, nil
}

// shift moves a weekend date to the following Monday.
func (r *Resolver) shift(date civil.Date, clock civil.Time) time.Time {
	next := date.AddDays(1)
	for domain.IsWeekend(civil.DateTime{Date: next}.In(r.loc)) {
		next = next.AddDays(1)
	}
	if !r.keepTime {
		clock = civil.Time{}
	}
	return civil.DateTime{Date: next, Time: clock}.In(r.loc)
}

// nextAvailable returns the first free weekday slot strictly after from and not
// before now, stepping in SlotDuration increments.
func (r *Resolver) nextAvailable(ctx context.Context, from, now time.Time) (time.Time, error) {
	horizon := from.Add(r.lookahead)
	checked := 0
	for at := from.Add(domain.SlotDuration); !at.After(horizon); at = at.Add(domain.SlotDuration) {
		if domain.IsWeekend(at) || at.Before(now) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return time.Time{}, fmt.Errorf("%w: %w: %w", domain.ErrAvailabilityService, domain.ErrServiceUnavailable, err)
		}

		checked++
		free, err := r.calendar.CheckFree(ctx, at, domain.SlotDuration)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %w", domain.ErrAvailabilityService, err)
		}
		if free {
			r.logger.Debug("Found alternative slot", "requested", from, "proposed", at, "checks", checked)
			return at, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w within %s of %s", domain.ErrNoAvailabilityFound, r.lookahead, domain.FormatInstant(from))
}
