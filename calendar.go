package agenda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/agenda/pkg/domain"
	"github.com/aretw0/agenda/pkg/ports"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	opCheckFree   = "check_free"
	opCreateEvent = "create_event"
)

// boundedCalendar decorates the calendar port with a per-call deadline,
// a span and a lifecycle event.
type boundedCalendar struct {
	next    ports.Calendar
	timeout time.Duration
	tracer  trace.Tracer
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

func (c *boundedCalendar) CheckFree(ctx context.Context, start time.Time, duration time.Duration) (bool, error) {
	var free bool
	err := c.call(ctx, opCheckFree, start, func(ctx context.Context) error {
		var err error
		free, err = c.next.CheckFree(ctx, start, duration)
		return err
	})
	return free, err
}

func (c *boundedCalendar) CreateEvent(ctx context.Context, start time.Time, duration time.Duration, summary string) (domain.Booking, error) {
	var booking domain.Booking
	err := c.call(ctx, opCreateEvent, start, func(ctx context.Context) error {
		var err error
		booking, err = c.next.CreateEvent(ctx, start, duration, summary)
		return err
	})
	return booking, err
}

func (c *boundedCalendar) call(ctx context.Context, op string, start time.Time, fn func(context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "calendar."+op, trace.WithAttributes(
		attribute.String("slot.start", start.Format(time.RFC3339)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	began := time.Now()
	err := fn(ctx)
	elapsed := time.Since(began)

	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, domain.ErrServiceUnavailable) && !errors.Is(err, domain.ErrBackend) {
			err = fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		c.logger.Warn("Calendar call failed",
			"operation", op,
			"session_id", sessionIDFrom(ctx),
			"elapsed", elapsed,
			"err", err,
		)
	}

	if c.hooks.OnCalendarCall != nil {
		c.hooks.OnCalendarCall(ctx, &domain.CalendarEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCalendarCall, SessionID: sessionIDFrom(ctx)},
			Operation: op,
			Instant:   start,
			Duration:  elapsed,
			IsError:   err != nil,
		})
	}
	return err
}
