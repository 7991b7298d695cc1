// Package gcal implements the availability port on top of the Google Calendar API.
package gcal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/agenda/pkg/domain"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Calendar checks and books slots on a single Google calendar.
type Calendar struct {
	svc        *calendar.Service
	calendarID string
}

// New creates a Calendar for calendarID. Client options select credentials,
// endpoint or HTTP client exactly as for calendar.NewService.
func New(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Calendar, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Calendar{svc: svc, calendarID: calendarID}, nil
}

// NewFromCredentialsFile authenticates with a service account key file.
func NewFromCredentialsFile(ctx context.Context, calendarID, credentialsFile string) (*Calendar, error) {
	return New(ctx, calendarID,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(calendar.CalendarScope),
	)
}

// CheckFree reports whether no blocking event overlaps [start, start+duration).
func (c *Calendar) CheckFree(ctx context.Context, start time.Time, duration time.Duration) (bool, error) {
	events, err := c.svc.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(start.Add(duration).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return false, classify("list events", err)
	}

	for _, event := range events.Items {
		if event.Status == "cancelled" || event.Transparency == "transparent" {
			continue
		}
		return false, nil
	}
	return true, nil
}

// CreateEvent inserts a timed event and returns its link and confirmation text.
func (c *Calendar) CreateEvent(ctx context.Context, start time.Time, duration time.Duration, summary string) (domain.Booking, error) {
	event := &calendar.Event{
		Summary: summary,
		Start:   eventTime(start),
		End:     eventTime(start.Add(duration)),
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return domain.Booking{}, classify("insert event", err)
	}

	return domain.Booking{
		EventID:      created.Id,
		Start:        start,
		Link:         created.HtmlLink,
		Confirmation: domain.ConfirmationText(start, created.HtmlLink),
	}, nil
}

func eventTime(t time.Time) *calendar.EventDateTime {
	edt := &calendar.EventDateTime{DateTime: t.Format(time.RFC3339)}
	if name := t.Location().String(); name != "Local" {
		edt.TimeZone = name
	}
	return edt
}

// classify maps API rejections to ErrBackend and everything else
// (DNS, TLS, timeouts, cancelled contexts) to ErrServiceUnavailable.
func classify(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrBackend, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrServiceUnavailable, err)
}
