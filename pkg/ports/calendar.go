package ports

import (
	"context"
	"time"

	"github.com/aretw0/agenda/pkg/domain"
)

// Calendar is the Availability Port: the external calendar the assistant books into.
// Implementations wrap failures with domain.ErrServiceUnavailable or domain.ErrBackend.
type Calendar interface {
	// CheckFree reports whether [start, start+duration) has no events.
	CheckFree(ctx context.Context, start time.Time, duration time.Duration) (bool, error)

	// CreateEvent books [start, start+duration) with the given summary.
	CreateEvent(ctx context.Context, start time.Time, duration time.Duration, summary string) (domain.Booking, error)
}
