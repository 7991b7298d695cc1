package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/agenda/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one Debug line per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(ctx context.Context, e *domain.TurnEvent) {
			logger.DebugContext(ctx, "turn",
				"session_id", e.SessionID,
				"intent", e.Intent,
				"outcome", e.Outcome,
				"duration", e.Duration,
			)
		},
		OnProposal: func(ctx context.Context, e *domain.ProposalEvent) {
			logger.DebugContext(ctx, "proposal",
				"session_id", e.SessionID,
				"kind", e.Kind,
				"instant", e.Instant,
			)
		},
		OnCalendarCall: func(ctx context.Context, e *domain.CalendarEvent) {
			logger.DebugContext(ctx, "calendar_call",
				"session_id", e.SessionID,
				"operation", e.Operation,
				"duration", e.Duration,
				"is_error", e.IsError,
			)
		},
	}
}
