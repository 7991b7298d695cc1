package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/agenda/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the assistant collectors.
type Metrics struct {
	Turns            *prometheus.CounterVec
	Proposals        *prometheus.CounterVec
	CalendarCalls    *prometheus.CounterVec
	CalendarDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agenda_turns_total",
				Help: "Processed chat turns by outcome",
			},
			[]string{"outcome"},
		),
		Proposals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agenda_proposals_total",
				Help: "Slots offered to users by proposal kind",
			},
			[]string{"kind"},
		),
		CalendarCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agenda_calendar_calls_total",
				Help: "Calls to the calendar backend",
			},
			[]string{"operation", "result"},
		),
		CalendarDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agenda_calendar_call_duration_seconds",
				Help:    "Latency of calendar backend calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		gatherer: reg,
	}

	for _, c := range []prometheus.Collector{m.Turns, m.Proposals, m.CalendarCalls, m.CalendarDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			m.Turns.WithLabelValues(string(e.Outcome)).Inc()
		},
		OnProposal: func(_ context.Context, e *domain.ProposalEvent) {
			m.Proposals.WithLabelValues(string(e.Kind)).Inc()
		},
		OnCalendarCall: func(_ context.Context, e *domain.CalendarEvent) {
			result := "ok"
			if e.IsError {
				result = "error"
			}
			m.CalendarCalls.WithLabelValues(e.Operation, result).Inc()
			m.CalendarDuration.WithLabelValues(e.Operation).Observe(e.Duration.Seconds())
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
