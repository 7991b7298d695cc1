// Package cli wires the assistant and its adapters from configuration.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/agenda"
	"github.com/aretw0/agenda/internal/config"
	"github.com/aretw0/agenda/pkg/adapters/file"
	"github.com/aretw0/agenda/pkg/adapters/gcal"
	"github.com/aretw0/agenda/pkg/adapters/memory"
	"github.com/aretw0/agenda/pkg/adapters/redis"
	"github.com/aretw0/agenda/pkg/adapters/sqlite"
	"github.com/aretw0/agenda/pkg/observability"
	"github.com/aretw0/agenda/pkg/persistence/middleware"
	"github.com/aretw0/agenda/pkg/ports"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// App is a fully wired assistant plus the resources that must be released.
type App struct {
	Assistant *agenda.Assistant
	Store     ports.StateStore
	Metrics   *observability.Metrics

	tracer  *sdktrace.TracerProvider
	closers []func() error
}

// Close flushes spans and releases stores.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// Build creates the store, locker and calendar named by cfg and wires them
// into an Assistant. Spans from the stdout exporter go to traceOut.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, traceOut io.Writer) (*App, error) {
	app := &App{}
	fail := func(err error) (*App, error) {
		app.Close(context.Background())
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, locker, err := app.buildStore(cfg)
	if err != nil {
		return fail(err)
	}
	app.Store = store

	cal, err := BuildCalendar(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fail(err)
	}
	app.Metrics = metrics

	tp, err := observability.NewTracerProvider(cfg.Tracing.Exporter, traceOut, agenda.Version)
	if err != nil {
		return fail(err)
	}
	app.tracer = tp

	opts := []agenda.Option{
		agenda.WithStore(store),
		agenda.WithLocation(loc),
		agenda.WithLookahead(cfg.Slots.Lookahead),
		agenda.WithKeepTimeOnShift(cfg.Slots.KeepTimeOnShift),
		agenda.WithSummary(cfg.Calendar.Summary),
		agenda.WithCalendarTimeout(cfg.Calendar.Timeout),
		agenda.WithTurnTimeout(cfg.Turn.Timeout),
		agenda.WithMaxInputSize(cfg.Input.MaxSize),
		agenda.WithLifecycleHooks(metrics.Hooks()),
		agenda.WithLifecycleHooks(observability.LogHooks(logger)),
		agenda.WithTracerProvider(tp),
		agenda.WithLogger(logger),
	}
	if locker != nil {
		opts = append(opts, agenda.WithLocker(locker, 0))
	}

	assistant, err := agenda.New(cal, opts...)
	if err != nil {
		return fail(fmt.Errorf("error initializing assistant: %w", err))
	}
	app.Assistant = assistant

	logger.Debug("Assistant ready",
		"store", cfg.Store.Driver,
		"calendar", cfg.Calendar.Driver,
		"timezone", loc.String(),
		"distributed_lock", locker != nil,
	)
	return app, nil
}

// BuildStore opens only the session store, for commands that never talk to
// the calendar. The returned func releases it.
func BuildStore(cfg *config.Config) (ports.StateStore, func() error, error) {
	app := &App{}
	store, _, err := app.buildStore(cfg)
	if err != nil {
		app.Close(context.Background())
		return nil, nil, err
	}
	return store, func() error { return app.Close(context.Background()) }, nil
}

func (a *App) buildStore(cfg *config.Config) (ports.StateStore, ports.DistributedLocker, error) {
	store, locker, err := a.openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	var mws []middleware.Middleware
	if cfg.Store.Redact {
		mws = append(mws, middleware.NewRedactionMiddleware(middleware.DefaultRedactPatterns))
	}
	active, fallback, err := cfg.EncryptionKeys()
	if err != nil {
		return nil, nil, err
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}
	return middleware.Chain(store, mws...), locker, nil
}

func (a *App) openStore(cfg *config.Config) (ports.StateStore, ports.DistributedLocker, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil

	case config.StoreFile:
		return file.New(cfg.StorePath()), nil, nil

	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.StorePath())
		if err != nil {
			return nil, nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil, nil

	case config.StoreRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.Redis.TTL),
		)
		a.closers = append(a.closers, store.Close)
		if !cfg.Redis.Lock {
			return store, nil, nil
		}
		return store, redis.NewLocker(store.Client(), cfg.Redis.Prefix), nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// BuildCalendar returns the availability backend named by cfg.
func BuildCalendar(ctx context.Context, cfg *config.Config) (ports.Calendar, error) {
	switch cfg.Calendar.Driver {
	case config.CalendarMemory:
		return memory.NewCalendar(), nil
	case config.CalendarGoogle:
		return gcal.NewFromCredentialsFile(ctx, cfg.Google.CalendarID, cfg.Google.CredentialsFile)
	}
	return nil, fmt.Errorf("unknown calendar driver %q", cfg.Calendar.Driver)
}
