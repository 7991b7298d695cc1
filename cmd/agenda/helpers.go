package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/agenda/internal/cli"
	"github.com/spf13/pflag"
)

// bindFlag ties a flag to a config key; an explicit flag beats env and file.
func bindFlag(key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// buildApp wires the assistant; spans from the stdout exporter go to stderr
// so they never mix with chat or MCP traffic on stdout.
func buildApp(ctx context.Context) (*cli.App, error) {
	return cli.Build(ctx, cfg, logger, os.Stderr)
}

func closeApp(app *cli.App) {
	if err := app.Close(context.Background()); err != nil {
		logger.Warn("Shutdown incomplete", "err", err)
	}
}
