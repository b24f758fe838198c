// Command stockmesh runs the real-time investment analysis loop for a single
// instrument until interrupted. Configuration is environment-sourced; see
// config.Config for the recognized variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hupe1980/stockmesh"
	"github.com/hupe1980/stockmesh/config"
	"github.com/hupe1980/stockmesh/console"
	"github.com/hupe1980/stockmesh/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "stockmesh: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.App.LogLevel, cfg.App.LogFormat, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mesh, err := stockmesh.New(cfg, func(o *stockmesh.Options) {
		o.Logger = logger
		o.Console = console.New(os.Stdout)
	})
	if err != nil {
		logger.Error("startup failed", "error", err.Error())
		os.Exit(1)
	}

	logger.Info("watching",
		"symbol", cfg.Watch.Symbol,
		"interval", cfg.Watch.PollInterval.String(),
		"provider", cfg.Model.Provider,
	)

	if err := mesh.Watch(ctx); err != nil {
		logger.Error("watch loop failed", "error", err.Error())
		os.Exit(1)
	}
}
