package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/brojonat/preflight/service/config"
	"github.com/brojonat/preflight/service/metrics"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
)

// setupLogger builds the logger from LOG_LEVEL/LOG_FORMAT, with the global
// flags taking precedence.
func setupLogger(c *cli.Context) (*slog.Logger, error) {
	// Env values are validated below, after flag overrides.
	level, format, _ := config.LoadLogging()
	if v := c.String("log-level"); v != "" {
		level = v
	}
	if v := c.String("log-format"); v != "" {
		format = v
	}
	if err := config.ValidateLogging(level, format); err != nil {
		return nil, err
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	var w io.Writer = os.Stderr
	if c.App.ErrWriter != nil {
		w = c.App.ErrWriter
	}

	if format == "text" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		})), nil
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})), nil
}

// loadRequirements returns the profile named by --profile or
// PREFLIGHT_PROFILE, or the defaults when neither is set.
func loadRequirements(c *cli.Context) (config.Requirements, error) {
	path := c.String("profile")
	if path == "" {
		path = os.Getenv(config.EnvProfile)
	}
	if path == "" {
		return config.DefaultRequirements(), nil
	}
	return config.LoadRequirements(path)
}

// newMetrics returns metrics bound to a fresh registry so a textfile only
// holds this run's series.
func newMetrics() (*prometheus.Registry, *metrics.Metrics) {
	registry := prometheus.NewRegistry()
	return registry, metrics.NewMetrics(registry)
}

func writeMetrics(c *cli.Context, registry *prometheus.Registry) error {
	path := c.String("metrics-file")
	if path == "" {
		return nil
	}
	return metrics.WriteTextfile(path, registry)
}

// commandContext applies --timeout to the command's context.
func commandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := c.Duration("timeout"); timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
