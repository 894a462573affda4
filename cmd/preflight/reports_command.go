package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brojonat/preflight/service/config"
	natspub "github.com/brojonat/preflight/service/nats"
	sol "github.com/brojonat/preflight/service/solana"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

// newSubscriber connects to NATS; tests swap it for a mock.
var newSubscriber = func(natsURL string, logger *slog.Logger) (natspub.Subscriber, error) {
	return natspub.NewSubscriber(natsURL, logger)
}

func reportsCommand() *cli.Command {
	return &cli.Command{
		Name:      "reports",
		Usage:     "Stream published check reports from NATS JetStream",
		ArgsUsage: "[SENDER_ADDRESS]",
		Description: `Follow reports published by 'preflight check --publish'.

Reports are read from the PREFLIGHT stream on the subject preflight.{sender}.
Without an address every sender is shown. Runs until interrupted, or until
--timeout elapses when set.

Example:
  preflight --timeout 30s reports --last 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "nats-url",
				Usage: "NATS server URL; overrides NATS_URL",
			},
			&cli.BoolFlag{
				Name:  "last",
				Usage: "Replay only the newest report per sender before following",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output each report as a JSON line",
			},
		},
		Action: runReports,
	}
}

func runReports(c *cli.Context) error {
	address := ""
	if c.NArg() > 0 {
		pk, err := sol.ParseAddress(c.Args().Get(0))
		if err != nil {
			return err
		}
		address = pk.String()
	}

	natsURL := c.String("nats-url")
	if natsURL == "" {
		natsURL = os.Getenv(config.EnvNATSURL)
	}
	if natsURL == "" {
		return &config.ConfigurationError{Vars: []string{config.EnvNATSURL}}
	}

	logger, err := setupLogger(c)
	if err != nil {
		return err
	}

	subscriber, err := newSubscriber(natsURL, logger)
	if err != nil {
		return err
	}
	defer subscriber.Close()

	ctx, cancel := commandContext(c)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := c.App.Writer
	jsonOutput := c.Bool("json")
	count := 0
	handle := func(event *natspub.ReportEvent) {
		count++
		if jsonOutput {
			data, err := json.Marshal(event)
			if err != nil {
				logger.ErrorContext(ctx, "failed to marshal report event", "error", err)
				return
			}
			fmt.Fprintln(w, string(data))
			return
		}
		writeEventSummary(w, event)
	}

	subject := natspub.FilterSubject(address)
	logger.InfoContext(ctx, "following reports", "subject", subject)
	if err := subscriber.Consume(ctx, subject, c.Bool("last"), handle); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if !jsonOutput {
		fmt.Fprintf(w, "Received %d report(s)\n", count)
	}
	return nil
}

func writeEventSummary(w io.Writer, event *natspub.ReportEvent) {
	req := event.Requirements
	fmt.Fprintf(w, "─────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Sender:       %s\n", event.Sender.Address)
	fmt.Fprintf(w, "Checked:      %s (%s)\n", event.CheckedAt.Format("2006-01-02 15:04:05Z07:00"), humanize.Time(event.CheckedAt))
	fmt.Fprintf(w, "Endpoint:     %s\n", event.Endpoint)
	fmt.Fprintf(w, "Verdict:      %s\n", event.Verdict.Kind)
	fmt.Fprintf(w, "%-13s %s\n", req.NativeSymbol+":", event.Sender.Native)
	token := event.Sender.Token
	if token == "" {
		token = event.Sender.TokenState
	}
	fmt.Fprintf(w, "%-13s %s\n", req.TokenSymbol+":", token)
	for _, def := range event.Verdict.Deficits {
		fmt.Fprintf(w, "Short:        %s %s (have %s)\n", def.Required, def.Symbol, def.Have)
	}
	fmt.Fprintln(w)
}
