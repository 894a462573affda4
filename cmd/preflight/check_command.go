package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/brojonat/preflight/service/config"
	"github.com/brojonat/preflight/service/metrics"
	natspub "github.com/brojonat/preflight/service/nats"
	"github.com/brojonat/preflight/service/preflight"
	"github.com/brojonat/preflight/service/report"
	"github.com/brojonat/preflight/service/signer"
	sol "github.com/brojonat/preflight/service/solana"
	"github.com/urfave/cli/v2"
)

// exitRequirementsNotMet is the status used by check --strict.
const exitRequirementsNotMet = 2

// newPublisher connects to NATS; tests swap it for a mock.
var newPublisher = func(ctx context.Context, natsURL string, m *metrics.Metrics, logger *slog.Logger) (natspub.Publisher, error) {
	return natspub.NewPublisher(ctx, natsURL, m, logger)
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check the demo accounts against the transfer requirements",
		Description: `Reads TEST_SENDER_KEYPAIR and DESTINATION_KEYPAIR, fetches both accounts'
SOL balances and USDC token accounts, and reports whether the sender holds
enough to run the full demo.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"o"},
				Value:   "text",
				Usage:   "Output format (text or json)",
			},
			&cli.StringFlag{
				Name:  "jq",
				Usage: "jq expression applied to the JSON report (e.g., '.sender.token_balance')",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Exit with status 2 when requirements are not met",
			},
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "Publish the report to the PREFLIGHT JetStream stream",
			},
			&cli.StringFlag{
				Name:  "nats-url",
				Usage: "NATS server URL; overrides NATS_URL",
			},
		},
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	format := c.String("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (want text or json)", format)
	}
	var filter *report.Filter
	if expr := c.String("jq"); expr != "" {
		f, err := report.CompileFilter(expr)
		if err != nil {
			return err
		}
		filter = f
	}

	logger, err := setupLogger(c)
	if err != nil {
		return err
	}
	// Configuration and identities are resolved before any network call.
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	req, err := loadRequirements(c)
	if err != nil {
		return err
	}
	sender, destination, err := signer.LoadPair(cfg.SenderKeyVar, cfg.DestinationKeyVar)
	if err != nil {
		return err
	}

	publish := c.Bool("publish")
	natsURL := c.String("nats-url")
	if natsURL == "" {
		natsURL = cfg.NATSURL
	}
	if publish && natsURL == "" {
		return &config.ConfigurationError{Vars: []string{config.EnvNATSURL}}
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	registry, m := newMetrics()
	endpoint := sol.EndpointLabel(cfg.RPCURL)
	client := sol.NewClient(sol.NewRPCClient(cfg.RPCURL), endpoint, m, logger)

	checker, err := preflight.NewChecker(client, req, m, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "running preflight check",
		"endpoint", endpoint,
		"sender", sender.String(),
		"destination", destination.String(),
	)
	result, err := checker.Run(ctx, sender.Address(), destination.Address())
	if err != nil {
		return err
	}

	if err := writeReport(c.App.Writer, result, format, filter); err != nil {
		return err
	}

	if publish {
		if err := publishReport(ctx, natsURL, endpoint, result, m, logger); err != nil {
			return err
		}
	}

	if err := writeMetrics(c, registry); err != nil {
		return err
	}

	if c.Bool("strict") && !result.Verdict.Met() {
		return cli.Exit("requirements not met", exitRequirementsNotMet)
	}
	return nil
}

func writeReport(w io.Writer, r *preflight.Report, format string, filter *report.Filter) error {
	switch {
	case filter != nil:
		return filter.Write(w, r)
	case format == "json":
		return report.JSON(w, r)
	default:
		return report.Text(w, r)
	}
}

func publishReport(ctx context.Context, natsURL, endpoint string, r *preflight.Report, m *metrics.Metrics, logger *slog.Logger) error {
	publisher, err := newPublisher(ctx, natsURL, m, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	event := natspub.NewReportEvent(r, endpoint)
	if err := publisher.PublishReport(ctx, event); err != nil {
		return err
	}
	logger.InfoContext(ctx, "published report", "subject", event.Subject())
	return nil
}
