package main

import (
	"fmt"
	"os"

	"github.com/brojonat/preflight/service/config"
	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "preflight",
		Usage: "Check that the demo accounts hold enough SOL and USDC",
		Description: `A diagnostic tool run before the full payment demo.

It reads the sender and destination keypairs from the environment, fetches
their SOL and USDC balances over Solana JSON-RPC, and reports whether the
sender can fund the demo transfer. Nothing is ever signed or sent.`,
		Version:        fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		DefaultCommand: "check",
		Before:         loadEnvFiles,
		Commands: []*cli.Command{
			checkCommand(),
			balanceCommand(),
			ataCommand(),
			decodeCommand(),
			reportsCommand(),
		},
		// Global flags available to all commands. Settings that may come from
		// a .env file are read from the environment after Before runs, so
		// these flags carry no EnvVars of their own.
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files when present",
				Value: cli.NewStringSlice(".env", "../.env"),
			},
			&cli.StringFlag{
				Name:  "profile",
				Usage: "Requirements profile (YAML); overrides PREFLIGHT_PROFILE",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error); overrides LOG_LEVEL",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format (json or text); overrides LOG_FORMAT",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Overall deadline for RPC calls (0 means none)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write Prometheus metrics for this run to a textfile",
			},
		},
	}
}

func loadEnvFiles(c *cli.Context) error {
	_, err := config.LoadDotEnv(c.StringSlice("env-file")...)
	return err
}
