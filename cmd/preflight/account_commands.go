package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brojonat/preflight/service/config"
	"github.com/brojonat/preflight/service/preflight"
	sol "github.com/brojonat/preflight/service/solana"
	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:      "balance",
		Usage:     "Show SOL and token balances for arbitrary addresses",
		ArgsUsage: "ADDRESS...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
		},
		Action: runBalance,
	}
}

type balanceOutput struct {
	Address       string  `json:"address"`
	NativeBalance string  `json:"native_balance"`
	TokenAccount  string  `json:"token_account"`
	TokenState    string  `json:"token_state"`
	TokenBalance  *string `json:"token_balance,omitempty"`
	Error         string  `json:"error,omitempty"`
}

func runBalance(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("at least one address is required")
	}
	owners := make([]solana.PublicKey, 0, c.NArg())
	for _, arg := range c.Args().Slice() {
		pk, err := sol.ParseAddress(arg)
		if err != nil {
			return err
		}
		owners = append(owners, pk)
	}

	rpcURL, err := config.ResolveRPCURL()
	if err != nil {
		return err
	}
	logger, err := setupLogger(c)
	if err != nil {
		return err
	}
	req, err := loadRequirements(c)
	if err != nil {
		return err
	}
	mint, err := sol.ParseAddress(req.TokenMint)
	if err != nil {
		return err
	}
	tokenProgram, err := sol.ParseAddress(req.TokenProgram)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(c)
	defer cancel()

	registry, m := newMetrics()
	client := sol.NewClient(sol.NewRPCClient(rpcURL), sol.EndpointLabel(rpcURL), m, logger)

	var results []balanceOutput
	for _, owner := range owners {
		lamports, err := client.NativeBalance(ctx, owner)
		if err != nil {
			return fmt.Errorf("failed to get balance for %s: %w", owner, err)
		}
		ata, err := sol.AssociatedTokenAddress(mint, owner, tokenProgram)
		if err != nil {
			return err
		}
		out := balanceOutput{
			Address:       owner.String(),
			NativeBalance: preflight.FormatUnits(lamports, req.NativeDecimals, preflight.NativePlaces),
			TokenAccount:  ata.String(),
		}

		// A token account problem is reported for this address only.
		balance, err := client.TokenBalance(ctx, ata)
		switch {
		case err != nil:
			out.TokenState = string(preflight.TokenError)
			out.Error = err.Error()
		case balance == nil:
			out.TokenState = string(preflight.TokenMissing)
		default:
			out.TokenState = string(preflight.TokenFound)
			amount := preflight.FormatUnits(balance.Amount, req.TokenDecimals, preflight.TokenPlaces)
			out.TokenBalance = &amount
		}
		results = append(results, out)
	}

	if err := writeMetrics(c, registry); err != nil {
		return err
	}

	w := c.App.Writer
	if c.Bool("json") {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal balances: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}

	for i, out := range results {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s\n", out.Address)
		fmt.Fprintf(w, "  %s: %s %s\n", req.NativeSymbol, out.NativeBalance, req.NativeSymbol)
		fmt.Fprintf(w, "  %s account: %s\n", req.TokenSymbol, out.TokenAccount)
		switch preflight.TokenState(out.TokenState) {
		case preflight.TokenFound:
			fmt.Fprintf(w, "  %s: %s %s\n", req.TokenSymbol, *out.TokenBalance, req.TokenSymbol)
		case preflight.TokenMissing:
			fmt.Fprintf(w, "  %s: Account not found\n", req.TokenSymbol)
		default:
			fmt.Fprintf(w, "  %s: Error checking balance (%s)\n", req.TokenSymbol, out.Error)
		}
	}
	return nil
}

func ataCommand() *cli.Command {
	return &cli.Command{
		Name:      "ata",
		Usage:     "Print the associated token account for an owner",
		ArgsUsage: "OWNER_ADDRESS",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mint",
				Usage: "Token mint (defaults to the profile's mint)",
			},
			&cli.BoolFlag{
				Name:  "token-2022",
				Usage: "Derive under the Token-2022 program instead of the profile's token program",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("owner address is required")
			}
			owner, err := sol.ParseAddress(c.Args().Get(0))
			if err != nil {
				return err
			}
			req, err := loadRequirements(c)
			if err != nil {
				return err
			}

			mintStr := c.String("mint")
			if mintStr == "" {
				mintStr = req.TokenMint
			}
			mint, err := sol.ParseAddress(mintStr)
			if err != nil {
				return err
			}
			tokenProgram, err := sol.ParseAddress(req.TokenProgram)
			if err != nil {
				return err
			}
			if c.Bool("token-2022") {
				tokenProgram = sol.Token2022ProgramID
			}

			ata, err := sol.AssociatedTokenAddress(mint, owner, tokenProgram)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, ata.String())
			return nil
		},
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode the amount from base64 token account data",
		ArgsUsage: "BASE64_DATA",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "Decode the full SPL token layout and print mint and owner",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("base64 account data is required")
			}
			req, err := loadRequirements(c)
			if err != nil {
				return err
			}

			data, err := sol.Normalize(sol.EncodedAccountData(strings.TrimSpace(c.Args().Get(0))))
			if err != nil {
				return err
			}
			amount, err := sol.ExtractTokenAmount(data)
			if err != nil {
				return err
			}

			w := c.App.Writer
			fmt.Fprintf(w, "Amount: %d (%s %s)\n", amount,
				preflight.FormatUnits(amount, req.TokenDecimals, preflight.TokenPlaces), req.TokenSymbol)

			if !c.Bool("verify") {
				return nil
			}
			acct, err := sol.DecodeTokenAccount(data)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Mint: %s\n", acct.Mint)
			fmt.Fprintf(w, "Owner: %s\n", acct.Owner)
			if acct.Mint.String() != req.TokenMint {
				fmt.Fprintf(w, "Warning: mint differs from %s (%s)\n", req.TokenSymbol, req.TokenMint)
			}
			return nil
		},
	}
}
