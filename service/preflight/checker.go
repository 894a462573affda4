package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/brojonat/preflight/service/config"
	"github.com/brojonat/preflight/service/metrics"
	sol "github.com/brojonat/preflight/service/solana"
	"github.com/gagliardetto/solana-go"
	"golang.org/x/sync/errgroup"
)

// Role names an account in the demo.
type Role string

const (
	RoleSender      Role = "sender"
	RoleDestination Role = "destination"
)

// TokenState is the outcome of a token account lookup.
type TokenState string

const (
	TokenFound   TokenState = "found"
	TokenMissing TokenState = "missing"
	TokenError   TokenState = "error"
)

// AccountStatus is everything observed about one account.
type AccountStatus struct {
	Role           Role
	Owner          solana.PublicKey
	NativeLamports uint64

	TokenAccount solana.PublicKey
	TokenState   TokenState
	TokenAmount  uint64 // base units, valid when TokenState is TokenFound
	TokenErr     error  // set when TokenState is TokenError

	// MintMismatch is set when the token account decodes to a different mint.
	MintMismatch bool
}

// Report is the result of one check.
type Report struct {
	Sender       AccountStatus
	Destination  AccountStatus
	Requirements config.Requirements
	Verdict      Verdict
	CheckedAt    time.Time
}

// BalanceSource is the read-only ledger access the checker needs.
// *solana.Client implements it.
type BalanceSource interface {
	NativeBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	AccountInfo(ctx context.Context, account solana.PublicKey) (*sol.AccountInfo, error)
}

// Checker fetches balances for the demo accounts and evaluates them.
type Checker struct {
	source       BalanceSource
	req          config.Requirements
	mint         solana.PublicKey
	tokenProgram solana.PublicKey
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewChecker validates the requirement addresses and returns a Checker.
// If metrics is nil, no metrics will be recorded.
func NewChecker(source BalanceSource, req config.Requirements, m *metrics.Metrics, logger *slog.Logger) (*Checker, error) {
	mint, err := sol.ParseAddress(req.TokenMint)
	if err != nil {
		return nil, err
	}
	program, err := sol.ParseAddress(req.TokenProgram)
	if err != nil {
		return nil, err
	}
	return &Checker{
		source:       source,
		req:          req,
		mint:         mint,
		tokenProgram: program,
		metrics:      m,
		logger:       logger,
	}, nil
}

// Run checks sender and destination. Native balance failures abort the run;
// token account failures are recorded per account and never abort it.
func (c *Checker) Run(ctx context.Context, sender, destination solana.PublicKey) (*Report, error) {
	report := &Report{
		Sender:       AccountStatus{Role: RoleSender, Owner: sender},
		Destination:  AccountStatus{Role: RoleDestination, Owner: destination},
		Requirements: c.req,
	}
	accounts := []*AccountStatus{&report.Sender, &report.Destination}

	c.logger.InfoContext(ctx, "checking native balances",
		"sender", sender.String(),
		"destination", destination.String(),
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, acct := range accounts {
		acct := acct
		g.Go(func() error {
			lamports, err := c.source.NativeBalance(gctx, acct.Owner)
			if err != nil {
				return fmt.Errorf("failed to get %s balance: %w", acct.Role, err)
			}
			acct.NativeLamports = lamports
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, acct := range accounts {
		ata, err := sol.AssociatedTokenAddress(c.mint, acct.Owner, c.tokenProgram)
		if err != nil {
			return nil, err
		}
		acct.TokenAccount = ata
		if c.metrics != nil {
			c.metrics.RecordNativeBalance(string(acct.Role), acct.Owner.String(), acct.NativeLamports)
		}
	}

	c.logger.InfoContext(ctx, "checking token balances", "mint", c.mint.String())
	errs := make([]error, len(accounts))
	var wg sync.WaitGroup
	for i, acct := range accounts {
		i, acct := i, acct
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = c.lookupToken(ctx, acct)
		}()
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	report.Verdict = Evaluate(report.Sender, c.req)
	report.CheckedAt = time.Now().UTC()
	if c.metrics != nil {
		c.metrics.RecordVerdict(string(report.Verdict.Kind), report.Verdict.Met())
	}

	c.logger.InfoContext(ctx, "check complete",
		"verdict", report.Verdict.Kind,
		"deficits", len(report.Verdict.Deficits),
	)
	return report, nil
}

// lookupToken fills in the token fields of acct. Transport failures and
// malformed records are isolated to this account; any other error is
// returned.
func (c *Checker) lookupToken(ctx context.Context, acct *AccountStatus) error {
	outcome, err := c.fetchToken(ctx, acct)
	if err != nil {
		var transport *sol.TransportError
		var malformed *sol.MalformedAccountDataError
		switch {
		case errors.As(err, &malformed):
			outcome = "malformed"
		case errors.As(err, &transport):
			outcome = "error"
		default:
			return fmt.Errorf("%s token lookup: %w", acct.Role, err)
		}
		acct.TokenState = TokenError
		acct.TokenErr = err
		c.logger.WarnContext(ctx, "token balance check failed",
			"role", acct.Role,
			"account", acct.TokenAccount.String(),
			"error", err,
		)
	}
	if c.metrics != nil {
		c.metrics.RecordTokenLookup(string(acct.Role), c.mint.String(), outcome, acct.TokenAmount)
	}
	return nil
}

func (c *Checker) fetchToken(ctx context.Context, acct *AccountStatus) (string, error) {
	info, err := c.source.AccountInfo(ctx, acct.TokenAccount)
	if err != nil {
		return "", err
	}
	if info == nil {
		acct.TokenState = TokenMissing
		return "missing", nil
	}

	data, err := sol.Normalize(info.Data)
	if err != nil {
		return "", err
	}
	amount, err := sol.ExtractTokenAmount(data)
	if err != nil {
		return "", err
	}
	acct.TokenState = TokenFound
	acct.TokenAmount = amount

	if decoded, err := sol.DecodeTokenAccount(data); err == nil && !decoded.Mint.Equals(c.mint) {
		acct.MintMismatch = true
		c.logger.WarnContext(ctx, "token account holds a different mint",
			"role", acct.Role,
			"account", acct.TokenAccount.String(),
			"expected_mint", c.mint.String(),
			"actual_mint", decoded.Mint.String(),
		)
	}
	return "found", nil
}
