package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/brojonat/preflight/service/preflight"
	"github.com/dustin/go-humanize"
)

var rule = strings.Repeat("━", 56)

// Text writes the human-readable report.
func Text(w io.Writer, r *preflight.Report) error {
	p := &printer{w: w}
	req := r.Requirements

	p.line(rule)
	p.line("Checking Account Requirements for Full Demo")
	p.line(rule)
	p.line("")

	p.line("Account Addresses:")
	p.linef("  Sender: %s", r.Sender.Owner)
	p.linef("  Destination: %s", r.Destination.Owner)
	p.line("")

	p.linef("Checking %s balances...", req.NativeSymbol)
	for _, acct := range []preflight.AccountStatus{r.Sender, r.Destination} {
		p.linef("  %s %s: %s %s", roleTitle(acct.Role), req.NativeSymbol,
			preflight.FormatUnits(acct.NativeLamports, req.NativeDecimals, preflight.NativePlaces),
			req.NativeSymbol)
	}
	p.line("")

	p.linef("Checking %s balances...", req.TokenSymbol)
	for _, acct := range []preflight.AccountStatus{r.Sender, r.Destination} {
		p.linef("  %s %s: %s", roleTitle(acct.Role), req.TokenSymbol, tokenLine(acct, r))
		if acct.MintMismatch {
			p.linef("    Warning: %s holds a different mint than %s", acct.TokenAccount, req.TokenMint)
		}
	}
	p.line("")

	writePlan(p, r)
	writeVerdict(p, r)

	return p.err
}

func tokenLine(acct preflight.AccountStatus, r *preflight.Report) string {
	req := r.Requirements
	switch acct.TokenState {
	case preflight.TokenFound:
		return fmt.Sprintf("%s %s",
			preflight.FormatUnits(acct.TokenAmount, req.TokenDecimals, preflight.TokenPlaces),
			req.TokenSymbol)
	case preflight.TokenMissing:
		if acct.Role == preflight.RoleSender {
			return "Account not found (needs to be created)"
		}
		return "Account not found (will be created)"
	default:
		return "Error checking balance"
	}
}

func writePlan(p *printer, r *preflight.Report) {
	req := r.Requirements
	transferBase := req.TransferAmount.Shift(req.TokenDecimals).IntPart()

	p.line(rule)
	p.line("Full Demo Transfer Requirements:")
	p.line(rule)
	p.line("")
	p.line("The full-demo will transfer:")
	p.linef("  1. %s %s (%s with %d decimals)", req.TransferAmount, req.TokenSymbol,
		humanize.Comma(transferBase), req.TokenDecimals)
	p.line("     From: Sender → Destination")
	p.linef("  2. Payment to Kora (in %s)", req.TokenSymbol)
	p.linef("     Amount: ~%s-%s %s (estimated fee)",
		req.FeeEstimateMin.StringFixed(preflight.TokenPlaces),
		req.FeeEstimateMax.StringFixed(preflight.TokenPlaces),
		req.TokenSymbol)
	p.line("     From: Sender → Kora fee payer")
	p.line("")
	p.linef("Note: %s transfer has been removed from the demo.", req.NativeSymbol)
	p.linef("      Transaction fees are paid by Kora (in %s).", req.NativeSymbol)
	p.linef("      You only pay Kora back in %s.", req.TokenSymbol)
	p.line("")
	p.line("Total Required in Sender Account:")
	p.linef("  - %s: ~%s %s (%s for transfer + ~%s for Kora fee)",
		req.TokenSymbol,
		req.RequiredToken.StringFixed(preflight.TokenPlaces), req.TokenSymbol,
		req.TransferAmount, req.FeeEstimateMax.StringFixed(preflight.TokenPlaces))
	p.linef("  - %s: None needed (Kora pays transaction fees)", req.NativeSymbol)
	p.line("")
	p.linef("Note: Kora will pay the transaction fees in %s, but you pay", req.NativeSymbol)
	p.linef("      Kora back in %s for the gasless transaction service.", req.TokenSymbol)
	p.line("")
}

func writeVerdict(p *printer, r *preflight.Report) {
	req := r.Requirements
	switch r.Verdict.Kind {
	case preflight.VerdictAccountMissing:
		p.linef("⚠️  Sender %s account doesn't exist. You need to:", req.TokenSymbol)
		p.linef("   1. Create a %s token account for the sender", req.TokenSymbol)
		p.linef("   2. Transfer at least %s %s to it",
			req.RequiredToken.StringFixed(preflight.TokenPlaces), req.TokenSymbol)
	case preflight.VerdictUnverified:
		p.linef("⚠️  Could not verify %s balance. Make sure sender has %s.", req.TokenSymbol, req.TokenSymbol)
	case preflight.VerdictMet:
		p.line(rule)
		p.line("✅ Requirements Met! You can run the full-demo.")
		p.line(rule)
	default:
		p.line(rule)
		p.line("⚠️  Requirements NOT Met:")
		for _, def := range r.Verdict.Deficits {
			p.linef("   ❌ Need %s %s, have %s %s",
				def.Required.StringFixed(def.Places), def.Symbol,
				def.Have.StringFixed(def.Places), def.Symbol)
		}
		p.line(rule)
	}
}

func roleTitle(role preflight.Role) string {
	if role == preflight.RoleSender {
		return "Sender"
	}
	return "Destination"
}

// printer remembers the first write error so callers check once.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}
