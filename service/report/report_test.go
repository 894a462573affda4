package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/brojonat/preflight/service/config"
	"github.com/brojonat/preflight/service/preflight"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	senderKey = solana.MustPublicKeyFromBase58("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	destKey   = solana.MustPublicKeyFromBase58("4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T")
)

func newReport(sender, dest preflight.AccountStatus) *preflight.Report {
	req := config.DefaultRequirements()
	sender.Role = preflight.RoleSender
	sender.Owner = senderKey
	dest.Role = preflight.RoleDestination
	dest.Owner = destKey
	return &preflight.Report{
		Sender:       sender,
		Destination:  dest,
		Requirements: req,
		Verdict:      preflight.Evaluate(sender, req),
		CheckedAt:    time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

func renderText(t *testing.T, r *preflight.Report) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, r))
	return buf.String()
}

func TestText_RequirementsMet(t *testing.T) {
	r := newReport(
		preflight.AccountStatus{NativeLamports: 10_000_000, TokenState: preflight.TokenFound, TokenAmount: 150_000},
		preflight.AccountStatus{NativeLamports: 0, TokenState: preflight.TokenMissing},
	)

	out := renderText(t, r)

	assert.Contains(t, out, "  Sender: "+senderKey.String())
	assert.Contains(t, out, "  Destination: "+destKey.String())
	assert.Contains(t, out, "  Sender SOL: 0.0100 SOL")
	assert.Contains(t, out, "  Destination SOL: 0.0000 SOL")
	assert.Contains(t, out, "  Sender USDC: 0.15 USDC")
	assert.Contains(t, out, "  Destination USDC: Account not found (will be created)")
	assert.Contains(t, out, "  1. 0.1 USDC (100,000 with 6 decimals)")
	assert.Contains(t, out, "     Amount: ~0.01-0.05 USDC (estimated fee)")
	assert.Contains(t, out, "  - SOL: None needed (Kora pays transaction fees)")
	assert.Contains(t, out, "✅ Requirements Met! You can run the full-demo.")
	assert.NotContains(t, out, "NOT Met")
}

func TestText_RequirementsNotMet(t *testing.T) {
	r := newReport(
		preflight.AccountStatus{NativeLamports: 5_000_000, TokenState: preflight.TokenFound, TokenAmount: 100_000},
		preflight.AccountStatus{TokenState: preflight.TokenFound, TokenAmount: 1},
	)

	out := renderText(t, r)

	assert.Contains(t, out, "⚠️  Requirements NOT Met:")
	assert.Contains(t, out, "   ❌ Need 0.15 USDC, have 0.10 USDC")
	assert.Contains(t, out, "   ❌ Need 0.0100 SOL, have 0.0050 SOL")
}

func TestText_SenderAccountMissing(t *testing.T) {
	r := newReport(
		preflight.AccountStatus{NativeLamports: 10_000_000_000, TokenState: preflight.TokenMissing},
		preflight.AccountStatus{TokenState: preflight.TokenMissing},
	)

	out := renderText(t, r)

	assert.Contains(t, out, "  Sender USDC: Account not found (needs to be created)")
	assert.Contains(t, out, "⚠️  Sender USDC account doesn't exist. You need to:")
	assert.Contains(t, out, "   2. Transfer at least 0.15 USDC to it")
	assert.NotContains(t, out, "Requirements Met")
}

func TestText_LookupError(t *testing.T) {
	r := newReport(
		preflight.AccountStatus{TokenState: preflight.TokenError, TokenErr: errors.New("timeout")},
		preflight.AccountStatus{TokenState: preflight.TokenFound, TokenAmount: 2_500_000},
	)

	out := renderText(t, r)

	assert.Contains(t, out, "  Sender USDC: Error checking balance")
	assert.Contains(t, out, "  Destination USDC: 2.50 USDC")
	assert.Contains(t, out, "⚠️  Could not verify USDC balance. Make sure sender has USDC.")
}

func TestText_MintMismatchWarning(t *testing.T) {
	r := newReport(
		preflight.AccountStatus{NativeLamports: 10_000_000, TokenState: preflight.TokenFound, TokenAmount: 150_000, MintMismatch: true},
		preflight.AccountStatus{TokenState: preflight.TokenMissing},
	)

	assert.Contains(t, renderText(t, r), "holds a different mint")
}

func TestJSON(t *testing.T) {
	r := newReport(
		preflight.AccountStatus{NativeLamports: 10_000_000, TokenState: preflight.TokenFound, TokenAmount: 100_000},
		preflight.AccountStatus{TokenState: preflight.TokenError, TokenErr: errors.New("connection refused")},
	)

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, r))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	sender := doc["sender"].(map[string]any)
	assert.Equal(t, senderKey.String(), sender["address"])
	assert.Equal(t, "0.01", sender["native"])
	assert.Equal(t, "0.1", sender["token"])
	assert.Equal(t, float64(100_000), sender["token_amount"])

	dest := doc["destination"].(map[string]any)
	assert.Equal(t, "error", dest["token_state"])
	assert.Equal(t, "connection refused", dest["error"])
	assert.NotContains(t, dest, "token_amount")

	assert.Equal(t, false, doc["met"])
	verdict := doc["verdict"].(map[string]any)
	assert.Equal(t, "not_met", verdict["kind"])
}

func TestFilter(t *testing.T) {
	r := newReport(
		preflight.AccountStatus{NativeLamports: 10_000_000, TokenState: preflight.TokenFound, TokenAmount: 150_000},
		preflight.AccountStatus{TokenState: preflight.TokenMissing},
	)

	t.Run("selects a field", func(t *testing.T) {
		f, err := CompileFilter(".sender.token")
		require.NoError(t, err)

		results, err := f.Run(r)
		require.NoError(t, err)
		assert.Equal(t, []any{"0.15"}, results)
	})

	t.Run("boolean expression", func(t *testing.T) {
		f, err := CompileFilter(`.met and .destination.token_state == "missing"`)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, f.Write(&buf, r))
		assert.Equal(t, "true\n", buf.String())
	})

	t.Run("multiple outputs", func(t *testing.T) {
		f, err := CompileFilter(".sender.address, .destination.address")
		require.NoError(t, err)

		results, err := f.Run(r)
		require.NoError(t, err)
		assert.Equal(t, []any{senderKey.String(), destKey.String()}, results)
	})

	t.Run("parse error", func(t *testing.T) {
		_, err := CompileFilter(".sender[")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse jq filter")
	})

	t.Run("runtime error", func(t *testing.T) {
		f, err := CompileFilter(`error("boom")`)
		require.NoError(t, err)

		_, err = f.Run(r)
		require.Error(t, err)
	})
}

func TestNewDocument_RequirementsEcho(t *testing.T) {
	r := newReport(preflight.AccountStatus{TokenState: preflight.TokenMissing}, preflight.AccountStatus{TokenState: preflight.TokenMissing})
	r.Requirements.RequiredToken = decimal.RequireFromString("2")

	doc := NewDocument(r)
	assert.Equal(t, "2", doc.Requirements.RequiredToken)
	assert.Equal(t, config.USDCMainnetMint, doc.Requirements.TokenMint)
}
