package preflight

import (
	"github.com/brojonat/preflight/service/config"
	"github.com/shopspring/decimal"
)

// Display precision used in reports.
const (
	TokenPlaces  int32 = 2
	NativePlaces int32 = 4
)

// VerdictKind classifies the outcome of a requirements check.
type VerdictKind string

const (
	VerdictMet            VerdictKind = "met"
	VerdictNotMet         VerdictKind = "not_met"
	VerdictAccountMissing VerdictKind = "account_missing"
	VerdictUnverified     VerdictKind = "unverified"
)

// Deficit is one unmet requirement.
type Deficit struct {
	Symbol   string          `json:"symbol"`
	Required decimal.Decimal `json:"required"`
	Have     decimal.Decimal `json:"have"`
	Places   int32           `json:"-"`
}

// Verdict is the result of comparing the sender's balances with the
// requirements. Deficits is only populated for VerdictNotMet, token first.
type Verdict struct {
	Kind     VerdictKind `json:"kind"`
	Deficits []Deficit   `json:"deficits,omitempty"`
}

// Met reports whether the demo can run.
func (v Verdict) Met() bool {
	return v.Kind == VerdictMet
}

// Evaluate decides the verdict for the sender. A missing token account
// yields creation guidance whatever the native balance is; a failed lookup
// yields VerdictUnverified.
func Evaluate(sender AccountStatus, req config.Requirements) Verdict {
	switch sender.TokenState {
	case TokenMissing:
		return Verdict{Kind: VerdictAccountMissing}
	case TokenError:
		return Verdict{Kind: VerdictUnverified}
	}

	return CompareBalances(
		ToUnits(sender.TokenAmount, req.TokenDecimals),
		ToUnits(sender.NativeLamports, req.NativeDecimals),
		req,
	)
}

// CompareBalances compares display-unit balances with the thresholds.
// Balances equal to a threshold meet it.
func CompareBalances(token, native decimal.Decimal, req config.Requirements) Verdict {
	var deficits []Deficit
	if token.LessThan(req.RequiredToken) {
		deficits = append(deficits, Deficit{
			Symbol:   req.TokenSymbol,
			Required: req.RequiredToken,
			Have:     token,
			Places:   TokenPlaces,
		})
	}
	if native.LessThan(req.RequiredNative) {
		deficits = append(deficits, Deficit{
			Symbol:   req.NativeSymbol,
			Required: req.RequiredNative,
			Have:     native,
			Places:   NativePlaces,
		})
	}

	if len(deficits) == 0 {
		return Verdict{Kind: VerdictMet}
	}
	return Verdict{Kind: VerdictNotMet, Deficits: deficits}
}
