package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/brojonat/preflight/service/preflight"
)

// Document is the machine-readable form of a report. It is also the
// payload published to NATS and the input to jq filters.
type Document struct {
	CheckedAt    time.Time         `json:"checked_at"`
	Sender       AccountDocument   `json:"sender"`
	Destination  AccountDocument   `json:"destination"`
	Requirements RequirementsDoc   `json:"requirements"`
	Verdict      preflight.Verdict `json:"verdict"`
	Met          bool              `json:"met"`
}

// AccountDocument describes one account.
type AccountDocument struct {
	Address        string  `json:"address"`
	NativeLamports uint64  `json:"native_lamports"`
	Native         string  `json:"native"`
	TokenAccount   string  `json:"token_account"`
	TokenState     string  `json:"token_state"`
	TokenAmount    *uint64 `json:"token_amount,omitempty"`
	Token          string  `json:"token,omitempty"`
	Error          string  `json:"error,omitempty"`
	MintMismatch   bool    `json:"mint_mismatch,omitempty"`
}

// RequirementsDoc echoes the thresholds the report was evaluated against.
type RequirementsDoc struct {
	TokenSymbol    string `json:"token_symbol"`
	TokenMint      string `json:"token_mint"`
	TokenDecimals  int32  `json:"token_decimals"`
	NativeSymbol   string `json:"native_symbol"`
	RequiredToken  string `json:"required_token"`
	RequiredNative string `json:"required_native"`
}

// NewDocument converts a report into its JSON document.
func NewDocument(r *preflight.Report) Document {
	req := r.Requirements
	return Document{
		CheckedAt:   r.CheckedAt,
		Sender:      newAccountDocument(r.Sender, r),
		Destination: newAccountDocument(r.Destination, r),
		Requirements: RequirementsDoc{
			TokenSymbol:    req.TokenSymbol,
			TokenMint:      req.TokenMint,
			TokenDecimals:  req.TokenDecimals,
			NativeSymbol:   req.NativeSymbol,
			RequiredToken:  req.RequiredToken.String(),
			RequiredNative: req.RequiredNative.String(),
		},
		Verdict: r.Verdict,
		Met:     r.Verdict.Met(),
	}
}

func newAccountDocument(acct preflight.AccountStatus, r *preflight.Report) AccountDocument {
	req := r.Requirements
	doc := AccountDocument{
		Address:        acct.Owner.String(),
		NativeLamports: acct.NativeLamports,
		Native:         preflight.ToUnits(acct.NativeLamports, req.NativeDecimals).String(),
		TokenAccount:   acct.TokenAccount.String(),
		TokenState:     string(acct.TokenState),
		MintMismatch:   acct.MintMismatch,
	}
	switch acct.TokenState {
	case preflight.TokenFound:
		amount := acct.TokenAmount
		doc.TokenAmount = &amount
		doc.Token = preflight.ToUnits(amount, req.TokenDecimals).String()
	case preflight.TokenError:
		if acct.TokenErr != nil {
			doc.Error = acct.TokenErr.Error()
		}
	}
	return doc
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, r *preflight.Report) error {
	data, err := json.MarshalIndent(NewDocument(r), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
