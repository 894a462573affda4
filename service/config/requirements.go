package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Well-known defaults for the gasless transfer demo.
const (
	USDCMainnetMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	SPLTokenProgram       = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	USDCDecimals    int32 = 6
	SOLDecimals     int32 = 9
)

// Requirements describes the token being checked and the balances the
// sender must hold before the demo can run. Amounts are in display units.
type Requirements struct {
	TokenSymbol   string
	TokenMint     string
	TokenProgram  string
	TokenDecimals int32

	NativeSymbol   string
	NativeDecimals int32

	RequiredToken  decimal.Decimal
	RequiredNative decimal.Decimal

	// Transfer plan shown in the report
	TransferAmount decimal.Decimal
	FeeEstimateMin decimal.Decimal
	FeeEstimateMax decimal.Decimal
}

// DefaultRequirements returns the USDC-on-mainnet demo requirements:
// 0.15 USDC (0.1 transfer plus up to 0.05 fee) and 0.01 SOL.
func DefaultRequirements() Requirements {
	return Requirements{
		TokenSymbol:    "USDC",
		TokenMint:      USDCMainnetMint,
		TokenProgram:   SPLTokenProgram,
		TokenDecimals:  USDCDecimals,
		NativeSymbol:   "SOL",
		NativeDecimals: SOLDecimals,
		RequiredToken:  decimal.RequireFromString("0.15"),
		RequiredNative: decimal.RequireFromString("0.01"),
		TransferAmount: decimal.RequireFromString("0.1"),
		FeeEstimateMin: decimal.RequireFromString("0.01"),
		FeeEstimateMax: decimal.RequireFromString("0.05"),
	}
}

// profileFile is the YAML shape of a requirements profile. Amounts are
// strings so they parse exactly.
type profileFile struct {
	Token struct {
		Symbol   string `yaml:"symbol"`
		Mint     string `yaml:"mint"`
		Program  string `yaml:"program"`
		Decimals *int32 `yaml:"decimals"`
	} `yaml:"token"`
	Native struct {
		Symbol   string `yaml:"symbol"`
		Decimals *int32 `yaml:"decimals"`
	} `yaml:"native"`
	Required struct {
		Token  string `yaml:"token"`
		Native string `yaml:"native"`
	} `yaml:"required"`
	Transfer struct {
		Amount string `yaml:"amount"`
		FeeMin string `yaml:"fee_min"`
		FeeMax string `yaml:"fee_max"`
	} `yaml:"transfer"`
}

// LoadRequirements reads a YAML profile. Fields left out of the file keep
// their DefaultRequirements value. An empty path returns the defaults.
func LoadRequirements(path string) (Requirements, error) {
	req := DefaultRequirements()
	if path == "" {
		return req, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read profile: %w", err)
	}
	return ParseRequirements(data)
}

// ParseRequirements applies a YAML profile on top of DefaultRequirements.
func ParseRequirements(data []byte) (Requirements, error) {
	req := DefaultRequirements()

	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return req, fmt.Errorf("failed to parse profile: %w", err)
	}

	setString(&req.TokenSymbol, pf.Token.Symbol)
	setString(&req.TokenMint, pf.Token.Mint)
	setString(&req.TokenProgram, pf.Token.Program)
	if pf.Token.Decimals != nil {
		req.TokenDecimals = *pf.Token.Decimals
	}
	setString(&req.NativeSymbol, pf.Native.Symbol)
	if pf.Native.Decimals != nil {
		req.NativeDecimals = *pf.Native.Decimals
	}

	amounts := []struct {
		name  string
		value string
		dst   *decimal.Decimal
	}{
		{"required.token", pf.Required.Token, &req.RequiredToken},
		{"required.native", pf.Required.Native, &req.RequiredNative},
		{"transfer.amount", pf.Transfer.Amount, &req.TransferAmount},
		{"transfer.fee_min", pf.Transfer.FeeMin, &req.FeeEstimateMin},
		{"transfer.fee_max", pf.Transfer.FeeMax, &req.FeeEstimateMax},
	}
	for _, a := range amounts {
		if a.value == "" {
			continue
		}
		d, err := decimal.NewFromString(a.value)
		if err != nil {
			return req, fmt.Errorf("%s: invalid amount %q: %w", a.name, a.value, err)
		}
		*a.dst = d
	}

	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

// Validate checks that the requirements are usable.
func (r Requirements) Validate() error {
	var errs []error

	if r.TokenMint == "" {
		errs = append(errs, fmt.Errorf("TokenMint is required"))
	}
	if r.TokenProgram == "" {
		errs = append(errs, fmt.Errorf("TokenProgram is required"))
	}
	if r.TokenDecimals < 0 || r.TokenDecimals > 19 {
		errs = append(errs, fmt.Errorf("TokenDecimals must be between 0 and 19"))
	}
	if r.NativeDecimals < 0 || r.NativeDecimals > 19 {
		errs = append(errs, fmt.Errorf("NativeDecimals must be between 0 and 19"))
	}
	if r.RequiredToken.IsNegative() {
		errs = append(errs, fmt.Errorf("RequiredToken cannot be negative"))
	}
	if r.RequiredNative.IsNegative() {
		errs = append(errs, fmt.Errorf("RequiredNative cannot be negative"))
	}
	if r.FeeEstimateMin.GreaterThan(r.FeeEstimateMax) {
		errs = append(errs, fmt.Errorf("FeeEstimateMin cannot be greater than FeeEstimateMax"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("requirements validation failed: %v", errs)
	}
	return nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
