package preflight

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToUnits converts an amount in smallest units to display units, exactly.
func ToUnits(raw uint64, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -decimals)
}

// FormatUnits renders raw smallest units as display units with a fixed
// number of decimal places, e.g. 150000 @ 6 decimals, 2 places -> "0.15".
func FormatUnits(raw uint64, decimals, places int32) string {
	return ToUnits(raw, decimals).StringFixed(places)
}
