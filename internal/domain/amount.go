package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals holds the token decimals used for each chain's ledger amounts
type Decimals struct {
	Default  int32
	PerChain map[Chain]int32
}

// DefaultDecimals returns USDC decimals for every chain
func DefaultDecimals() Decimals {
	return Decimals{Default: USDC_DECIMALS}
}

// For returns the decimals for the chain
func (d Decimals) For(chain Chain) int32 {
	if v, ok := d.PerChain[chain]; ok {
		return v
	}
	if d.Default == 0 {
		return USDC_DECIMALS
	}
	return d.Default
}

// AmountFromBaseUnits converts an on-chain integer amount into a fixed-point decimal
func AmountFromBaseUnits(v *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(v, -decimals)
}

// ParseBaseUnits parses a non-negative base-10 (or 0x-prefixed hex) integer amount.
// Leading zeros are decimal; no other base prefix or digit separator is accepted.
func ParseBaseUnits(s string) (*big.Int, error) {
	digits, base := s, 10
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		digits, base = hex, 16
	} else if hex, ok := strings.CutPrefix(s, "0X"); ok {
		digits, base = hex, 16
	}
	if digits == "" || (base == 16 && strings.ContainsAny(digits[:1], "+-")) {
		return nil, fmt.Errorf("invalid integer amount %q", s)
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer amount %q", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	return v, nil
}

// FormatAmount renders an amount as a base-10 string with exactly `decimals` fractional digits
func FormatAmount(d decimal.Decimal, decimals int32) string {
	return d.StringFixed(decimals)
}

// SmallestUnit returns one unit of the smallest denomination (10^-decimals)
func SmallestUnit(decimals int32) decimal.Decimal {
	return decimal.New(1, -decimals)
}
