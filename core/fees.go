package core

import "github.com/shopspring/decimal"

// octaDecimals is the base-unit precision of the fee coin.
const octaDecimals = 8

// FeeOcta computes the fee in base units for the gas a transaction consumed.
func FeeOcta(gasUsed, gasUnitPrice uint64) decimal.Decimal {
	return decimal.NewFromUint64(gasUsed).Mul(decimal.NewFromUint64(gasUnitPrice))
}

// FeeCoins converts a base-unit fee to whole-coin units for display.
func FeeCoins(octa decimal.Decimal) decimal.Decimal {
	return octa.Shift(-octaDecimals)
}
