package entity

import "github.com/shopspring/decimal"

// FormatAmount renders minor units as a decimal amount in major units, e.g. 1050 -> "10.50"
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}
