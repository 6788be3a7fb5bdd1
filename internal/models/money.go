package models

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ProgressPercent returns round(progress/target*100), rounding halves to even.
// A non-positive target yields 0.
func ProgressPercent(progress, target int64) int64 {
	if target <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(progress).Mul(hundred).Div(decimal.NewFromInt(target))
	return pct.RoundBank(0).IntPart()
}

// FormatAmount renders an amount in smallest currency units with dot grouping,
// e.g. 120000 -> "$120.000".
func FormatAmount(amount int64) string {
	if amount < 0 {
		return "-$" + strings.ReplaceAll(humanize.Comma(-amount), ",", ".")
	}
	return "$" + strings.ReplaceAll(humanize.Comma(amount), ",", ".")
}
