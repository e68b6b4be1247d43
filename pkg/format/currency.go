// Package format renders report values for people: currency, rates and
// refinance month labels.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/refinance-forecast/pkg/constants"
	"github.com/shopspring/decimal"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
func Currency(amount float64) string {
	if math.IsInf(amount, 0) || math.IsNaN(amount) {
		return "n/a"
	}
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0.00" {
		return "-$" + formatted
	}
	return "$" + formatted
}

// Cents returns the amount rounded half away from zero to whole cents, without
// separators (e.g., "-1234.56"). It is the machine-readable form used in CSV.
func Cents(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

// Percent renders a rate with up to three decimals (e.g., "6.5%").
func Percent(rate float64) string {
	return decimal.NewFromFloat(rate).Round(3).String() + "%"
}

// MonthLabel renders a month count as years and months (e.g., "24 (2y 0m)").
func MonthLabel(months int) string {
	return fmt.Sprintf("%d (%s)", months, Duration(months))
}

// Duration renders a month count as "Xy Ym".
func Duration(months int) string {
	return fmt.Sprintf("%dy %dm", months/constants.MonthsPerYear, months%constants.MonthsPerYear)
}

func formatPositiveCurrency(value float64) string {
	formatted := Cents(value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
