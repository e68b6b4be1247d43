// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/refinance-forecast/pkg/constants"
)

// ValidateDownPayment warns when the down payment leaves nothing financed.
func ValidateDownPayment(homePrice, downPayment float64) string {
	if homePrice > 0 && downPayment >= homePrice {
		return fmt.Sprintf("Down payment %.2f covers the home price %.2f - there is no loan to refinance",
			downPayment, homePrice)
	}
	return ""
}

// ValidateRefinanceRate warns when refinancing cannot lower the rate.
func ValidateRefinanceRate(originalRate, refinanceRate float64) string {
	if refinanceRate >= originalRate {
		return fmt.Sprintf("Refinance rate %.3f%% is not below the original rate %.3f%% - refinancing only adds cost",
			refinanceRate, originalRate)
	}
	return ""
}

// ValidateRefinanceMonth checks the refinance month against the loan term and
// the last month of the sweep.
func ValidateRefinanceMonth(month, termMonths, sweepLimit int) string {
	if month > termMonths {
		return fmt.Sprintf("Refinance month %d is after the loan matures at month %d", month, termMonths)
	}
	if month > sweepLimit {
		return fmt.Sprintf("Refinance month %d is outside the sweep range ending at month %d", month, sweepLimit)
	}
	return ""
}

// ValidateClosingCost warns about closing cost percentages above
// constants.HighClosingCostPercent.
func ValidateClosingCost(label string, percent float64) string {
	if percent > constants.HighClosingCostPercent {
		return fmt.Sprintf("%s closing costs of %.2f%% are unusually high", label, percent)
	}
	return ""
}

// CollectWarnings drops empty results of the validators above.
func CollectWarnings(results ...string) []string {
	var warnings []string
	for _, result := range results {
		if result != "" {
			warnings = append(warnings, result)
		}
	}
	return warnings
}
