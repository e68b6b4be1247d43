// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"
	"testing"

	"github.com/iwvelando/refinance-forecast/internal/config"
	"github.com/iwvelando/refinance-forecast/pkg/optimization"
)

// ReferenceConfig returns the $500,000 purchase with $100,000 down at 6.5%
// over 30 years, refinanced to 5% at month 24 with 2% closing costs.
func ReferenceConfig() *config.Configuration {
	conf := &config.Configuration{
		Mortgage: config.Mortgage{
			HomePrice:          500000,
			DownPayment:        100000,
			InterestRate:       6.5,
			TermYears:          30,
			ClosingCostPercent: 2,
			StartDate:          "2025-01",
		},
		Refinance: config.Refinance{
			InterestRate: 5.0,
			Month:        24,
		},
	}
	conf.ApplyDefaults()
	return conf
}

// FindSummary finds an optimization summary by target.
// Returns a pointer to the summary if found, nil otherwise.
func FindSummary(summaries []optimization.Summary, target string) *optimization.Summary {
	for i := range summaries {
		if summaries[i].Target == target {
			return &summaries[i]
		}
	}
	return nil
}

// AssertClose fails the test when got and want differ by more than tolerance.
func AssertClose(t testing.TB, name string, got, want, tolerance float64) {
	t.Helper()
	if math.IsNaN(got) || math.Abs(got-want) > tolerance {
		t.Errorf("%s = %.6f, expected %.6f (tolerance %g)", name, got, want, tolerance)
	}
}
