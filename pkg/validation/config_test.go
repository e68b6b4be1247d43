package validation

import (
	"strings"
	"testing"
)

func TestValidateDownPayment(t *testing.T) {
	tests := []struct {
		name        string
		homePrice   float64
		downPayment float64
		expectWarn  bool
	}{
		{"Typical down payment", 500000, 100000, false},
		{"Paid in full", 500000, 500000, true},
		{"Zero price", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateDownPayment(tt.homePrice, tt.downPayment)
			if (warning != "") != tt.expectWarn {
				t.Errorf("ValidateDownPayment() = %q, expectWarn %v", warning, tt.expectWarn)
			}
		})
	}
}

func TestValidateRefinanceRate(t *testing.T) {
	tests := []struct {
		name          string
		originalRate  float64
		refinanceRate float64
		expectWarn    bool
	}{
		{"Lower rate", 6.5, 5.0, false},
		{"Same rate", 6.5, 6.5, true},
		{"Higher rate", 6.5, 7.25, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateRefinanceRate(tt.originalRate, tt.refinanceRate)
			if (warning != "") != tt.expectWarn {
				t.Errorf("ValidateRefinanceRate() = %q, expectWarn %v", warning, tt.expectWarn)
			}
		})
	}
}

func TestValidateRefinanceMonth(t *testing.T) {
	tests := []struct {
		name       string
		month      int
		termMonths int
		sweepLimit int
		contains   string
	}{
		{"Inside term and sweep", 24, 360, 240, ""},
		{"Last month of term", 360, 360, 360, ""},
		{"After maturity", 361, 360, 240, "after the loan matures at month 360"},
		{"Outside sweep", 300, 360, 240, "outside the sweep range ending at month 240"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning := ValidateRefinanceMonth(tt.month, tt.termMonths, tt.sweepLimit)
			if tt.contains == "" {
				if warning != "" {
					t.Errorf("expected no warning, got %q", warning)
				}
				return
			}
			if !strings.Contains(warning, tt.contains) {
				t.Errorf("ValidateRefinanceMonth() = %q, expected it to contain %q", warning, tt.contains)
			}
		})
	}
}

func TestValidateClosingCost(t *testing.T) {
	if warning := ValidateClosingCost("Mortgage", 2); warning != "" {
		t.Errorf("expected no warning for 2%%, got %q", warning)
	}
	if warning := ValidateClosingCost("Mortgage", 10); warning != "" {
		t.Errorf("expected no warning at the threshold, got %q", warning)
	}
	warning := ValidateClosingCost("Refinance", 12.5)
	if warning != "Refinance closing costs of 12.50% are unusually high" {
		t.Errorf("unexpected warning %q", warning)
	}
}

func TestCollectWarnings(t *testing.T) {
	if warnings := CollectWarnings("", ""); warnings != nil {
		t.Errorf("expected nil, got %v", warnings)
	}
	warnings := CollectWarnings("a", "", "b")
	if len(warnings) != 2 || warnings[0] != "a" || warnings[1] != "b" {
		t.Errorf("unexpected warnings %v", warnings)
	}
}
