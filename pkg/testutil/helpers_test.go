package testutil

import (
	"testing"

	"github.com/iwvelando/refinance-forecast/pkg/optimization"
)

func TestReferenceConfig(t *testing.T) {
	conf := ReferenceConfig()

	if err := conf.Validate(); err != nil {
		t.Fatalf("reference config failed validation: %v", err)
	}
	if warnings := conf.ValidateConfiguration(); len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if got := conf.RefinanceClosingCostPercent(); got != 2 {
		t.Errorf("refinance closing cost percent = %v, expected 2", got)
	}

	// Each call returns an independent copy.
	conf.Refinance.Month = 1
	if ReferenceConfig().Refinance.Month != 24 {
		t.Error("ReferenceConfig() shares state between calls")
	}
}

func TestFindSummary(t *testing.T) {
	summaries := []optimization.Summary{
		{Target: optimization.TargetBestMonth, Value: 1},
		{Target: optimization.TargetBreakEvenMonth, Value: 3},
	}

	tests := []struct {
		name          string
		target        string
		expectFound   bool
		expectedValue float64
	}{
		{"Find best month", optimization.TargetBestMonth, true, 1},
		{"Find break-even month", optimization.TargetBreakEvenMonth, true, 3},
		{"Missing target", optimization.TargetBreakEvenRate, false, 0},
		{"Empty target", "", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindSummary(summaries, tt.target)
			if !tt.expectFound {
				if result != nil {
					t.Errorf("FindSummary() = %+v, expected nil", result)
				}
				return
			}
			if result == nil {
				t.Fatalf("FindSummary() returned nil for %q", tt.target)
			}
			if result.Value != tt.expectedValue {
				t.Errorf("FindSummary() value = %v, expected %v", result.Value, tt.expectedValue)
			}
		})
	}

	if FindSummary(nil, optimization.TargetBestMonth) != nil {
		t.Error("FindSummary() on nil slice should return nil")
	}
}

func TestFindSummaryReturnsElementPointer(t *testing.T) {
	summaries := []optimization.Summary{{Target: optimization.TargetBestMonth}}

	FindSummary(summaries, optimization.TargetBestMonth).Value = 42
	if summaries[0].Value != 42 {
		t.Error("FindSummary() should return a pointer into the slice")
	}
}

func TestAssertClose(t *testing.T) {
	AssertClose(t, "exact", 1.5, 1.5, 0)
	AssertClose(t, "within tolerance", 100.004, 100, 0.01)
}
