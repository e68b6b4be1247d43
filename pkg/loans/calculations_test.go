package loans

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
)

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name              string
		principal         float64
		annualRatePercent float64
		years             int
		expectedRange     []float64 // [min, max] expected range
	}{
		{
			name:              "Standard 30-year mortgage",
			principal:         240000,
			annualRatePercent: 6.0,
			years:             30,
			expectedRange:     []float64{1438, 1440}, // Around $1438.92
		},
		{
			name:              "5-year car loan",
			principal:         20000,
			annualRatePercent: 4.0,
			years:             5,
			expectedRange:     []float64{360, 380}, // Around $368
		},
		{
			name:              "Reference refinance scenario",
			principal:         400000,
			annualRatePercent: 6.5,
			years:             30,
			expectedRange:     []float64{2528.27, 2528.28},
		},
		{
			name:              "Zero principal",
			principal:         0,
			annualRatePercent: 5.0,
			years:             5,
			expectedRange:     []float64{0, 0},
		},
		{
			name:              "High interest loan",
			principal:         10000,
			annualRatePercent: 18.0,
			years:             3,
			expectedRange:     []float64{360, 380}, // Around $361.52
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MonthlyPayment(tt.principal, tt.annualRatePercent, tt.years)
			if err != nil {
				t.Fatalf("MonthlyPayment() error = %v", err)
			}

			if result < tt.expectedRange[0] || result > tt.expectedRange[1] {
				t.Errorf("MonthlyPayment() = %.2f, expected range [%.2f, %.2f]",
					result, tt.expectedRange[0], tt.expectedRange[1])
			}
		})
	}
}

func TestMonthlyPaymentZeroRateIsExact(t *testing.T) {
	payment, err := MonthlyPayment(100000, 0, 30)
	if err != nil {
		t.Fatalf("MonthlyPayment() error = %v", err)
	}
	if payment != 100000.0/360.0 {
		t.Errorf("MonthlyPayment(100000, 0, 30) = %v, expected exactly %v", payment, 100000.0/360.0)
	}
}

func TestMonthlyPaymentInvalidInput(t *testing.T) {
	tests := []struct {
		name              string
		principal         float64
		annualRatePercent float64
		years             int
	}{
		{"Negative principal", -1, 5, 30},
		{"Zero term", 100000, 5, 0},
		{"Negative term", 100000, 5, -3},
		{"Negative rate", 100000, -0.5, 30},
		{"NaN principal", math.NaN(), 5, 30},
		{"Infinite rate", 100000, math.Inf(1), 30},
		{"Payment overflows", 1e308, 1e6, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MonthlyPayment(tt.principal, tt.annualRatePercent, tt.years)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestCalculateInterestPayment(t *testing.T) {
	tests := []struct {
		name              string
		balance           float64
		annualRatePercent float64
		expected          float64
	}{
		{"Standard mortgage interest", 200000, 6.0, 1000.0},
		{"Car loan interest", 15000, 4.5, 56.25},
		{"Zero interest", 10000, 0.0, 0.0},
		{"High interest", 5000, 24.0, 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateInterestPayment(tt.balance, tt.annualRatePercent)
			if math.Abs(result-tt.expected) > 0.01 {
				t.Errorf("CalculateInterestPayment() = %.2f, expected %.2f", result, tt.expected)
			}
		})
	}
}

func TestGenerateScheduleInvariants(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	tests := []struct {
		name  string
		terms LoanTerms
	}{
		{"30-year mortgage", LoanTerms{Principal: 400000, AnnualRatePercent: 6.5, TermYears: 30}},
		{"15-year mortgage", LoanTerms{Principal: 250000, AnnualRatePercent: 5.25, TermYears: 15}},
		{"Zero rate", LoanTerms{Principal: 100000, AnnualRatePercent: 0, TermYears: 30}},
		{"One year loan", LoanTerms{Principal: 200000, AnnualRatePercent: 5, TermYears: 1}},
		{"High rate", LoanTerms{Principal: 50000, AnnualRatePercent: 24, TermYears: 10}},
		{"Tiny loan", LoanTerms{Principal: 1, AnnualRatePercent: 3, TermYears: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedule, err := engine.GenerateSchedule(tt.terms)
			if err != nil {
				t.Fatalf("GenerateSchedule() error = %v", err)
			}
			if len(schedule) == 0 || len(schedule) > tt.terms.Months() {
				t.Fatalf("schedule length %d outside (0, %d]", len(schedule), tt.terms.Months())
			}

			principalPaid := 0.0
			previousBalance := tt.terms.Principal
			for i, entry := range schedule {
				if entry.Month != i+1 {
					t.Fatalf("entry %d has month %d", i, entry.Month)
				}
				if entry.RemainingBalance > previousBalance {
					t.Errorf("month %d balance %.2f increased from %.2f", entry.Month, entry.RemainingBalance, previousBalance)
				}
				if entry.RemainingBalance < 0 {
					t.Errorf("month %d has negative balance %.2f", entry.Month, entry.RemainingBalance)
				}
				if math.Abs(entry.Principal+entry.Interest-entry.TotalPayment) > 1e-9 {
					t.Errorf("month %d payment components do not add up", entry.Month)
				}
				principalPaid += entry.Principal
				previousBalance = entry.RemainingBalance
			}

			if math.Abs(principalPaid-tt.terms.Principal) > 0.01 {
				t.Errorf("principal paid %.4f, expected %.2f", principalPaid, tt.terms.Principal)
			}
			if last := schedule[len(schedule)-1]; last.RemainingBalance != 0 {
				t.Errorf("final balance = %v, expected exactly 0", last.RemainingBalance)
			}
			for _, entry := range schedule[:len(schedule)-1] {
				if entry.RemainingBalance == 0 {
					t.Errorf("schedule continued past payoff at month %d", entry.Month)
				}
			}
		})
	}
}

func TestGenerateScheduleZeroRate(t *testing.T) {
	engine := NewEngine(nil)

	schedule, err := engine.GenerateSchedule(LoanTerms{Principal: 100000, AnnualRatePercent: 0, TermYears: 30})
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	if len(schedule) != 360 {
		t.Fatalf("expected 360 entries, got %d", len(schedule))
	}
	for _, entry := range schedule {
		if entry.Interest != 0 {
			t.Fatalf("month %d accrued interest %v on a zero rate loan", entry.Month, entry.Interest)
		}
	}
	if math.Abs(TotalPayments(schedule)-100000) > 0.01 {
		t.Errorf("total payments %.4f, expected 100000", TotalPayments(schedule))
	}
}

func TestGenerateScheduleExtremeRate(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	// At 10000% the payment barely exceeds the interest, so the balance
	// stays at the principal for the whole term.
	payment, err := MonthlyPayment(100000, 10000, 30)
	if err != nil {
		t.Fatalf("MonthlyPayment() error = %v", err)
	}
	if math.Abs(payment-100000*10000.0/1200) > 1e-6 {
		t.Errorf("payment = %.6f, expected the monthly interest %.6f", payment, 100000*10000.0/1200)
	}

	schedule, err := engine.GenerateSchedule(LoanTerms{Principal: 100000, AnnualRatePercent: 10000, TermYears: 30})
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	if len(schedule) != 360 {
		t.Fatalf("expected 360 entries, got %d", len(schedule))
	}
	for _, entry := range schedule {
		for _, v := range []float64{entry.Interest, entry.Principal, entry.RemainingBalance, entry.TotalPayment} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("month %d has a non-finite value: %+v", entry.Month, entry)
			}
		}
	}
	if _, err := json.Marshal(schedule); err != nil {
		t.Errorf("json.Marshal() error = %v", err)
	}
}

func TestGenerateScheduleZeroPrincipal(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	schedule, err := engine.GenerateSchedule(LoanTerms{Principal: 0, AnnualRatePercent: 5, TermYears: 30})
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}
	if len(schedule) != 1 {
		t.Fatalf("expected a single settled entry, got %d", len(schedule))
	}
	if schedule[0].RemainingBalance != 0 || schedule[0].TotalPayment != 0 {
		t.Errorf("unexpected entry for a zero principal loan: %+v", schedule[0])
	}
}

func TestGenerateScheduleInvalidInput(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	schedule, err := engine.GenerateSchedule(LoanTerms{Principal: 100000, AnnualRatePercent: 5, TermYears: 0})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if schedule != nil {
		t.Errorf("expected no partial schedule, got %d entries", len(schedule))
	}
}

func TestScheduleTotals(t *testing.T) {
	engine := NewEngine(zap.NewNop())

	schedule, err := engine.GenerateSchedule(LoanTerms{Principal: 400000, AnnualRatePercent: 6.5, TermYears: 30})
	if err != nil {
		t.Fatalf("GenerateSchedule() error = %v", err)
	}

	total := TotalPayments(schedule)
	if math.Abs(total-910177.9538298656) > 0.01 {
		t.Errorf("TotalPayments() = %.4f, expected 910177.9538", total)
	}
	if interest := TotalInterest(schedule); math.Abs(interest-(total-400000)) > 0.01 {
		t.Errorf("TotalInterest() = %.4f, expected %.4f", interest, total-400000)
	}
}

func TestOriginationClosingCosts(t *testing.T) {
	costs, err := OriginationClosingCosts(500000, 2)
	if err != nil {
		t.Fatalf("OriginationClosingCosts() error = %v", err)
	}
	if math.Abs(costs-10000) > 1e-9 {
		t.Errorf("OriginationClosingCosts() = %v, expected 10000", costs)
	}

	if _, err := OriginationClosingCosts(-1, 2); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative home price, got %v", err)
	}
	if _, err := OriginationClosingCosts(500000, -2); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative percent, got %v", err)
	}
}
