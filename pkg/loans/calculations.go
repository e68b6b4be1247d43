// Package loans provides the amortization and refinance cost engine.
package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/refinance-forecast/pkg/constants"
	"github.com/iwvelando/refinance-forecast/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvalidInput is returned when a principal, rate, term or month is out of
// domain. It is always wrapped with context; use errors.Is to detect it.
var ErrInvalidInput = errors.New("invalid input")

// LoanTerms holds the contract terms of one fixed-rate loan.
type LoanTerms struct {
	Principal         float64 `json:"principal"`
	AnnualRatePercent float64 `json:"annualRatePercent"`
	TermYears         int     `json:"termYears"`
}

// AmortizationEntry holds the values for a given month of a schedule.
type AmortizationEntry struct {
	Month            int     `json:"month"`
	Interest         float64 `json:"interest"`
	Principal        float64 `json:"principal"`
	RemainingBalance float64 `json:"remainingBalance"`
	TotalPayment     float64 `json:"totalPayment"`
}

// Months returns the number of scheduled payments.
func (t LoanTerms) Months() int {
	return t.TermYears * constants.MonthsPerYear
}

// Validate checks that the terms describe a computable loan.
func (t LoanTerms) Validate() error {
	return validateTerms(t.Principal, t.AnnualRatePercent, t.TermYears)
}

func validateTerms(principal, annualRatePercent float64, years int) error {
	if !mathutil.IsFinite(principal) || principal < 0 {
		return fmt.Errorf("%w: principal must be a non-negative amount, got %v", ErrInvalidInput, principal)
	}
	if !mathutil.IsFinite(annualRatePercent) || annualRatePercent < 0 {
		return fmt.Errorf("%w: interest rate must be a non-negative percentage, got %v", ErrInvalidInput, annualRatePercent)
	}
	if years <= 0 {
		return fmt.Errorf("%w: term must be a positive number of years, got %d", ErrInvalidInput, years)
	}
	return nil
}

// MonthlyPayment calculates the fixed monthly payment of a loan using the
// standard amortization formula.
func MonthlyPayment(principal, annualRatePercent float64, years int) (float64, error) {
	if err := validateTerms(principal, annualRatePercent, years); err != nil {
		return 0, err
	}

	n := float64(years * constants.MonthsPerYear)
	r := mathutil.MonthlyRate(annualRatePercent)
	if r == 0 {
		// The closed form is 0/0 at r = 0.
		return principal / n, nil
	}

	// Discounting form; (1+r)^n overflows for large rates but (1+r)^-n only
	// underflows toward zero.
	payment := principal * r / (1 - math.Pow(1+r, -n))
	if !mathutil.IsFinite(payment) {
		return 0, fmt.Errorf("%w: monthly payment overflows for principal %v at %v%%", ErrInvalidInput, principal, annualRatePercent)
	}
	return payment, nil
}

// CalculateInterestPayment calculates the interest accrued on a balance over one month.
func CalculateInterestPayment(balance, annualRatePercent float64) float64 {
	return balance * mathutil.MonthlyRate(annualRatePercent)
}

// TotalPayments sums the payments of a schedule.
func TotalPayments(schedule []AmortizationEntry) float64 {
	total := 0.0
	for _, entry := range schedule {
		total += entry.TotalPayment
	}
	return total
}

// TotalInterest sums the interest portions of a schedule.
func TotalInterest(schedule []AmortizationEntry) float64 {
	total := 0.0
	for _, entry := range schedule {
		total += entry.Interest
	}
	return total
}

// OriginationClosingCosts returns the one-time closing costs of taking out the
// original loan. They are based on the purchase price, not the principal.
func OriginationClosingCosts(homePrice, closingCostPercent float64) (float64, error) {
	if !mathutil.IsFinite(homePrice) || homePrice < 0 {
		return 0, fmt.Errorf("%w: home price must be a non-negative amount, got %v", ErrInvalidInput, homePrice)
	}
	if !mathutil.IsFinite(closingCostPercent) || closingCostPercent < 0 {
		return 0, fmt.Errorf("%w: closing cost percent must be non-negative, got %v", ErrInvalidInput, closingCostPercent)
	}
	return mathutil.ApplyPercentage(homePrice, closingCostPercent), nil
}

// Engine evaluates schedules and refinance scenarios. It holds no state
// between calls and is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a new engine instance.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// GenerateSchedule creates the month-by-month amortization schedule of a loan.
// The schedule ends with the first entry whose balance reaches zero, or after
// TermYears*12 entries.
func (e *Engine) GenerateSchedule(terms LoanTerms) ([]AmortizationEntry, error) {
	payment, err := MonthlyPayment(terms.Principal, terms.AnnualRatePercent, terms.TermYears)
	if err != nil {
		return nil, err
	}

	months := terms.Months()
	schedule := make([]AmortizationEntry, 0, months)
	balance := terms.Principal

	for month := 1; month <= months; month++ {
		interest := CalculateInterestPayment(balance, terms.AnnualRatePercent)
		principal := payment - interest
		balance = math.Max(0, balance-principal)
		if mathutil.Round(balance) == 0 {
			// We will get machine error otherwise so just set to 0.
			balance = 0
		}

		schedule = append(schedule, AmortizationEntry{
			Month:            month,
			Interest:         interest,
			Principal:        principal,
			RemainingBalance: balance,
			TotalPayment:     principal + interest,
		})

		if balance <= 0 {
			break
		}
	}

	e.logger.Debug(fmt.Sprintf("generated %d month schedule for %.2f at %.3f%% over %d years",
		len(schedule), terms.Principal, terms.AnnualRatePercent, terms.TermYears),
		zap.String("op", "loans.GenerateSchedule"),
		zap.Float64("monthlyPayment", payment),
	)

	return schedule, nil
}
