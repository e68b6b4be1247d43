package loans

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/iwvelando/refinance-forecast/pkg/constants"
	"github.com/iwvelando/refinance-forecast/pkg/mathutil"
	"go.uber.org/zap"
)

// RefinanceScenario describes replacing the remaining balance of the original
// loan with a new loan at RefinanceAtMonth.
type RefinanceScenario struct {
	Original             LoanTerms `json:"original"`
	RefinanceRatePercent float64   `json:"refinanceRatePercent"`
	RefinanceAtMonth     int       `json:"refinanceAtMonth"`
	ClosingCostPercent   float64   `json:"closingCostPercent"`
	// OriginationClosingCosts is what was paid when the original loan was
	// taken out; see OriginationClosingCosts.
	OriginationClosingCosts float64 `json:"originationClosingCosts"`
}

// Outcome is the total cost of a refinance policy. An infeasible outcome
// (the original loan is already paid off at the refinance month) is worse
// than every feasible one.
type Outcome struct {
	Cost     float64 `json:"cost"`
	Feasible bool    `json:"feasible"`
}

// FeasibleCost wraps a computed cost.
func FeasibleCost(cost float64) Outcome {
	return Outcome{Cost: cost, Feasible: true}
}

// Infeasible is the outcome of refinancing a loan that no longer exists.
var Infeasible = Outcome{}

// Value returns the cost, or +Inf when the outcome is infeasible.
func (o Outcome) Value() float64 {
	if !o.Feasible {
		return math.Inf(1)
	}
	return o.Cost
}

// Less reports whether o is strictly cheaper than other.
func (o Outcome) Less(other Outcome) bool {
	return o.Value() < other.Value()
}

// RefinanceBreakdown holds the intermediate values of a refinance evaluation.
// Only Month and Total are set when the outcome is infeasible.
type RefinanceBreakdown struct {
	Month               int     `json:"month"`
	CostBeforeRefinance float64 `json:"costBeforeRefinance"`
	RemainingBalance    float64 `json:"remainingBalance"`
	ClosingCosts        float64 `json:"closingCosts"`
	RemainingYears      int     `json:"remainingYears"`
	NewMonthlyPayment   float64 `json:"newMonthlyPayment"`
	CostAfterRefinance  float64 `json:"costAfterRefinance"`
	Total               Outcome `json:"total"`
}

// NewTerms returns the terms of the refinanced loan.
func (b RefinanceBreakdown) NewTerms(ratePercent float64) LoanTerms {
	return LoanTerms{
		Principal:         b.RemainingBalance,
		AnnualRatePercent: ratePercent,
		TermYears:         b.RemainingYears,
	}
}

// CostComparison compares keeping the original loan with refinancing.
// NetSavings is positive when refinancing is cheaper and -Inf when the
// refinance is infeasible.
type CostComparison struct {
	TotalCostOriginal      float64
	TotalCostWithRefinance Outcome
	NetSavings             float64
}

// MarshalJSON encodes an infeasible comparison with a null netSavings.
func (c CostComparison) MarshalJSON() ([]byte, error) {
	var savings *float64
	if c.TotalCostWithRefinance.Feasible {
		v := c.NetSavings
		savings = &v
	}
	return json.Marshal(struct {
		TotalCostOriginal      float64  `json:"totalCostOriginal"`
		TotalCostWithRefinance Outcome  `json:"totalCostWithRefinance"`
		NetSavings             *float64 `json:"netSavings"`
	}{c.TotalCostOriginal, c.TotalCostWithRefinance, savings})
}

// SweepPoint is the refinance cost at one candidate month.
type SweepPoint struct {
	Month int     `json:"month"`
	Cost  Outcome `json:"cost"`
}

func (s RefinanceScenario) validate() error {
	if err := s.Original.Validate(); err != nil {
		return err
	}
	if !mathutil.IsFinite(s.RefinanceRatePercent) || s.RefinanceRatePercent < 0 {
		return fmt.Errorf("%w: refinance rate must be a non-negative percentage, got %v", ErrInvalidInput, s.RefinanceRatePercent)
	}
	if s.RefinanceAtMonth < 1 {
		return fmt.Errorf("%w: refinance month must be at least 1, got %d", ErrInvalidInput, s.RefinanceAtMonth)
	}
	if !mathutil.IsFinite(s.ClosingCostPercent) || s.ClosingCostPercent < 0 {
		return fmt.Errorf("%w: closing cost percent must be non-negative, got %v", ErrInvalidInput, s.ClosingCostPercent)
	}
	if !mathutil.IsFinite(s.OriginationClosingCosts) || s.OriginationClosingCosts < 0 {
		return fmt.Errorf("%w: origination closing costs must be non-negative, got %v", ErrInvalidInput, s.OriginationClosingCosts)
	}
	return nil
}

// EvaluateRefinance computes the total cost of paying the original loan up
// to the month before RefinanceAtMonth and then refinancing the balance.
func (e *Engine) EvaluateRefinance(scenario RefinanceScenario) (RefinanceBreakdown, error) {
	if err := scenario.validate(); err != nil {
		return RefinanceBreakdown{}, err
	}

	original, err := e.GenerateSchedule(scenario.Original)
	if err != nil {
		return RefinanceBreakdown{}, err
	}
	return e.evaluateAgainst(original, scenario)
}

// evaluateAgainst expects a validated scenario and its original schedule.
func (e *Engine) evaluateAgainst(original []AmortizationEntry, scenario RefinanceScenario) (RefinanceBreakdown, error) {
	month := scenario.RefinanceAtMonth
	breakdown := RefinanceBreakdown{Month: month, Total: Infeasible}

	if month > len(original) {
		e.logger.Debug(fmt.Sprintf("refinance at month %d is past payoff at month %d", month, len(original)),
			zap.String("op", "loans.EvaluateRefinance"),
		)
		return breakdown, nil
	}

	// Entries before the refinance month are paid on the original loan.
	paid := original[:month-1]
	breakdown.CostBeforeRefinance = TotalPayments(paid)
	breakdown.RemainingBalance = scenario.Original.Principal
	if len(paid) > 0 {
		breakdown.RemainingBalance = paid[len(paid)-1].RemainingBalance
	}
	breakdown.ClosingCosts = mathutil.ApplyPercentage(breakdown.RemainingBalance, scenario.ClosingCostPercent)

	elapsedYears := (month - 1) / constants.MonthsPerYear
	breakdown.RemainingYears = scenario.Original.TermYears - elapsedYears
	if breakdown.RemainingYears < 1 {
		breakdown.RemainingYears = 1
	}

	newTerms := breakdown.NewTerms(scenario.RefinanceRatePercent)
	payment, err := MonthlyPayment(newTerms.Principal, newTerms.AnnualRatePercent, newTerms.TermYears)
	if err != nil {
		return RefinanceBreakdown{}, err
	}
	breakdown.NewMonthlyPayment = payment

	refinanced, err := e.GenerateSchedule(newTerms)
	if err != nil {
		return RefinanceBreakdown{}, err
	}
	breakdown.CostAfterRefinance = TotalPayments(refinanced)
	breakdown.Total = FeasibleCost(breakdown.CostBeforeRefinance + breakdown.CostAfterRefinance + breakdown.ClosingCosts)

	return breakdown, nil
}

// EvaluateRefinanceCost returns the total cost of the refinance scenario.
func (e *Engine) EvaluateRefinanceCost(scenario RefinanceScenario) (Outcome, error) {
	breakdown, err := e.EvaluateRefinance(scenario)
	if err != nil {
		return Infeasible, err
	}
	return breakdown.Total, nil
}

// Compare evaluates keeping the original loan against refinancing. The
// original total includes the origination closing costs.
func (e *Engine) Compare(scenario RefinanceScenario) (CostComparison, error) {
	if err := scenario.validate(); err != nil {
		return CostComparison{}, err
	}

	original, err := e.GenerateSchedule(scenario.Original)
	if err != nil {
		return CostComparison{}, err
	}
	breakdown, err := e.evaluateAgainst(original, scenario)
	if err != nil {
		return CostComparison{}, err
	}

	originalTotal := TotalPayments(original) + scenario.OriginationClosingCosts
	return CostComparison{
		TotalCostOriginal:      originalTotal,
		TotalCostWithRefinance: breakdown.Total,
		NetSavings:             originalTotal - breakdown.Total.Value(),
	}, nil
}

// Sweep evaluates the refinance cost of the scenario template at months
// 1, 1+monthStep, ... up to the shorter of the original schedule and
// monthLimit. RefinanceAtMonth of the template is ignored.
func (e *Engine) Sweep(template RefinanceScenario, monthStep, monthLimit int) ([]SweepPoint, error) {
	if monthStep <= 0 {
		return nil, fmt.Errorf("%w: sweep step must be positive, got %d", ErrInvalidInput, monthStep)
	}
	if monthLimit <= 0 {
		return nil, fmt.Errorf("%w: sweep limit must be positive, got %d", ErrInvalidInput, monthLimit)
	}

	template.RefinanceAtMonth = 1
	if err := template.validate(); err != nil {
		return nil, err
	}

	original, err := e.GenerateSchedule(template.Original)
	if err != nil {
		return nil, err
	}

	last := len(original)
	if monthLimit < last {
		last = monthLimit
	}

	points := make([]SweepPoint, 0, (last-1)/monthStep+1)
	for month := 1; month <= last; month += monthStep {
		scenario := template
		scenario.RefinanceAtMonth = month
		breakdown, err := e.evaluateAgainst(original, scenario)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{Month: month, Cost: breakdown.Total})
	}

	e.logger.Debug(fmt.Sprintf("swept %d refinance months", len(points)),
		zap.String("op", "loans.Sweep"),
		zap.Int("step", monthStep),
		zap.Int("limit", monthLimit),
	)

	return points, nil
}
