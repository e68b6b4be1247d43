package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/refinance-forecast/pkg/format"
	"github.com/iwvelando/refinance-forecast/pkg/loans"
	"github.com/iwvelando/refinance-forecast/pkg/mathutil"
	"github.com/iwvelando/refinance-forecast/pkg/optimization"
	"go.uber.org/zap"
)

const (
	rateTolerance     = 1e-6
	maxRateIterations = 100
)

// Runner searches refinance timing and rates for a scenario.
type Runner struct {
	logger   *zap.Logger
	engine   *loans.Engine
	scenario loans.RefinanceScenario
	original []loans.AmortizationEntry
	baseline float64
}

// Result summarizes the optimizer searches.
type Result struct {
	BestMonth      optimization.Summary
	BreakEvenMonth optimization.Summary
	BreakEvenRate  optimization.Summary
}

// Summaries returns the searches in display order.
func (r Result) Summaries() []optimization.Summary {
	return []optimization.Summary{r.BestMonth, r.BreakEvenMonth, r.BreakEvenRate}
}

// NewRunner constructs a Runner for the provided scenario.
func NewRunner(logger *zap.Logger, scenario loans.RefinanceScenario) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := loans.NewEngine(logger)
	original, err := engine.GenerateSchedule(scenario.Original)
	if err != nil {
		return nil, fmt.Errorf("optimizer baseline schedule failed: %w", err)
	}

	return &Runner{
		logger:   logger,
		engine:   engine,
		scenario: scenario,
		original: original,
		baseline: loans.TotalPayments(original),
	}, nil
}

// Baseline returns the total payments of the original loan that savings are
// measured against.
func (r *Runner) Baseline() float64 {
	return r.baseline
}

// Run executes all searches over refinance months 1..monthLimit.
func (r *Runner) Run(monthLimit int) (*Result, error) {
	points, err := r.engine.Sweep(r.scenario, 1, monthLimit)
	if err != nil {
		return nil, err
	}

	result := &Result{
		BestMonth:      r.bestMonth(points),
		BreakEvenMonth: r.breakEvenMonth(points),
	}

	result.BreakEvenRate, err = r.breakEvenRate()
	if err != nil {
		return nil, err
	}

	for _, summary := range result.Summaries() {
		r.logger.Info("optimizer search finished",
			zap.String("op", "optimizer.Run"),
			zap.String("target", summary.Target),
			zap.Float64("original", summary.Original),
			zap.String("value", summary.ValueDisplay),
			zap.Float64("savings", summary.Savings),
			zap.Int("iterations", summary.Iterations),
			zap.Bool("converged", summary.Converged),
		)
	}

	return result, nil
}

func (r *Runner) monthSummary(target string) optimization.Summary {
	return optimization.Summary{
		Target:          target,
		Original:        float64(r.scenario.RefinanceAtMonth),
		OriginalDisplay: format.MonthLabel(r.scenario.RefinanceAtMonth),
	}
}

// bestMonth picks the cheapest month; ties go to the earliest.
func (r *Runner) bestMonth(points []loans.SweepPoint) optimization.Summary {
	summary := r.monthSummary(optimization.TargetBestMonth)
	summary.Iterations = len(points)

	best := -1
	for i, point := range points {
		if !point.Cost.Feasible {
			continue
		}
		if best < 0 || point.Cost.Less(points[best].Cost) {
			best = i
		}
	}
	if best < 0 {
		summary.Notes = []string{"no refinance month is feasible"}
		return summary
	}

	point := points[best]
	summary.Value = float64(point.Month)
	summary.ValueDisplay = format.MonthLabel(point.Month)
	summary.Cost = point.Cost.Cost
	summary.Savings = r.baseline - point.Cost.Cost
	summary.Converged = true
	if summary.Savings <= 0 || mathutil.IsZero(summary.Savings) {
		summary.Notes = []string{"refinancing never costs less than keeping the original loan"}
	}
	return summary
}

func (r *Runner) breakEvenMonth(points []loans.SweepPoint) optimization.Summary {
	summary := r.monthSummary(optimization.TargetBreakEvenMonth)

	for i, point := range points {
		summary.Iterations = i + 1
		if !point.Cost.Feasible {
			continue
		}
		// Savings under a cent are float noise, not a break-even.
		if savings := r.baseline - point.Cost.Cost; savings > 0 && !mathutil.IsZero(savings) {
			summary.Value = float64(point.Month)
			summary.ValueDisplay = format.MonthLabel(point.Month)
			summary.Cost = point.Cost.Cost
			summary.Savings = savings
			summary.Converged = true
			return summary
		}
	}

	last := 0
	if len(points) > 0 {
		last = points[len(points)-1].Month
	}
	summary.Notes = []string{fmt.Sprintf("refinancing does not pay off within %d months", last)}
	return summary
}

// breakEvenRate bisects for the refinance rate at which refinancing at the
// configured month costs exactly the original loan's total payments.
func (r *Runner) breakEvenRate() (optimization.Summary, error) {
	summary := optimization.Summary{
		Target:          optimization.TargetBreakEvenRate,
		Original:        r.scenario.RefinanceRatePercent,
		OriginalDisplay: format.Percent(r.scenario.RefinanceRatePercent),
	}

	// savingsAt is decreasing in the rate.
	savingsAt := func(rate float64) (float64, bool, error) {
		scenario := r.scenario
		scenario.RefinanceRatePercent = rate
		cost, err := r.engine.EvaluateRefinanceCost(scenario)
		if err != nil {
			return 0, false, err
		}
		if !cost.Feasible {
			return 0, false, nil
		}
		return r.baseline - cost.Cost, true, nil
	}

	lower := 0.0
	upper := math.Max(2*r.scenario.Original.AnnualRatePercent, 1)

	lowSavings, feasible, err := savingsAt(lower)
	if err != nil {
		return summary, err
	}
	if !feasible {
		summary.Notes = []string{fmt.Sprintf("the loan is paid off before month %d", r.scenario.RefinanceAtMonth)}
		return summary, nil
	}
	if lowSavings < 0 {
		summary.Notes = []string{"refinancing does not pay off even at a 0% rate"}
		return summary, nil
	}
	highSavings, _, err := savingsAt(upper)
	if err != nil {
		return summary, err
	}
	if highSavings > 0 {
		summary.Notes = []string{fmt.Sprintf("refinancing pays off at every rate up to %s", format.Percent(upper))}
		return summary, nil
	}

	for summary.Iterations < maxRateIterations && !mathutil.WithinTolerance(upper, lower, rateTolerance) {
		summary.Iterations++
		mid := (lower + upper) / 2
		savings, _, err := savingsAt(mid)
		if err != nil {
			return summary, err
		}
		if savings > 0 {
			lower = mid
		} else {
			upper = mid
		}
	}

	rate := (lower + upper) / 2
	savings, _, err := savingsAt(rate)
	if err != nil {
		return summary, err
	}
	summary.Value = rate
	summary.ValueDisplay = format.Percent(rate)
	summary.Cost = r.baseline - savings
	summary.Savings = savings
	summary.Converged = mathutil.WithinTolerance(upper, lower, rateTolerance)
	return summary, nil
}
