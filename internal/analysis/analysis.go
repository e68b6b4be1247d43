// Package analysis turns a configuration into the refinance report: the loan
// details, the configured refinance, the schedules, the refinance month sweep
// and optionally the optimizer results.
package analysis

import (
	"fmt"

	"github.com/iwvelando/refinance-forecast/internal/config"
	"github.com/iwvelando/refinance-forecast/internal/optimizer"
	"github.com/iwvelando/refinance-forecast/pkg/datetime"
	"github.com/iwvelando/refinance-forecast/pkg/format"
	"github.com/iwvelando/refinance-forecast/pkg/loans"
	"github.com/iwvelando/refinance-forecast/pkg/optimization"
	"go.uber.org/zap"
)

// Report holds everything computed for a single configuration.
type Report struct {
	LoanDetails  LoanDetails            `json:"loanDetails"`
	Refinance    RefinanceResult        `json:"refinance"`
	Schedule     []ScheduleRow          `json:"schedule"`
	Sweep        SweepResult            `json:"sweep"`
	Optimization []optimization.Summary `json:"optimization,omitempty"`
	Warnings     []string               `json:"warnings,omitempty"`
}

// LoanDetails summarizes the original loan.
type LoanDetails struct {
	HomePrice           float64 `json:"homePrice"`
	DownPayment         float64 `json:"downPayment"`
	Principal           float64 `json:"principal"`
	InterestRate        float64 `json:"interestRate"`
	TermYears           int     `json:"termYears"`
	MonthlyPayment      float64 `json:"monthlyPayment"`
	InitialClosingCosts float64 `json:"initialClosingCosts"`
	CashAtClosing       float64 `json:"cashAtClosing"`
	TotalCost           float64 `json:"totalCost"`
	TotalInterest       float64 `json:"totalInterest"`
}

// RefinanceResult describes the configured refinance.
type RefinanceResult struct {
	InterestRate       float64                  `json:"interestRate"`
	Month              int                      `json:"month"`
	MonthLabel         string                   `json:"monthLabel"`
	Date               string                   `json:"date,omitempty"`
	ClosingCostPercent float64                  `json:"closingCostPercent"`
	Breakdown          loans.RefinanceBreakdown `json:"breakdown"`
	Comparison         loans.CostComparison     `json:"comparison"`
	Schedule           []ScheduleRow            `json:"schedule,omitempty"`
}

// ScheduleRow is an amortization entry with its calendar month, when known.
type ScheduleRow struct {
	loans.AmortizationEntry
	Date string `json:"date,omitempty"`
}

// SweepResult is the refinance cost at each evaluated month. Savings are
// measured against Baseline, the original schedule's total payments.
type SweepResult struct {
	Step     int        `json:"step"`
	Limit    int        `json:"limit"`
	Baseline float64    `json:"baseline"`
	Rows     []SweepRow `json:"rows"`
}

// SweepRow is one evaluated refinance month. Cost and Savings are nil when
// the loan is already paid off at Month.
type SweepRow struct {
	Month    int      `json:"month"`
	Cost     *float64 `json:"cost"`
	Savings  *float64 `json:"savings"`
	Feasible bool     `json:"feasible"`
}

// Run validates the configuration and computes its report.
func Run(logger *zap.Logger, conf *config.Configuration) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf == nil {
		return nil, fmt.Errorf("%w: no configuration provided", loans.ErrInvalidInput)
	}

	conf.ApplyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	report := &Report{Warnings: conf.ValidateConfiguration()}
	for _, warning := range report.Warnings {
		logger.Warn(warning,
			zap.String("op", "analysis.Run"),
		)
	}

	scenario, err := conf.RefinanceScenario()
	if err != nil {
		return nil, err
	}

	engine := loans.NewEngine(logger)
	schedule, err := engine.GenerateSchedule(scenario.Original)
	if err != nil {
		return nil, fmt.Errorf("original schedule: %w", err)
	}

	report.LoanDetails, err = loanDetails(conf, scenario, schedule)
	if err != nil {
		return nil, err
	}

	report.Schedule, err = labelSchedule(schedule, conf.Mortgage.StartDate, 0)
	if err != nil {
		return nil, err
	}

	report.Refinance, err = refinance(engine, conf, scenario)
	if err != nil {
		return nil, err
	}

	report.Sweep, err = sweep(engine, conf, scenario, loans.TotalPayments(schedule))
	if err != nil {
		return nil, err
	}

	if conf.Optimize {
		runner, err := optimizer.NewRunner(logger, scenario)
		if err != nil {
			return nil, err
		}
		result, err := runner.Run(conf.Sweep.Limit)
		if err != nil {
			return nil, fmt.Errorf("optimizer: %w", err)
		}
		report.Optimization = result.Summaries()
	}

	logger.Debug("analysis complete",
		zap.String("op", "analysis.Run"),
		zap.Int("scheduleMonths", len(report.Schedule)),
		zap.Int("sweepRows", len(report.Sweep.Rows)),
		zap.Bool("refinanceFeasible", report.Refinance.Breakdown.Total.Feasible),
	)

	return report, nil
}

func loanDetails(conf *config.Configuration, scenario loans.RefinanceScenario, schedule []loans.AmortizationEntry) (LoanDetails, error) {
	terms := scenario.Original
	payment, err := loans.MonthlyPayment(terms.Principal, terms.AnnualRatePercent, terms.TermYears)
	if err != nil {
		return LoanDetails{}, err
	}

	return LoanDetails{
		HomePrice:           conf.Mortgage.HomePrice,
		DownPayment:         conf.Mortgage.DownPayment,
		Principal:           terms.Principal,
		InterestRate:        terms.AnnualRatePercent,
		TermYears:           terms.TermYears,
		MonthlyPayment:      payment,
		InitialClosingCosts: scenario.OriginationClosingCosts,
		CashAtClosing:       conf.Mortgage.DownPayment + scenario.OriginationClosingCosts,
		TotalCost:           loans.TotalPayments(schedule) + scenario.OriginationClosingCosts,
		TotalInterest:       loans.TotalInterest(schedule),
	}, nil
}

func refinance(engine *loans.Engine, conf *config.Configuration, scenario loans.RefinanceScenario) (RefinanceResult, error) {
	result := RefinanceResult{
		InterestRate:       scenario.RefinanceRatePercent,
		Month:              scenario.RefinanceAtMonth,
		MonthLabel:         format.Duration(scenario.RefinanceAtMonth),
		ClosingCostPercent: scenario.ClosingCostPercent,
	}

	var err error
	result.Breakdown, err = engine.EvaluateRefinance(scenario)
	if err != nil {
		return result, err
	}
	result.Comparison, err = engine.Compare(scenario)
	if err != nil {
		return result, err
	}

	if conf.Mortgage.StartDate != "" {
		result.Date, err = datetime.OffsetDate(conf.Mortgage.StartDate, datetime.DateTimeLayout, scenario.RefinanceAtMonth-1)
		if err != nil {
			return result, err
		}
	}

	if !result.Breakdown.Total.Feasible {
		return result, nil
	}

	refinanced, err := engine.GenerateSchedule(result.Breakdown.NewTerms(scenario.RefinanceRatePercent))
	if err != nil {
		return result, fmt.Errorf("refinanced schedule: %w", err)
	}
	result.Schedule, err = labelSchedule(refinanced, conf.Mortgage.StartDate, scenario.RefinanceAtMonth-1)
	return result, err
}

func sweep(engine *loans.Engine, conf *config.Configuration, scenario loans.RefinanceScenario, baseline float64) (SweepResult, error) {
	points, err := engine.Sweep(scenario, conf.Sweep.Step, conf.Sweep.Limit)
	if err != nil {
		return SweepResult{}, err
	}

	result := SweepResult{
		Step:     conf.Sweep.Step,
		Limit:    conf.Sweep.Limit,
		Baseline: baseline,
		Rows:     make([]SweepRow, 0, len(points)),
	}
	for _, point := range points {
		row := SweepRow{Month: point.Month, Feasible: point.Cost.Feasible}
		if point.Cost.Feasible {
			cost := point.Cost.Cost
			savings := baseline - cost
			row.Cost = &cost
			row.Savings = &savings
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

// labelSchedule attaches calendar months to a schedule whose first payment
// falls offset months after startDate. Dates are omitted without startDate.
func labelSchedule(schedule []loans.AmortizationEntry, startDate string, offset int) ([]ScheduleRow, error) {
	rows := make([]ScheduleRow, len(schedule))
	for i, entry := range schedule {
		rows[i].AmortizationEntry = entry
	}
	if startDate == "" || len(schedule) == 0 {
		return rows, nil
	}

	first, err := datetime.OffsetDate(startDate, datetime.DateTimeLayout, offset)
	if err != nil {
		return nil, err
	}
	dates, err := datetime.ScheduleMonths(first, len(schedule))
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Date = dates[i]
	}
	return rows, nil
}
