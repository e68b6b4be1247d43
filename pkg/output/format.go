// Package output provides utilities for formatting and displaying refinance
// reports.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/refinance-forecast/internal/analysis"
	"github.com/iwvelando/refinance-forecast/pkg/constants"
	"github.com/iwvelando/refinance-forecast/pkg/format"
	"github.com/iwvelando/refinance-forecast/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	headingColor = lipgloss.Color("#89b4fa")
	savingsColor = lipgloss.Color("#a6e3a1")
	costColor    = lipgloss.Color("#f38ba8")
)

var summaryLabels = map[string]string{
	optimization.TargetBestMonth:      "Best refinance month",
	optimization.TargetBreakEvenMonth: "Break-even refinance month",
	optimization.TargetBreakEvenRate:  "Break-even refinance rate",
}

// PrettyFormat writes a human-readable rather than machine-readable report.
// Styling is only applied when w is a terminal.
func PrettyFormat(w io.Writer, report *analysis.Report) {
	renderer := lipgloss.NewRenderer(w)
	heading := renderer.NewStyle().Bold(true).Foreground(headingColor)
	good := renderer.NewStyle().Foreground(savingsColor)
	bad := renderer.NewStyle().Foreground(costColor)
	p := message.NewPrinter(language.English)

	section := func(title string) {
		_, _ = fmt.Fprintln(w, heading.Render("--- "+title+" ---"))
	}
	line := func(label, value string) {
		_, _ = p.Fprintf(w, "%-26s %s\n", label+":", value)
	}

	for _, warning := range report.Warnings {
		_, _ = fmt.Fprintln(w, bad.Render("Warning: "+warning))
	}
	if len(report.Warnings) > 0 {
		_, _ = fmt.Fprintln(w)
	}

	details := report.LoanDetails
	section("Loan Details")
	line("Home price", format.Currency(details.HomePrice))
	line("Down payment", format.Currency(details.DownPayment))
	line("Loan amount", format.Currency(details.Principal))
	line("Interest rate", format.Percent(details.InterestRate))
	line("Term", p.Sprintf("%d years (%d payments)", details.TermYears, len(report.Schedule)))
	line("Monthly payment", format.Currency(details.MonthlyPayment))
	line("Closing costs", format.Currency(details.InitialClosingCosts))
	line("Cash at closing", format.Currency(details.CashAtClosing))
	line("Total interest", format.Currency(details.TotalInterest))
	line("Total cost", format.Currency(details.TotalCost))
	_, _ = fmt.Fprintln(w)

	refinance := report.Refinance
	section("Refinance Analysis")
	line("Refinance rate", format.Percent(refinance.InterestRate))
	month := format.MonthLabel(refinance.Month)
	if refinance.Date != "" {
		month += " " + refinance.Date
	}
	line("Refinance month", month)

	breakdown := refinance.Breakdown
	if !breakdown.Total.Feasible {
		_, _ = fmt.Fprintln(w, bad.Render(fmt.Sprintf("The loan is paid off before month %d; there is nothing to refinance.", refinance.Month)))
	} else {
		line("Paid before refinance", format.Currency(breakdown.CostBeforeRefinance))
		line("Remaining balance", format.Currency(breakdown.RemainingBalance))
		line("Refinance closing costs", format.Currency(breakdown.ClosingCosts))
		line("New term", p.Sprintf("%d years", breakdown.RemainingYears))
		line("New monthly payment", format.Currency(breakdown.NewMonthlyPayment))
		line("Total with refinance", format.Currency(refinance.Comparison.TotalCostWithRefinance.Cost))
		line("Total without refinance", format.Currency(refinance.Comparison.TotalCostOriginal))
		if savings := refinance.Comparison.NetSavings; savings >= 0 {
			line("Savings", good.Render(format.Currency(savings)))
		} else {
			line("Additional Cost", bad.Render(format.Currency(-savings)))
		}
	}
	_, _ = fmt.Fprintln(w)

	if len(report.Optimization) > 0 {
		section("Optimization")
		for _, summary := range report.Optimization {
			label := summaryLabels[summary.Target]
			if label == "" {
				label = summary.Target
			}
			if !summary.Converged {
				line(label, "none")
			} else {
				line(label, fmt.Sprintf("%s (configured %s, savings %s)",
					summary.ValueDisplay, summary.OriginalDisplay, format.Currency(summary.Savings)))
			}
			for _, note := range summary.Notes {
				_, _ = fmt.Fprintf(w, "  note: %s\n", note)
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	sweep := report.Sweep
	section(fmt.Sprintf("Refinance Month Sweep (baseline %s)", format.Currency(sweep.Baseline)))
	_, _ = fmt.Fprintf(w, "%-14s | %-16s | %s\n", "Month", "Total Cost", "Savings")
	_, _ = fmt.Fprintf(w, "%-14s | %-16s | %s\n", strings.Repeat("_", 5), strings.Repeat("_", 10), strings.Repeat("_", 7))
	for _, row := range sweep.Rows {
		if !row.Feasible {
			_, _ = fmt.Fprintf(w, "%-14s | %-16s | %s\n", format.MonthLabel(row.Month), "paid off", "")
			continue
		}
		savings := format.Currency(*row.Savings)
		if *row.Savings < 0 {
			savings = bad.Render(savings)
		}
		_, _ = fmt.Fprintf(w, "%-14s | %-16s | %s\n", format.MonthLabel(row.Month), format.Currency(*row.Cost), savings)
	}
}

// CsvFormat writes either the original amortization schedule or the refinance
// month sweep in comma-separated value format.
func CsvFormat(w io.Writer, report *analysis.Report, kind string) error {
	writer := csv.NewWriter(w)

	switch kind {
	case constants.CsvKindSchedule:
		if err := writer.Write([]string{"month", "date", "payment", "principal", "interest", "balance"}); err != nil {
			return err
		}
		for _, row := range report.Schedule {
			record := []string{
				strconv.Itoa(row.Month),
				row.Date,
				format.Cents(row.TotalPayment),
				format.Cents(row.Principal),
				format.Cents(row.Interest),
				format.Cents(row.RemainingBalance),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	case constants.CsvKindSweep:
		if err := writer.Write([]string{"month", "cost", "savings", "feasible"}); err != nil {
			return err
		}
		for _, row := range report.Sweep.Rows {
			record := []string{strconv.Itoa(row.Month), "", "", strconv.FormatBool(row.Feasible)}
			if row.Feasible {
				record[1] = format.Cents(*row.Cost)
				record[2] = format.Cents(*row.Savings)
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown csv kind %q", kind)
	}

	writer.Flush()
	return writer.Error()
}

// CsvString returns the original amortization schedule as CSV.
func CsvString(report *analysis.Report) (string, error) {
	var builder strings.Builder
	if err := CsvFormat(&builder, report, constants.CsvKindSchedule); err != nil {
		return "", err
	}
	return builder.String(), nil
}
