package config

import (
	"github.com/iwvelando/refinance-forecast/pkg/loans"
)

// Principal returns the financed amount.
func (m Mortgage) Principal() float64 {
	return m.HomePrice - m.DownPayment
}

// LoanTerms converts the mortgage into the engine's loan terms.
func (m Mortgage) LoanTerms() loans.LoanTerms {
	return loans.LoanTerms{
		Principal:         m.Principal(),
		AnnualRatePercent: m.InterestRate,
		TermYears:         m.TermYears,
	}
}

// InitialClosingCosts returns the closing costs paid at purchase.
func (m Mortgage) InitialClosingCosts() (float64, error) {
	return loans.OriginationClosingCosts(m.HomePrice, m.ClosingCostPercent)
}

// RefinanceClosingCostPercent returns the refinance closing cost percent,
// falling back to the mortgage's when unset.
func (conf *Configuration) RefinanceClosingCostPercent() float64 {
	if conf.Refinance.ClosingCostPercent != nil {
		return *conf.Refinance.ClosingCostPercent
	}
	return conf.Mortgage.ClosingCostPercent
}

// RefinanceScenario converts the configuration into the engine's scenario.
func (conf *Configuration) RefinanceScenario() (loans.RefinanceScenario, error) {
	initial, err := conf.Mortgage.InitialClosingCosts()
	if err != nil {
		return loans.RefinanceScenario{}, err
	}

	return loans.RefinanceScenario{
		Original:                conf.Mortgage.LoanTerms(),
		RefinanceRatePercent:    conf.Refinance.InterestRate,
		RefinanceAtMonth:        conf.Refinance.Month,
		ClosingCostPercent:      conf.RefinanceClosingCostPercent(),
		OriginationClosingCosts: initial,
	}, nil
}
