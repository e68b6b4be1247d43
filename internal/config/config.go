// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/refinance-forecast/pkg/constants"
	"github.com/iwvelando/refinance-forecast/pkg/datetime"
	"github.com/iwvelando/refinance-forecast/pkg/loans"
	"github.com/iwvelando/refinance-forecast/pkg/validation"
	"github.com/spf13/viper"
)

// DateTimeLayout is the format expected in config files and is also the output
// date format.
const DateTimeLayout = constants.DateTimeLayout

// Configuration holds all configuration for refinance-forecast.
type Configuration struct {
	Mortgage  Mortgage      `yaml:"mortgage"`
	Refinance Refinance     `yaml:"refinance"`
	Sweep     Sweep         `yaml:"sweep"`
	Optimize  bool          `yaml:"optimize,omitempty"`
	Logging   LoggingConfig `yaml:"logging,omitempty"`
	Output    OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format  string `yaml:"format,omitempty"`  // pretty, csv, json
	CsvKind string `yaml:"csvKind,omitempty"` // schedule, sweep
}

// Mortgage describes the purchase and the original loan.
type Mortgage struct {
	HomePrice          float64 `yaml:"homePrice"`
	DownPayment        float64 `yaml:"downPayment"`
	InterestRate       float64 `yaml:"interestRate"`
	TermYears          int     `yaml:"termYears"`
	ClosingCostPercent float64 `yaml:"closingCostPercent"`
	StartDate          string  `yaml:"startDate,omitempty"` // YYYY-MM of the first payment
}

// Refinance describes the candidate refinance.
type Refinance struct {
	InterestRate float64 `yaml:"interestRate"`
	Month        int     `yaml:"month"`
	// ClosingCostPercent defaults to the mortgage closing cost percent.
	ClosingCostPercent *float64 `yaml:"closingCostPercent,omitempty"`
}

// Sweep controls which refinance months are charted.
type Sweep struct {
	Step  int `yaml:"step"`
	Limit int `yaml:"limit"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix("REFINANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mortgage.termYears", constants.DefaultTermYears)
	v.SetDefault("sweep.step", constants.DefaultSweepStep)
	v.SetDefault("sweep.limit", constants.DefaultSweepLimit)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills in values that were left unset. It is applied by the
// loaders and is idempotent.
func (conf *Configuration) ApplyDefaults() {
	if conf.Mortgage.TermYears == 0 {
		conf.Mortgage.TermYears = constants.DefaultTermYears
	}
	if conf.Sweep.Step == 0 {
		conf.Sweep.Step = constants.DefaultSweepStep
	}
	if conf.Sweep.Limit == 0 {
		conf.Sweep.Limit = constants.DefaultSweepLimit
	}
	if conf.Refinance.ClosingCostPercent == nil {
		pct := conf.Mortgage.ClosingCostPercent
		conf.Refinance.ClosingCostPercent = &pct
	}
}

// Validate rejects configurations that cannot be analyzed. Errors wrap
// loans.ErrInvalidInput.
func (conf *Configuration) Validate() error {
	m := conf.Mortgage
	if m.HomePrice < 0 {
		return fmt.Errorf("%w: home price must be non-negative, got %.2f", loans.ErrInvalidInput, m.HomePrice)
	}
	if m.DownPayment < 0 {
		return fmt.Errorf("%w: down payment must be non-negative, got %.2f", loans.ErrInvalidInput, m.DownPayment)
	}
	if m.DownPayment > m.HomePrice {
		return fmt.Errorf("%w: down payment %.2f exceeds home price %.2f", loans.ErrInvalidInput, m.DownPayment, m.HomePrice)
	}
	if m.StartDate != "" {
		if err := datetime.ValidateMonth(m.StartDate); err != nil {
			return fmt.Errorf("%w: mortgage start date: %v", loans.ErrInvalidInput, err)
		}
	}
	if conf.Refinance.Month < 1 {
		return fmt.Errorf("%w: refinance month must be at least 1, got %d", loans.ErrInvalidInput, conf.Refinance.Month)
	}
	if conf.Sweep.Step <= 0 || conf.Sweep.Limit <= 0 {
		return fmt.Errorf("%w: sweep step and limit must be positive, got %d and %d",
			loans.ErrInvalidInput, conf.Sweep.Step, conf.Sweep.Limit)
	}
	return nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings about settings that are legal but probably unintended.
func (conf *Configuration) ValidateConfiguration() []string {
	m := conf.Mortgage
	warnings := validation.CollectWarnings(
		validation.ValidateDownPayment(m.HomePrice, m.DownPayment),
		validation.ValidateRefinanceRate(m.InterestRate, conf.Refinance.InterestRate),
		validation.ValidateRefinanceMonth(conf.Refinance.Month, m.TermYears*constants.MonthsPerYear, conf.Sweep.Limit),
		validation.ValidateClosingCost("Mortgage", m.ClosingCostPercent),
	)

	// An inherited refinance percentage was already reported above.
	if pct := conf.Refinance.ClosingCostPercent; pct != nil && *pct != m.ClosingCostPercent {
		warnings = append(warnings, validation.CollectWarnings(validation.ValidateClosingCost("Refinance", *pct))...)
	}

	return warnings
}
