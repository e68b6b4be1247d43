// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/refinance-forecast/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateCsvKind checks if the CSV kind is one of the supported tables.
func ValidateCsvKind(kind string) error {
	if kind != constants.CsvKindSchedule && kind != constants.CsvKindSweep {
		return fmt.Errorf("expected csv kind of %s or %s, got %s",
			constants.CsvKindSchedule, constants.CsvKindSweep, kind)
	}
	return nil
}
