// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/progressive-tax/pkg/constants"
	"go.uber.org/zap/zapcore"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ParseLogLevel maps a configured level name onto a zap level. An empty name
// means info.
func ParseLogLevel(level string) (zapcore.Level, error) {
	switch level {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// ValidateLogFormat checks the logging encoder name. An empty name means json.
func ValidateLogFormat(format string) error {
	switch format {
	case "", "json", "console":
		return nil
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}
}
