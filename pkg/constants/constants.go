// Package constants provides shared constants for the progressive-tax application.
package constants

// Tax table constants
const (
	// MinScenarios is the smallest number of scenarios accepted by comparison mode
	MinScenarios = 2

	// MaxScenarios is the largest number of scenarios accepted by comparison mode
	MaxScenarios = 3
)

// Financial constants
const (
	// CurrencyPlaces is the number of decimal places kept when presenting currency
	CurrencyPlaces int32 = 2

	// RatePlaces is the number of decimal places kept when presenting a rate as a percentage
	RatePlaces int32 = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100

	// CurrencySymbol is appended to formatted amounts
	CurrencySymbol = "$"

	// MaxAmountDigits is the number of integer digits an input amount may have,
	// so every amount stays below 10^15
	MaxAmountDigits = 15

	// MaxAmountPlaces is the number of decimal places an input amount may have
	MaxAmountPlaces = 10
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024
)
