package tax

import (
	"fmt"

	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/shopspring/decimal"
)

// InvalidInputError is returned when a caller supplies a value the engine
// refuses to compute with. Field names the offending input.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func negativeField(field string, value fmt.Stringer) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf("must not be negative, got %s", value)}
}

// CheckAmount rejects amounts too large or too precise to compute with.
// Decimal arithmetic rescales operands to a common exponent, so a value such
// as 1e1000000 would expand to a million-digit integer.
func CheckAmount(field string, value decimal.Decimal) error {
	if value.Exponent() < -constants.MaxAmountPlaces {
		return &InvalidInputError{
			Field:  field,
			Reason: fmt.Sprintf("must have at most %d decimal places", constants.MaxAmountPlaces),
		}
	}
	if int64(value.NumDigits())+int64(value.Exponent()) > constants.MaxAmountDigits {
		return &InvalidInputError{
			Field:  field,
			Reason: fmt.Sprintf("must be below 1e%d", constants.MaxAmountDigits),
		}
	}
	return nil
}
