// Package testutil provides common utility functions for testing.
package testutil

import (
	"testing"

	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/shopspring/decimal"
)

// Decimal parses value or fails the test.
func Decimal(t testing.TB, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", value, err)
	}
	return d
}

// AssertDecimal reports an error when got is not numerically equal to want.
// Trailing zeros are ignored.
func AssertDecimal(t testing.TB, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(Decimal(t, want)) {
		t.Errorf("%s = %s, expected %s", label, got, want)
	}
}

// MustFindOutcome returns the outcome with the given name or fails the test.
func MustFindOutcome(t testing.TB, outcomes []scenario.Outcome, name string) *scenario.Outcome {
	t.Helper()
	outcome := scenario.Find(outcomes, name)
	if outcome == nil {
		t.Fatalf("scenario %q not found", name)
	}
	return outcome
}
