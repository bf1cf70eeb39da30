package testutil

import (
	"testing"

	"github.com/iwvelando/progressive-tax/internal/scenario"
	"github.com/shopspring/decimal"
)

func TestDecimal(t *testing.T) {
	if got := Decimal(t, "1650.00"); !got.Equal(decimal.NewFromInt(1650)) {
		t.Errorf("Decimal() = %s, expected 1650", got)
	}
}

func TestAssertDecimal(t *testing.T) {
	AssertDecimal(t, "rate", decimal.RequireFromString("0.110"), "0.11")
	AssertDecimal(t, "tax", decimal.NewFromInt(1650), "1650.00")
}

func TestMustFindOutcome(t *testing.T) {
	outcomes := []scenario.Outcome{
		{Name: "Scenario A"},
		{Name: "Scenario B"},
	}

	if got := MustFindOutcome(t, outcomes, "Scenario B"); got.Name != "Scenario B" {
		t.Errorf("MustFindOutcome() returned %q", got.Name)
	}
	if scenario.Find(outcomes, "missing") != nil {
		t.Error("expected nil for missing scenario")
	}
}
