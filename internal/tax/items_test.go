package tax

import (
	"errors"
	"testing"
)

func TestSum(t *testing.T) {
	total, err := Sum("deductions",
		Item{Name: "pension", Amount: d("3000")},
		Item{Name: "medical", Amount: d("450.25")},
		Item{Name: "charitable", Amount: d("0")},
		Item{Name: "mortgage", Amount: d("1200.10")},
	)
	if err != nil {
		t.Fatalf("Sum() error = %v", err)
	}
	if !total.Equal(d("4650.35")) {
		t.Errorf("Sum() = %s, expected 4650.35", total)
	}

	empty, err := Sum("credits")
	if err != nil || !empty.IsZero() {
		t.Errorf("Sum() of no items = %s, %v", empty, err)
	}
}

func TestSumRejectsNegativeItem(t *testing.T) {
	_, err := Sum("credits", Item{Name: "child", Amount: d("500")}, Item{Name: "energy", Amount: d("-1")})

	var inputErr *InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if inputErr.Field != "credits.energy" {
		t.Errorf("Field = %s, expected credits.energy", inputErr.Field)
	}

	_, err = Sum("deductions", Item{Amount: d("-1")})
	if !errors.As(err, &inputErr) || inputErr.Field != "deductions" {
		t.Errorf("expected unnamed item to report the family, got %v", err)
	}
}

func TestSumRejectsOversizedItem(t *testing.T) {
	_, err := Sum("deductions", Item{Name: "pension", Amount: d("3000")}, Item{Name: "gift", Amount: d("5e20")})

	var inputErr *InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if inputErr.Field != "deductions.gift" {
		t.Errorf("Field = %s, expected deductions.gift", inputErr.Field)
	}
}
