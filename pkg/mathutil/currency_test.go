package mathutil

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Round up at midpoint", "1.235", "1.24"},
		{"Round down below midpoint", "1.234", "1.23"},
		{"No rounding needed", "1.23", "1.23"},
		{"Large number", "12345.678", "12345.68"},
		{"Negative number round away at midpoint", "-1.235", "-1.24"},
		{"Zero", "0", "0"},
		{"Very small positive", "0.001", "0"},
		{"Nearly two cents", "0.019", "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(d(tt.input))
			if !result.Equal(d(tt.expected)) {
				t.Errorf("Round(%s) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFloorZero(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Positive unchanged", "12.5", "12.5"},
		{"Zero unchanged", "0", "0"},
		{"Negative floored", "-0.01", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FloorZero(d(tt.input))
			if !result.Equal(d(tt.expected)) {
				t.Errorf("FloorZero(%s) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMin(t *testing.T) {
	a, b := d("10.5"), d("3")
	if got := Min(a, b); !got.Equal(b) {
		t.Errorf("Min(%s, %s) = %s, expected %s", a, b, got, b)
	}
	if got := Min(a, a); !got.Equal(a) {
		t.Errorf("Min of equal values = %s, expected %s", got, a)
	}
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		total    string
		expected string
	}{
		{"Quarter", "25", "100", "0.25"},
		{"Zero total", "25", "0", "0"},
		{"Zero value", "0", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Ratio(d(tt.value), d(tt.total))
			if !result.Equal(d(tt.expected)) {
				t.Errorf("Ratio(%s, %s) = %s, expected %s", tt.value, tt.total, result, tt.expected)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	if got := Percentage(d("0.11")); !got.Equal(d("11")) {
		t.Errorf("Percentage(0.11) = %s, expected 11", got)
	}
	if got := Percentage(d("0.066")); !got.Equal(d("6.6")) {
		t.Errorf("Percentage(0.066) = %s, expected 6.6", got)
	}
}

func TestSumIsExact(t *testing.T) {
	values := make([]decimal.Decimal, 0, 10)
	for i := 0; i < 10; i++ {
		values = append(values, d("0.1"))
	}
	if got := Sum(values...); !got.Equal(d("1")) {
		t.Errorf("Sum of ten 0.1 = %s, expected exactly 1", got)
	}
	if got := Sum(); !got.IsZero() {
		t.Errorf("Sum() = %s, expected 0", got)
	}
}
