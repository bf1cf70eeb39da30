package brackets

import "fmt"

// DefaultTable returns the built-in bracket sequences for 2022 through 2025.
func DefaultTable() map[int][]Bracket {
	return map[int][]Bracket{
		2025: {
			Bound("0", "10064", "0.00"),
			Bound("10064", "25659", "0.11"),
			Bound("25659", "73369", "0.30"),
			Bound("73369", "157806", "0.41"),
			Open("157806", "0.45"),
		},
		2024: {
			Bound("0", "9875", "0.00"),
			Bound("9875", "25175", "0.10"),
			Bound("25175", "72000", "0.28"),
			Bound("72000", "155000", "0.40"),
			Open("155000", "0.44"),
		},
		2023: {
			Bound("0", "9325", "0.00"),
			Bound("9325", "24500", "0.10"),
			Bound("24500", "70500", "0.27"),
			Bound("70500", "152000", "0.39"),
			Open("152000", "0.43"),
		},
		2022: {
			Bound("0", "8900", "0.00"),
			Bound("8900", "23850", "0.09"),
			Bound("23850", "68500", "0.26"),
			Bound("68500", "148000", "0.38"),
			Open("148000", "0.42"),
		},
	}
}

// Default builds the registry from DefaultTable. A broken built-in table is a
// programming error, so it panics.
func Default() *Registry {
	r, err := NewRegistry(DefaultTable())
	if err != nil {
		panic(fmt.Sprintf("built-in bracket table is invalid: %v", err))
	}
	return r
}
