// Package brackets holds the per-year progressive tax bracket tables and
// validates them once, when the table is built.
package brackets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Bracket is a contiguous income range taxed at a single marginal rate. A nil
// Upper means the bracket is unbounded.
type Bracket struct {
	Lower decimal.Decimal
	Upper *decimal.Decimal
	Rate  decimal.Decimal
}

// Unbounded reports whether the bracket has no upper bound.
func (b Bracket) Unbounded() bool {
	return b.Upper == nil
}

// Contains reports whether amount falls in [Lower, Upper).
func (b Bracket) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(b.Lower) {
		return false
	}
	return b.Unbounded() || amount.LessThan(*b.Upper)
}

func (b Bracket) clone() Bracket {
	c := Bracket{Lower: b.Lower, Rate: b.Rate}
	if b.Upper != nil {
		upper := *b.Upper
		c.Upper = &upper
	}
	return c
}

// Bound is a convenience constructor for bounded brackets.
func Bound(lower, upper, rate string) Bracket {
	u := decimal.RequireFromString(upper)
	return Bracket{
		Lower: decimal.RequireFromString(lower),
		Upper: &u,
		Rate:  decimal.RequireFromString(rate),
	}
}

// Open is a convenience constructor for the final unbounded bracket.
func Open(lower, rate string) Bracket {
	return Bracket{
		Lower: decimal.RequireFromString(lower),
		Rate:  decimal.RequireFromString(rate),
	}
}

// InvalidBracketTableError is returned when a bracket table violates its
// structural invariants. It is a configuration defect and is never recovered.
type InvalidBracketTableError struct {
	Year   int
	Index  int
	Reason string
}

func (e *InvalidBracketTableError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid bracket table for %d: %s", e.Year, e.Reason)
	}
	return fmt.Sprintf("invalid bracket table for %d: bracket %d: %s", e.Year, e.Index, e.Reason)
}

// UnsupportedYearError is returned when a year has no bracket table.
type UnsupportedYearError struct {
	Year      int
	Supported []int
}

func (e *UnsupportedYearError) Error() string {
	years := make([]string, len(e.Supported))
	for i, y := range e.Supported {
		years[i] = fmt.Sprintf("%d", y)
	}
	return fmt.Sprintf("unsupported tax year %d, expected one of %s", e.Year, strings.Join(years, ", "))
}

// Registry maps a tax year to its bracket sequence. It is immutable once
// built and safe for concurrent readers.
type Registry struct {
	tables map[int][]Bracket
	years  []int
}

// NewRegistry validates every year's sequence and returns a registry holding
// private copies of them.
func NewRegistry(table map[int][]Bracket) (*Registry, error) {
	if len(table) == 0 {
		return nil, &InvalidBracketTableError{Index: -1, Reason: "no tax years configured"}
	}

	r := &Registry{
		tables: make(map[int][]Bracket, len(table)),
		years:  make([]int, 0, len(table)),
	}
	for year, seq := range table {
		if err := Validate(year, seq); err != nil {
			return nil, err
		}
		r.tables[year] = cloneAll(seq)
		r.years = append(r.years, year)
	}
	sort.Ints(r.years)

	return r, nil
}

// Validate checks the structural invariants of one year's bracket sequence.
func Validate(year int, seq []Bracket) error {
	if len(seq) == 0 {
		return &InvalidBracketTableError{Year: year, Index: -1, Reason: "no brackets"}
	}
	if !seq[0].Lower.IsZero() {
		return &InvalidBracketTableError{Year: year, Index: 0, Reason: fmt.Sprintf("first lower bound must be 0, got %s", seq[0].Lower)}
	}

	one := decimal.NewFromInt(1)
	last := len(seq) - 1
	for i, b := range seq {
		if b.Lower.IsNegative() {
			return &InvalidBracketTableError{Year: year, Index: i, Reason: "negative lower bound"}
		}
		if b.Rate.IsNegative() || b.Rate.GreaterThan(one) {
			return &InvalidBracketTableError{Year: year, Index: i, Reason: fmt.Sprintf("rate %s outside [0, 1]", b.Rate)}
		}
		if b.Unbounded() {
			if i != last {
				return &InvalidBracketTableError{Year: year, Index: i, Reason: "only the last bracket may be unbounded"}
			}
			continue
		}
		if i == last {
			return &InvalidBracketTableError{Year: year, Index: i, Reason: "last bracket must be unbounded"}
		}
		if !b.Lower.LessThan(*b.Upper) {
			return &InvalidBracketTableError{Year: year, Index: i, Reason: fmt.Sprintf("lower bound %s not below upper bound %s", b.Lower, *b.Upper)}
		}
		next := seq[i+1]
		if !b.Upper.Equal(next.Lower) {
			return &InvalidBracketTableError{Year: year, Index: i, Reason: fmt.Sprintf("upper bound %s does not meet next lower bound %s", *b.Upper, next.Lower)}
		}
		if next.Rate.LessThan(b.Rate) {
			return &InvalidBracketTableError{Year: year, Index: i + 1, Reason: fmt.Sprintf("rate %s decreases from %s", next.Rate, b.Rate)}
		}
	}

	return nil
}

// Get returns a copy of the bracket sequence for year.
func (r *Registry) Get(year int) ([]Bracket, error) {
	seq, ok := r.tables[year]
	if !ok {
		return nil, &UnsupportedYearError{Year: year, Supported: r.Years()}
	}
	return cloneAll(seq), nil
}

// Supports reports whether year has a bracket table.
func (r *Registry) Supports(year int) bool {
	_, ok := r.tables[year]
	return ok
}

// Years returns the supported years in ascending order.
func (r *Registry) Years() []int {
	return append([]int(nil), r.years...)
}

// Latest returns the most recent supported year, used when no year is chosen.
func (r *Registry) Latest() int {
	return r.years[len(r.years)-1]
}

func cloneAll(seq []Bracket) []Bracket {
	out := make([]Bracket, len(seq))
	for i, b := range seq {
		out[i] = b.clone()
	}
	return out
}
